package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/data"
	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/storage"
	"github.com/clubwize/backend/src/api/types"
)

type Posts struct {
	db        *gorm.DB
	rdb       *redis.Client
	store     storage.Service
	sanitizer *bluemonday.Policy
}

func NewPosts(db *gorm.DB, rdb *redis.Client, store storage.Service) Posts {
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.RequireNoFollowOnLinks(true)

	return Posts{db: db, rdb: rdb, store: store, sanitizer: sanitizer}
}

// AttachFiles stores the request's attachments and records them against the
// post. Only the author may attach, and only while the post is active.
func (h Posts) AttachFiles(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid post id"})
		return
	}

	var post types.GenericPost
	if err := h.db.First(&post, "id = ? AND status = ?", id, "active").Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "post not found"})
		return
	}
	if post.CreatedBy != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"err": "only the author can attach files"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "at least one file required"})
		return
	}

	objects, err := uploadBatch(c, h.store, fmt.Sprintf("posts/%d", post.ID), files)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	rows := make([]types.PostFile, len(objects))
	for i, obj := range objects {
		rows[i] = types.PostFile{
			PostID:   post.ID,
			URL:      obj.URL,
			Name:     files[i].Filename,
			MimeType: obj.ContentType,
			Size:     obj.Size,
		}
	}
	if err := h.db.Create(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, rows)
}

// Create inserts the post, bumps the author's post counter and writes the
// feed entry in one transaction; the stream publish happens after commit.
func (h Posts) Create(c *gin.Context) {
	var req struct {
		Content   string  `json:"content" binding:"required,min=1,max=10000"`
		ClubID    *uint64 `json:"clubId"`
		NodeID    *uint64 `json:"nodeId"`
		ChapterID *uint64 `json:"chapterId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	target, err := forum.New(req.ClubID, req.NodeID, req.ChapterID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUserID(c)
	if _, isMember, err := forum.Membership(h.db, target, uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	} else if !isMember {
		c.JSON(http.StatusNotAcceptable, gin.H{"err": "not a member of the forum"})
		return
	}

	body := h.sanitizer.Sanitize(req.Content)
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "content is empty after sanitizing"})
		return
	}

	post := types.GenericPost{Content: body, CreatedBy: uid, Status: "active"}
	post.ClubID, post.NodeID, post.ChapterID = target.Columns()

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(&post).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Model(&types.User{}).Where("id = ?", uid).
		Update("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	feed := types.FeedEntry{UserID: uid, AssetType: "post", AssetID: post.ID}
	if err := tx.Create(&feed).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	if err := data.PublishFeedEvent(context.Background(), h.rdb, map[string]interface{}{
		"post":   post.ID,
		"author": uid,
		"forum":  string(target.Type),
		"id":     target.ID,
		"time":   time.Now().Unix(),
	}); err != nil {
		logger.S().Warnf("feed publish for post %d failed: %v", post.ID, err)
	}

	c.JSON(http.StatusCreated, post)
}

func (h Posts) Like(c *gin.Context) {
	var req struct {
		PostID uint64 `json:"postId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var post types.GenericPost
	if err := h.db.First(&post, "id = ? AND status = ?", req.PostID, "active").Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "post not found"})
		return
	}

	uid := currentUserID(c)
	var existing types.PostLike
	err := h.db.First(&existing, "post_id = ? AND user_id = ?", req.PostID, uid).Error
	switch {
	case err == nil:
		h.db.Delete(&types.PostLike{}, "id = ?", existing.ID)
		c.JSON(http.StatusOK, gin.H{"liked": false})
	case errors.Is(err, gorm.ErrRecordNotFound):
		h.db.Create(&types.PostLike{PostID: req.PostID, UserID: uid})
		c.JSON(http.StatusOK, gin.H{"liked": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
	}
}

// Delete soft-deletes. The author or a privileged member of the post's forum
// may delete.
func (h Posts) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid post id"})
		return
	}

	var post types.GenericPost
	if err := h.db.First(&post, "id = ? AND status = ?", id, "active").Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "post not found"})
		return
	}

	uid := currentUserID(c)
	if post.CreatedBy != uid {
		target, err := forum.New(post.ClubID, post.NodeID, post.ChapterID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
		role, isMember, err := forum.Membership(h.db, target, uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
		if !isMember || !role.Privileged() {
			c.JSON(http.StatusForbidden, gin.H{"err": "not allowed to delete this post"})
			return
		}
	}

	if err := h.db.Model(&types.GenericPost{}).Where("id = ?", post.ID).
		Update("status", "deleted").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
