package webserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/storage"
	"github.com/clubwize/backend/src/api/types"
)

type Forums struct {
	db    *gorm.DB
	store storage.Service
}

func NewForums(db *gorm.DB, store storage.Service) Forums {
	return Forums{db: db, store: store}
}

func (f Forums) CreateClub(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=128"`
		About       string `json:"about" binding:"max=512"`
		Description string `json:"description" binding:"max=10000"`
		IsPublic    *bool  `json:"isPublic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUserID(c)
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	club := types.Club{
		Name:        req.Name,
		About:       req.About,
		Description: req.Description,
		IsPublic:    isPublic,
		CreatedBy:   uid,
	}

	// Club and owner membership land together.
	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(&club).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := forum.AddMember(tx, forum.Forum{Type: forum.Club, ID: club.ID}, uid, forum.RoleOwner); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("club %d created by user %d", club.ID, uid)
	c.JSON(http.StatusCreated, club)
}

func (f Forums) GetClub(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid club id"})
		return
	}
	var club types.Club
	if err := f.db.First(&club, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "club not found"})
		return
	}
	var members int64
	if err := f.db.Model(&types.ClubMember{}).Where("club_id = ?", club.ID).Count(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"club": club, "memberCount": members})
}

func (f Forums) JoinClub(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid club id"})
		return
	}

	uid := currentUserID(c)
	target := forum.Forum{Type: forum.Club, ID: id}

	var club types.Club
	if err := f.db.First(&club, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "club not found"})
		return
	}

	if _, isMember, err := forum.Membership(f.db, target, uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	} else if isMember {
		c.JSON(http.StatusConflict, gin.H{"err": "already a member"})
		return
	}

	if club.IsPublic {
		if err := forum.AddMember(f.db, target, uid, forum.RoleMember); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "joined"})
		return
	}

	// Private clubs queue a join request for the admins.
	var pending int64
	f.db.Model(&types.JoinRequest{}).Where("club_id = ? AND user_id = ? AND status = ?", id, uid, "pending").Count(&pending)
	if pending > 0 {
		c.JSON(http.StatusConflict, gin.H{"err": "join request already pending"})
		return
	}
	jr := types.JoinRequest{ClubID: &id, UserID: uid}
	if err := f.db.Create(&jr).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "requested"})
}

func (f Forums) CreateNode(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=128"`
		About       string `json:"about" binding:"max=512"`
		Description string `json:"description" binding:"max=10000"`
		IsPublic    *bool  `json:"isPublic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUserID(c)
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	node := types.Node{
		Name:        req.Name,
		About:       req.About,
		Description: req.Description,
		IsPublic:    isPublic,
		CreatedBy:   uid,
	}

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(&node).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := forum.AddMember(tx, forum.Forum{Type: forum.Node, ID: node.ID}, uid, forum.RoleOwner); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, node)
}

func (f Forums) CreateChapter(c *gin.Context) {
	var req struct {
		ClubID   uint64 `json:"clubId" binding:"required"`
		NodeID   uint64 `json:"nodeId" binding:"required"`
		Name     string `json:"name" binding:"required,min=2,max=128"`
		About    string `json:"about" binding:"max=512"`
		IsPublic *bool  `json:"isPublic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUserID(c)

	// The chapter creator must hold a privileged role in the parent club.
	role, isMember, err := forum.Membership(f.db, forum.Forum{Type: forum.Club, ID: req.ClubID}, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if !isMember || !role.Privileged() {
		c.JSON(http.StatusForbidden, gin.H{"err": "club admin role required"})
		return
	}
	if err := f.db.First(&types.Node{}, "id = ?", req.NodeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "node not found"})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	chapter := types.Chapter{
		ClubID:    req.ClubID,
		NodeID:    req.NodeID,
		Name:      req.Name,
		About:     req.About,
		IsPublic:  isPublic,
		CreatedBy: uid,
	}

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(&chapter).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := forum.AddMember(tx, forum.Forum{Type: forum.Chapter, ID: chapter.ID}, uid, forum.RoleOwner); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, chapter)
}

// brandingUpdates collects the optional logo and bannerImage parts and stores
// them, returning the column updates for whichever were sent.
func (f Forums) brandingUpdates(c *gin.Context, prefix string) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if fh, err := c.FormFile("logo"); err == nil {
		obj, err := uploadImage(c, f.store, prefix, fh)
		if err != nil {
			return nil, err
		}
		updates["profile_image"] = obj.URL
	}
	if fh, err := c.FormFile("bannerImage"); err == nil {
		obj, err := uploadImage(c, f.store, prefix, fh)
		if err != nil {
			return nil, err
		}
		updates["cover_image"] = obj.URL
	}
	return updates, nil
}

// UpdateClubImages replaces the club's logo and banner. Privileged members
// only.
func (f Forums) UpdateClubImages(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid club id"})
		return
	}
	var club types.Club
	if err := f.db.First(&club, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "club not found"})
		return
	}

	uid := currentUserID(c)
	role, isMember, err := forum.Membership(f.db, forum.Forum{Type: forum.Club, ID: club.ID}, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if !isMember || !role.Privileged() {
		c.JSON(http.StatusForbidden, gin.H{"err": "only privileged members can change club images"})
		return
	}

	updates, err := f.brandingUpdates(c, fmt.Sprintf("clubs/%d", club.ID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "logo or bannerImage file required"})
		return
	}
	if err := f.db.Model(&club).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, club)
}

// UpdateNodeImages is the node counterpart of UpdateClubImages.
func (f Forums) UpdateNodeImages(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid node id"})
		return
	}
	var node types.Node
	if err := f.db.First(&node, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "node not found"})
		return
	}

	uid := currentUserID(c)
	role, isMember, err := forum.Membership(f.db, forum.Forum{Type: forum.Node, ID: node.ID}, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if !isMember || !role.Privileged() {
		c.JSON(http.StatusForbidden, gin.H{"err": "only privileged members can change node images"})
		return
	}

	updates, err := f.brandingUpdates(c, fmt.Sprintf("nodes/%d", node.ID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "logo or bannerImage file required"})
		return
	}
	if err := f.db.Model(&node).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, node)
}
