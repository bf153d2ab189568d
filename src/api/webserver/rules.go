package webserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/adoption"
	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/storage"
	"github.com/clubwize/backend/src/api/types"
)

type Rules struct {
	db        *gorm.DB
	store     storage.Service
	sanitizer *bluemonday.Policy
}

func NewRules(db *gorm.DB, store storage.Service) Rules {
	// Strict policy with the handful of markdown elements the editor emits.
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	sanitizer.AllowElements("ul", "ol", "li")
	sanitizer.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.RequireNoFollowOnLinks(true)

	return Rules{db: db, store: store, sanitizer: sanitizer}
}

type ruleForm struct {
	Title        string  `form:"title" binding:"required,max=255"`
	Description  string  `form:"description" binding:"required,max=10000"`
	Category     string  `form:"category" binding:"max=64"`
	Significance string  `form:"significance" binding:"max=64"`
	Tags         string  `form:"tags" binding:"max=512"`
	ClubID       *uint64 `form:"clubId"`
	NodeID       *uint64 `form:"nodeId"`
	ChapterID    *uint64 `form:"chapterId"`
}

func (h Rules) create(c *gin.Context, publish bool) {
	var req ruleForm
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	home, err := forum.New(req.ClubID, req.NodeID, req.ChapterID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUserID(c)
	role, isMember, err := forum.Membership(h.db, home, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if !isMember {
		c.JSON(http.StatusNotAcceptable, gin.H{"err": "not a member of the forum"})
		return
	}
	if publish && !role.Privileged() {
		c.JSON(http.StatusForbidden, gin.H{"err": "publishing requires an admin role"})
		return
	}

	rule := types.RulesRegulations{
		Title:        req.Title,
		Description:  h.sanitizer.Sanitize(req.Description),
		Category:     req.Category,
		Significance: req.Significance,
		Tags:         req.Tags,
		CreatedBy:    uid,
		Status:       "draft",
	}
	rule.ClubID, rule.NodeID, rule.ChapterID = home.Columns()
	if publish {
		now := time.Now()
		rule.Status = "published"
		rule.PublishedBy = &uid
		rule.PublishedAt = &now
	}

	var files []storage.Object
	var names []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		fhs := form.File["file"]
		files, err = uploadBatch(c, h.store, "rules", fhs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
			return
		}
		for _, fh := range fhs {
			names = append(names, fh.Filename)
		}
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Create(&rule).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	for i, obj := range files {
		rf := types.RuleFile{
			RuleID:   rule.ID,
			URL:      obj.URL,
			Name:     names[i],
			MimeType: obj.ContentType,
			Size:     obj.Size,
		}
		if err := tx.Create(&rf).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}
	if publish {
		if err := adoption.RecordOrigin(tx, adoption.Asset{Kind: adoption.KindRules, ID: rule.ID}, home, uid); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("rule %d created (publish=%v) by user %d", rule.ID, publish, uid)
	c.JSON(http.StatusCreated, rule)
}

func (h Rules) Create(c *gin.Context)      { h.create(c, true) }
func (h Rules) CreateDraft(c *gin.Context) { h.create(c, false) }

func (h Rules) Update(c *gin.Context) {
	var req struct {
		ID           uint64 `json:"id" binding:"required"`
		Title        string `json:"title" binding:"max=255"`
		Description  string `json:"description" binding:"max=10000"`
		Category     string `json:"category" binding:"max=64"`
		Significance string `json:"significance" binding:"max=64"`
		Tags         string `json:"tags" binding:"max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var rule types.RulesRegulations
	if err := h.db.First(&rule, "id = ?", req.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "rule not found"})
		return
	}

	uid := currentUserID(c)
	home, err := forum.New(rule.ClubID, rule.NodeID, rule.ChapterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	role, isMember, err := forum.Membership(h.db, home, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if rule.CreatedBy != uid && (!isMember || !role.Privileged()) {
		c.JSON(http.StatusForbidden, gin.H{"err": "not allowed to edit this rule"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = h.sanitizer.Sanitize(req.Description)
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Significance != "" {
		updates["significance"] = req.Significance
	}
	if req.Tags != "" {
		updates["tags"] = req.Tags
	}
	// Published rules are versioned on every edit.
	if rule.Status == "published" {
		updates["version"] = gorm.Expr("version + 1")
	}

	if err := h.db.Model(&types.RulesRegulations{}).Where("id = ?", rule.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	h.db.First(&rule, "id = ?", rule.ID)
	c.JSON(http.StatusOK, rule)
}

func (h Rules) List(c *gin.Context) {
	f, ok := forumFromQuery(c)
	if !ok {
		return
	}

	status := c.DefaultQuery("status", "published")

	// Rules owned by the forum.
	var owned []types.RulesRegulations
	q := h.db.Model(&types.RulesRegulations{}).Where("status = ?", status)
	switch f.Type {
	case forum.Club:
		q = q.Where("club_id = ?", f.ID)
	case forum.Node:
		q = q.Where("node_id = ?", f.ID)
	case forum.Chapter:
		q = q.Where("chapter_id = ?", f.ID)
	}
	if err := q.Order("created_at desc").Find(&owned).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	// Rules adopted into the forum from elsewhere.
	var adoptions []types.Adoption
	aq := h.db.Model(&types.Adoption{}).
		Where("asset_kind = ? AND status = ? AND removed = ? AND is_origin = ?",
			string(adoption.KindRules), adoption.StatusPublished, false, false)
	switch f.Type {
	case forum.Club:
		aq = aq.Where("club_id = ?", f.ID)
	case forum.Node:
		aq = aq.Where("node_id = ?", f.ID)
	case forum.Chapter:
		aq = aq.Where("chapter_id = ?", f.ID)
	}
	if err := aq.Find(&adoptions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	var adopted []types.RulesRegulations
	if len(adoptions) > 0 {
		ids := make([]uint64, 0, len(adoptions))
		for _, a := range adoptions {
			if a.RuleID != nil {
				ids = append(ids, *a.RuleID)
			}
		}
		if err := h.db.Where("id IN ?", ids).Find(&adopted).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"rules": owned, "adopted": adopted})
}

func (h Rules) Detail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid rule id"})
		return
	}

	var rule types.RulesRegulations
	if err := h.db.First(&rule, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "rule not found"})
		return
	}

	// Every detail read is a view.
	h.db.Create(&types.RuleView{RuleID: rule.ID, UserID: currentUserID(c)})

	var files []types.RuleFile
	if err := h.db.Where("rule_id = ?", rule.ID).Find(&files).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	var likes, views int64
	if err := h.db.Model(&types.RuleLike{}).Where("rule_id = ?", rule.ID).Count(&likes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := h.db.Model(&types.RuleView{}).Where("rule_id = ?", rule.ID).Count(&views).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule, "files": files, "likes": likes, "views": views})
}

func (h Rules) Like(c *gin.Context) {
	var req struct {
		RuleID uint64 `json:"rulesId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if err := h.db.First(&types.RulesRegulations{}, "id = ?", req.RuleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "rule not found"})
		return
	}

	uid := currentUserID(c)
	var existing types.RuleLike
	err := h.db.First(&existing, "rule_id = ? AND user_id = ?", req.RuleID, uid).Error
	switch {
	case err == nil:
		h.db.Delete(&types.RuleLike{}, "id = ?", existing.ID)
		c.JSON(http.StatusOK, gin.H{"liked": false})
	case errors.Is(err, gorm.ErrRecordNotFound):
		h.db.Create(&types.RuleLike{RuleID: req.RuleID, UserID: uid})
		c.JSON(http.StatusOK, gin.H{"liked": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
	}
}

func (h Rules) Archive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("rulesId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid rule id"})
		return
	}

	var rule types.RulesRegulations
	if err := h.db.First(&rule, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "rule not found"})
		return
	}

	uid := currentUserID(c)
	home, err := forum.New(rule.ClubID, rule.NodeID, rule.ChapterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	role, isMember, err := forum.Membership(h.db, home, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if !isMember || !role.Privileged() {
		c.JSON(http.StatusForbidden, gin.H{"err": "archiving requires an admin role"})
		return
	}

	if err := h.db.Model(&types.RulesRegulations{}).Where("id = ?", rule.ID).
		Update("status", "archived").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

// forumFromQuery reads the clubId/nodeId/chapterId query params into a Forum.
func forumFromQuery(c *gin.Context) (forum.Forum, bool) {
	parse := func(name string) *uint64 {
		s := c.Query(name)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil
		}
		return &v
	}
	f, err := forum.New(parse("clubId"), parse("nodeId"), parse("chapterId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return forum.Forum{}, false
	}
	return f, true
}
