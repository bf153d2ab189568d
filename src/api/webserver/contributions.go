package webserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/adoption"
	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/storage"
	"github.com/clubwize/backend/src/api/types"
)

type Contributions struct {
	db    *gorm.DB
	store storage.Service
}

func NewContributions(db *gorm.DB, store storage.Service) Contributions {
	return Contributions{db: db, store: store}
}

type projectForm struct {
	Title            string   `form:"title" binding:"required,max=255"`
	Significance     string   `form:"significance" binding:"max=10000"`
	SolutionApproach string   `form:"solutionApproach" binding:"max=10000"`
	Deadline         string   `form:"deadline"` // RFC 3339, optional
	ClubID           *uint64  `form:"clubId"`
	NodeID           *uint64  `form:"nodeId"`
	ChapterID        *uint64  `form:"chapterId"`
	Parameters       []string `form:"parameters"` // "title|unit" pairs
}

func (h Contributions) createProject(c *gin.Context, publish bool) {
	var req projectForm
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

	proj := types.Project{
		Title:            req.Title,
		Significance:     req.Significance,
		SolutionApproach: req.SolutionApproach,
		CreatedBy:        uid,
		Status:           "draft",
	}
	proj.ClubID, proj.NodeID, proj.ChapterID = home.Columns()
	if req.Deadline != "" {
		d, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": "deadline must be RFC 3339"})
			return
		}
		proj.Deadline = &d
	}
	if publish {
		now := time.Now()
		proj.Status = "published"
		proj.PublishedBy = &uid
		proj.PublishedAt = &now
	}

	var files []storage.Object
	var names []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		fhs := form.File["file"]
		files, err = uploadBatch(c, h.store, "projects", fhs)
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
	if err := tx.Create(&proj).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	// A fresh project is its own root.
	if err := tx.Model(&types.Project{}).Where("id = ?", proj.ID).
		Update("root_project_id", proj.ID).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	proj.RootProjectID = proj.ID

	for _, p := range req.Parameters {
		title, unit := splitParameter(p)
		if title == "" {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"err": "parameter title cannot be empty"})
			return
		}
		if err := tx.Create(&types.ProjectParameter{ProjectID: proj.ID, Title: title, Unit: unit}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}
	for i, obj := range files {
		pf := types.ProjectFile{
			ProjectID: proj.ID,
			URL:       obj.URL,
			Name:      names[i],
			MimeType:  obj.ContentType,
			Size:      obj.Size,
		}
		if err := tx.Create(&pf).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}
	if publish {
		if err := adoption.RecordOrigin(tx, adoption.Asset{Kind: adoption.KindProject, ID: proj.ID}, home, uid); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("project %d created (publish=%v) by user %d", proj.ID, publish, uid)
	c.JSON(http.StatusCreated, proj)
}

func splitParameter(s string) (title, unit string) {
	title, unit, _ = strings.Cut(s, "|")
	return title, unit
}

func (h Contributions) CreateProject(c *gin.Context)      { h.createProject(c, true) }
func (h Contributions) CreateProjectDraft(c *gin.Context) { h.createProject(c, false) }

// Create records a contribution. Contributions by the project creator are
// accepted on the spot; everyone else waits for review.
func (h Contributions) Create(c *gin.Context) {
	var req struct {
		ProjectID   uint64  `form:"projectId" binding:"required"`
		ParameterID uint64  `form:"parameterId" binding:"required"`
		Value       float64 `form:"value" binding:"required"`
		ClubID      *uint64 `form:"clubId"`
		NodeID      *uint64 `form:"nodeId"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	target, err := forum.New(req.ClubID, req.NodeID, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "exactly one of clubId or nodeId must be set"})
		return
	}

	var proj types.Project
	if err := h.db.First(&proj, "id = ?", req.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "project not found"})
		return
	}
	var param types.ProjectParameter
	if err := h.db.First(&param, "id = ? AND project_id = ?", req.ParameterID, proj.RootProjectID).Error; err != nil {
		// Adopted copies measure against the root project's parameters.
		if err := h.db.First(&param, "id = ? AND project_id = ?", req.ParameterID, proj.ID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"err": "parameter not found"})
			return
		}
	}

	uid := currentUserID(c)
	if _, isMember, err := forum.Membership(h.db, target, uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	} else if !isMember {
		c.JSON(http.StatusNotAcceptable, gin.H{"err": "not a member of the forum"})
		return
	}

	status := "pending"
	if proj.CreatedBy == uid {
		status = "accepted"
	}

	contrib := types.Contribution{
		ProjectID:     proj.ID,
		RootProjectID: proj.RootProjectID,
		ParameterID:   req.ParameterID,
		UserID:        uid,
		Value:         req.Value,
		Status:        status,
	}
	if target.Type == forum.Club {
		contrib.ClubID = &target.ID
	} else {
		contrib.NodeID = &target.ID
	}

	var files []storage.Object
	var names []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		fhs := form.File["file"]
		files, err = uploadBatch(c, h.store, "contributions", fhs)
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
	if err := tx.Create(&contrib).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	for i, obj := range files {
		cf := types.ContributionFile{
			ContributionID: contrib.ID,
			URL:            obj.URL,
			Name:           names[i],
			MimeType:       obj.ContentType,
			Size:           obj.Size,
		}
		if err := tx.Create(&cf).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}
	activity := types.Activity{
		ContributionID: contrib.ID,
		ProjectID:      proj.ID,
		AuthorID:       uid,
		Message:        fmt.Sprintf("contributed %g to %s", req.Value, param.Title),
	}
	if err := tx.Create(&activity).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, contrib)
}

// Decide resolves a pending contribution. Only the project creator or a
// privileged member of the project's home forum may decide.
func (h Contributions) Decide(c *gin.Context) {
	var req struct {
		ContributionID uint64 `json:"contributionId" binding:"required"`
		Decision       string `json:"decision" binding:"required,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var contrib types.Contribution
	if err := h.db.First(&contrib, "id = ?", req.ContributionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "contribution not found"})
		return
	}
	if contrib.Status != "pending" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "contribution already decided"})
		return
	}

	var proj types.Project
	if err := h.db.First(&proj, "id = ?", contrib.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "project not found"})
		return
	}

	uid := currentUserID(c)
	if proj.CreatedBy != uid {
		home, err := forum.New(proj.ClubID, proj.NodeID, proj.ChapterID)
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
			c.JSON(http.StatusForbidden, gin.H{"err": "not allowed to review contributions"})
			return
		}
	}

	status := "accepted"
	if req.Decision == "reject" {
		status = "rejected"
	}
	if err := h.db.Model(&types.Contribution{}).Where("id = ?", contrib.ID).
		Updates(map[string]interface{}{"status": status, "reviewed_by": uid}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("contribution %d %s by user %d", contrib.ID, status, uid)
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Activities rebuilds a project's timeline from its activity log.
func (h Contributions) Activities(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid project id"})
		return
	}
	if err := h.db.First(&types.Project{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "project not found"})
		return
	}

	var activities []types.Activity
	h.db.Where("project_id = ?", id).Order("created_at asc").Find(&activities)
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}
