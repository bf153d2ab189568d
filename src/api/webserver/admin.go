package webserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/moderation"
	"github.com/clubwize/backend/src/api/plugin"
	"github.com/clubwize/backend/src/api/types"
)

type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) Admin { return Admin{db: db} }

// reportView substitutes the stored asset id with the resolved document.
type reportView struct {
	types.Report
	Asset interface{} `json:"asset"`
}

func (a Admin) ListReports(c *gin.Context) {
	q := a.db.Model(&types.Report{})
	if status := c.Query("status"); status != "" {
		if !knownReportStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"err": "unknown status"})
			return
		}
		q = q.Where("status = ?", status)
	}
	if at := c.Query("assetType"); at != "" {
		if !moderation.KnownAssetType(at) {
			c.JSON(http.StatusBadRequest, gin.H{"err": "unknown asset type"})
			return
		}
		q = q.Where("asset_type = ?", at)
	}

	var reports []types.Report
	if err := q.Order("created_at desc").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	views := make([]reportView, 0, len(reports))
	for _, r := range reports {
		doc, err := moderation.ResolveAsset(a.db, r.AssetType, r.AssetID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
		views = append(views, reportView{Report: r, Asset: doc})
	}

	c.JSON(http.StatusOK, gin.H{"reports": views})
}

func (a Admin) GetReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid report id"})
		return
	}

	var report types.Report
	if err := a.db.First(&report, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "report not found"})
		return
	}

	doc, err := moderation.ResolveAsset(a.db, report.AssetType, report.AssetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, reportView{Report: report, Asset: doc})
}

// UpdateReportStatus writes any known status. There is deliberately no
// transition guard; admins can move a report back to pending.
func (a Admin) UpdateReportStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid report id"})
		return
	}
	var req struct {
		Status      string `json:"status" binding:"required"`
		ReviewNotes string `json:"reviewNotes" binding:"max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if !knownReportStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown status"})
		return
	}

	var report types.Report
	if err := a.db.First(&report, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "report not found"})
		return
	}

	uid := currentUserID(c)
	now := time.Now()
	updates := map[string]interface{}{
		"status":       req.Status,
		"reviewed_by":  uid,
		"review_notes": req.ReviewNotes,
		"reviewed_at":  now,
	}
	if err := a.db.Model(&types.Report{}).Where("id = ?", report.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("admin %d set report %d to %s", uid, report.ID, req.Status)
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (a Admin) ListUsers(c *gin.Context) {
	var users []types.User
	if err := a.db.Order("id asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a Admin) UpdateUserStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid user id"})
		return
	}
	var req struct {
		Blocked *bool `json:"blocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if err := a.db.First(&types.User{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	if err := a.db.Model(&types.User{}).Where("id = ?", id).
		Update("is_blocked", *req.Blocked).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("admin %d set user %d blocked=%v", currentUserID(c), id, *req.Blocked)
	c.JSON(http.StatusOK, gin.H{"blocked": *req.Blocked})
}

type pluginRequest struct {
	Name        string          `json:"name" binding:"required,min=2,max=128"`
	Description string          `json:"description" binding:"max=512"`
	Fields      json.RawMessage `json:"fields" binding:"required"`
}

func (a Admin) CreatePlugin(c *gin.Context) {
	var req pluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if _, err := plugin.ParseFields(string(req.Fields)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var existing types.StandardPlugin
	if err := a.db.First(&existing, "name = ?", req.Name).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"err": "a plugin with this name already exists"})
		return
	}

	p := types.StandardPlugin{
		Name:        req.Name,
		Description: req.Description,
		Fields:      string(req.Fields),
		CreatedBy:   currentUserID(c),
	}
	if err := a.db.Create(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (a Admin) ListPlugins(c *gin.Context) {
	var plugins []types.StandardPlugin
	if err := a.db.Order("id asc").Find(&plugins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plugins": plugins})
}

func (a Admin) GetPlugin(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid plugin id"})
		return
	}
	var p types.StandardPlugin
	if err := a.db.First(&p, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "plugin not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a Admin) UpdatePlugin(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid plugin id"})
		return
	}
	var req pluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if _, err := plugin.ParseFields(string(req.Fields)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var p types.StandardPlugin
	if err := a.db.First(&p, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "plugin not found"})
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"fields":      string(req.Fields),
	}
	if err := a.db.Model(&types.StandardPlugin{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	a.db.First(&p, "id = ?", p.ID)
	c.JSON(http.StatusOK, p)
}

func (a Admin) DeletePlugin(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid plugin id"})
		return
	}
	if err := a.db.First(&types.StandardPlugin{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "plugin not found"})
		return
	}

	var assets int64
	a.db.Model(&types.StandardAsset{}).Where("plugin_id = ?", id).Count(&assets)
	if assets > 0 {
		c.JSON(http.StatusConflict, gin.H{"err": "plugin has assets; delete them first"})
		return
	}

	if err := a.db.Delete(&types.StandardPlugin{}, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateStandardAsset validates the payload against the plugin's stored
// field schema at runtime.
func (a Admin) CreateStandardAsset(c *gin.Context) {
	var req struct {
		PluginID  uint64                 `json:"pluginId" binding:"required"`
		Data      map[string]interface{} `json:"data" binding:"required"`
		ClubID    *uint64                `json:"clubId"`
		NodeID    *uint64                `json:"nodeId"`
		ChapterID *uint64                `json:"chapterId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	// A standard asset is either global or scoped to a single forum.
	if req.ClubID != nil || req.NodeID != nil || req.ChapterID != nil {
		target, err := forum.New(req.ClubID, req.NodeID, req.ChapterID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
			return
		}
		ok, err := forum.Exists(a.db, target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"err": "forum not found"})
			return
		}
		req.ClubID, req.NodeID, req.ChapterID = target.Columns()
	}

	var p types.StandardPlugin
	if err := a.db.First(&p, "id = ?", req.PluginID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "plugin not found"})
		return
	}
	fields, err := plugin.ParseFields(p.Fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := fields.Validate(req.Data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	raw, err := json.Marshal(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	asset := types.StandardAsset{
		PluginID:  p.ID,
		Data:      string(raw),
		ClubID:    req.ClubID,
		NodeID:    req.NodeID,
		ChapterID: req.ChapterID,
		CreatedBy: currentUserID(c),
	}
	if err := a.db.Create(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, asset)
}
