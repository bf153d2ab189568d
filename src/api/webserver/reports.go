package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/types"
)

type Reports struct {
	db *gorm.DB
}

func NewReports(db *gorm.DB) Reports { return Reports{db: db} }

// Create stores the report with an opaque (assetType, assetId) pair. The id
// is not checked against the asset collection; resolution happens on the
// admin listing path.
func (h Reports) Create(c *gin.Context) {
	var req struct {
		AssetType   string `json:"assetType" binding:"required,oneof=rules debate issues projects standard"`
		AssetID     uint64 `json:"assetId" binding:"required"`
		ReasonID    uint64 `json:"reasonId" binding:"required"`
		Description string `json:"description" binding:"max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	// The reason must exist; the asset may not.
	if err := h.db.First(&types.ReportReason{}, "id = ?", req.ReasonID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown report reason"})
		return
	}

	report := types.Report{
		AssetType:   req.AssetType,
		AssetID:     req.AssetID,
		ReasonID:    req.ReasonID,
		ReporterID:  currentUserID(c),
		Description: req.Description,
		Status:      "pending",
	}
	if err := h.db.Create(&report).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	logger.S().Infof("report %d filed against %s %d", report.ID, req.AssetType, req.AssetID)
	c.JSON(http.StatusCreated, gin.H{"id": report.ID})
}

func (h Reports) Reasons(c *gin.Context) {
	var reasons []types.ReportReason
	if err := h.db.Order("id asc").Find(&reasons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reasons": reasons})
}

// knownReportStatus mirrors the admin-writable status set.
func knownReportStatus(s string) bool {
	switch s {
	case "pending", "under_review", "resolved", "rejected":
		return true
	}
	return false
}
