package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/adoption"
	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/leaderboard"
	"github.com/clubwize/backend/src/api/logger"
)

type Adoptions struct {
	db  *gorm.DB
	svc *adoption.Service
}

func NewAdoptions(db *gorm.DB) Adoptions {
	return Adoptions{db: db, svc: adoption.NewService(db)}
}

func adoptionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, adoption.ErrAssetNotFound),
		errors.Is(err, adoption.ErrForumNotFound),
		errors.Is(err, adoption.ErrAdoptionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, adoption.ErrNotMember):
		return http.StatusNotAcceptable, err.Error()
	case errors.Is(err, adoption.ErrNotPrivileged):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, adoption.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, adoption.ErrNotProposed),
		errors.Is(err, adoption.ErrOriginRecord),
		errors.Is(err, adoption.ErrUnknownAction):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

type proposeRequest struct {
	ClubID    *uint64 `json:"clubId"`
	NodeID    *uint64 `json:"nodeId"`
	ChapterID *uint64 `json:"chapterId"`
	Message   string  `json:"proposalMessage" binding:"max=512"`
}

func (h Adoptions) propose(c *gin.Context, kind adoption.Kind, assetID uint64, req proposeRequest) {
	target, err := forum.New(req.ClubID, req.NodeID, req.ChapterID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUserID(c)
	rec, err := h.svc.Propose(uid, adoption.Asset{Kind: kind, ID: assetID}, target, req.Message)
	if err != nil {
		code, msg := adoptionStatus(err)
		c.JSON(code, gin.H{"err": msg})
		return
	}

	logger.S().Infof("%s %d proposed to %s %d by user %d (status %s)",
		kind, assetID, target.Type, target.ID, uid, rec.Status)
	c.JSON(http.StatusCreated, rec)
}

func (h Adoptions) ProposeRule(c *gin.Context) {
	var req struct {
		RuleID uint64 `json:"rulesId" binding:"required"`
		proposeRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	h.propose(c, adoption.KindRules, req.RuleID, req.proposeRequest)
}

func (h Adoptions) AdoptProject(c *gin.Context) {
	var req struct {
		ProjectID uint64 `json:"projectId" binding:"required"`
		proposeRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	h.propose(c, adoption.KindProject, req.ProjectID, req.proposeRequest)
}

type decideRequest struct {
	AdoptionID uint64 `json:"adoptionId" binding:"required"`
	Decision   string `json:"decision" binding:"required,oneof=accept reject"`
}

func (h Adoptions) decide(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := currentUserID(c)
	rec, err := h.svc.Decide(uid, req.AdoptionID, req.Decision == "accept")
	if err != nil {
		code, msg := adoptionStatus(err)
		c.JSON(code, gin.H{"err": msg})
		return
	}

	if rec == nil {
		logger.S().Infof("adoption %d rejected by user %d", req.AdoptionID, uid)
		c.JSON(http.StatusOK, gin.H{"status": "rejected"})
		return
	}
	logger.S().Infof("adoption %d accepted by user %d", req.AdoptionID, uid)
	c.JSON(http.StatusOK, rec)
}

func (h Adoptions) DecideRule(c *gin.Context)    { h.decide(c) }
func (h Adoptions) DecideProject(c *gin.Context) { h.decide(c) }

func (h Adoptions) RemoveRule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("adoptionId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid adoption id"})
		return
	}
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	rec, err := h.svc.Remove(id, req.Action)
	if err != nil {
		code, msg := adoptionStatus(err)
		c.JSON(code, gin.H{"err": msg})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h Adoptions) Leaderboard(c *gin.Context) {
	rootProject, err := strconv.ParseUint(c.Query("rootProject"), 10, 64)
	if err != nil || rootProject == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "rootProject is required"})
		return
	}

	switch c.DefaultQuery("by", "member") {
	case "member":
		entries, err := leaderboard.MemberWise(h.db, rootProject)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"memberWise": entries})
	case "forum":
		entries, err := leaderboard.ForumWise(h.db, rootProject)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"forumWise": entries})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"err": "by must be member or forum"})
	}
}
