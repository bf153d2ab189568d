package webserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/config"
	"github.com/clubwize/backend/src/api/forum"
	"github.com/clubwize/backend/src/api/logger"
	"github.com/clubwize/backend/src/api/mail"
	"github.com/clubwize/backend/src/api/types"
)

const invitationTTL = 24 * time.Hour

type Invitations struct {
	db     *gorm.DB
	mailer mail.Service
	cfg    config.Config
}

func NewInvitations(db *gorm.DB, mailer mail.Service, cfg config.Config) Invitations {
	return Invitations{db: db, mailer: mailer, cfg: cfg}
}

func (h Invitations) Create(c *gin.Context) {
	var req struct {
		ClubID    *uint64 `json:"clubId"`
		NodeID    *uint64 `json:"nodeId"`
		ChapterID *uint64 `json:"chapterId"`
		UserID    uint64  `json:"userId" binding:"required"`
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
	role, isMember, err := forum.Membership(h.db, target, uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if !isMember || !role.Privileged() {
		c.JSON(http.StatusForbidden, gin.H{"err": "inviter must be an admin of the forum"})
		return
	}

	var invitee types.User
	if err := h.db.First(&invitee, "id = ?", req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	if _, already, _ := forum.Membership(h.db, target, req.UserID); already {
		c.JSON(http.StatusConflict, gin.H{"err": "user is already a member"})
		return
	}

	// One pending invitation per (forum, user).
	var pending int64
	q := h.db.Model(&types.Invitation{}).Where("user_id = ? AND status = ?", req.UserID, "pending")
	switch target.Type {
	case forum.Club:
		q = q.Where("club_id = ?", target.ID)
	case forum.Node:
		q = q.Where("node_id = ?", target.ID)
	case forum.Chapter:
		q = q.Where("chapter_id = ?", target.ID)
	}
	q.Count(&pending)
	if pending > 0 {
		c.JSON(http.StatusConflict, gin.H{"err": "invitation already pending"})
		return
	}

	inv := types.Invitation{
		UserID:    req.UserID,
		InvitedBy: uid,
		Status:    "pending",
		ExpiresAt: time.Now().Add(invitationTTL),
	}
	inv.ClubID, inv.NodeID, inv.ChapterID = target.Columns()

	if err := h.db.Create(&inv).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	link := fmt.Sprintf("%s/invitations/%d", h.cfg.UIBaseURL, inv.ID)
	if err := h.mailer.Send(c, mail.Message{
		ToName:  invitee.FirstName,
		ToEmail: invitee.Email,
		Subject: "You have been invited on Clubwize",
		Body:    fmt.Sprintf("You were invited to join a %s. Respond within 24 hours: %s", target.Type, link),
	}); err != nil {
		logger.S().Errorf("failed to send invitation %d: %v", inv.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"id": inv.ID, "expiresAt": inv.ExpiresAt})
}

func (h Invitations) load(c *gin.Context) (*types.Invitation, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid invitation id"})
		return nil, false
	}
	var inv types.Invitation
	if err := h.db.First(&inv, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "invitation not found"})
		return nil, false
	}
	if inv.UserID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"err": "invitation belongs to another user"})
		return nil, false
	}
	return &inv, true
}

// Accept converts the invitation into a membership (public forum) or a join
// request (private forum), then deletes it. Both writes share a transaction.
func (h Invitations) Accept(c *gin.Context) {
	inv, ok := h.load(c)
	if !ok {
		return
	}
	if time.Now().After(inv.ExpiresAt) {
		c.JSON(http.StatusForbidden, gin.H{"err": "invitation expired"})
		return
	}

	target, err := forum.New(inv.ClubID, inv.NodeID, inv.ChapterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	isPublic, err := forum.IsPublic(h.db, target)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "forum not found"})
		return
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if isPublic {
		if err := forum.AddMember(tx, target, inv.UserID, forum.RoleMember); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	} else {
		jr := types.JoinRequest{UserID: inv.UserID}
		jr.ClubID, jr.NodeID, jr.ChapterID = target.Columns()
		if err := tx.Create(&jr).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
			return
		}
	}
	if err := tx.Delete(&types.Invitation{}, "id = ?", inv.ID).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	status := "joined"
	if !isPublic {
		status = "requested"
	}
	logger.S().Infof("invitation %d accepted by user %d (%s)", inv.ID, inv.UserID, status)
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h Invitations) Reject(c *gin.Context) {
	inv, ok := h.load(c)
	if !ok {
		return
	}
	if err := h.db.Delete(&types.Invitation{}, "id = ?", inv.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}
