package webserver

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubwize/backend/src/api/types"
)

// seedInviteClub creates a club owned by owner and returns (ownerID, inviteeID, clubID).
func seedInviteClub(t *testing.T, env *testEnv, public bool) (uint64, uint64, uint64) {
	t.Helper()
	ownerID := env.newUser(t, "owner", "owner@example.com", "pw-owner-123")
	inviteeID := env.newUser(t, "guest", "guest@example.com", "pw-guest-123")

	club := types.Club{Name: "chess", IsPublic: public, CreatedBy: ownerID}
	require.NoError(t, env.db.Create(&club).Error)
	require.NoError(t, env.db.Create(&types.ClubMember{
		ClubID: club.ID, UserID: ownerID, Role: "owner", Status: "active",
	}).Error)
	return ownerID, inviteeID, club.ID
}

func TestInvitationAcceptPublicClub(t *testing.T) {
	env := newTestEnv(t)
	ownerID, inviteeID, clubID := seedInviteClub(t, env, true)
	ownerTok := env.token(t, ownerID, "owner@example.com")
	guestTok := env.token(t, inviteeID, "guest@example.com")

	w := env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"clubId": clubID, "userId": inviteeID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invID := uint64(decodeBody(t, w)["id"].(float64))

	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/invitations/%d/accept", invID), guestTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "joined", decodeBody(t, w)["status"])

	var m types.ClubMember
	require.NoError(t, env.db.First(&m, "club_id = ? AND user_id = ?", clubID, inviteeID).Error)
	assert.Equal(t, "member", m.Role)

	// The invitation is consumed.
	var count int64
	env.db.Model(&types.Invitation{}).Where("id = ?", invID).Count(&count)
	assert.Zero(t, count)
}

func TestInvitationAcceptPrivateClubCreatesJoinRequest(t *testing.T) {
	env := newTestEnv(t)
	ownerID, inviteeID, clubID := seedInviteClub(t, env, false)
	ownerTok := env.token(t, ownerID, "owner@example.com")
	guestTok := env.token(t, inviteeID, "guest@example.com")

	w := env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"clubId": clubID, "userId": inviteeID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	invID := uint64(decodeBody(t, w)["id"].(float64))

	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/invitations/%d/accept", invID), guestTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "requested", decodeBody(t, w)["status"])

	// No membership yet, only a pending join request.
	var members int64
	env.db.Model(&types.ClubMember{}).Where("club_id = ? AND user_id = ?", clubID, inviteeID).Count(&members)
	assert.Zero(t, members)
	var jr types.JoinRequest
	require.NoError(t, env.db.First(&jr, "club_id = ? AND user_id = ?", clubID, inviteeID).Error)
	assert.Equal(t, "pending", jr.Status)
}

func TestInvitationExpired(t *testing.T) {
	env := newTestEnv(t)
	ownerID, inviteeID, clubID := seedInviteClub(t, env, true)
	guestTok := env.token(t, inviteeID, "guest@example.com")

	inv := types.Invitation{
		ClubID:    &clubID,
		UserID:    inviteeID,
		InvitedBy: ownerID,
		Status:    "pending",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.db.Create(&inv).Error)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/invitations/%d/accept", inv.ID), guestTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// No membership was created.
	var members int64
	env.db.Model(&types.ClubMember{}).Where("club_id = ? AND user_id = ?", clubID, inviteeID).Count(&members)
	assert.Zero(t, members)
}

func TestInvitationCreateGuards(t *testing.T) {
	env := newTestEnv(t)
	ownerID, inviteeID, clubID := seedInviteClub(t, env, true)
	ownerTok := env.token(t, ownerID, "owner@example.com")
	guestTok := env.token(t, inviteeID, "guest@example.com")

	// A non-member cannot invite.
	w := env.do(t, http.MethodPost, "/v1/invitations", guestTok, gin.H{
		"clubId": clubID, "userId": ownerID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown invitee.
	w = env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"clubId": clubID, "userId": 9999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Invitee already a member.
	w = env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"clubId": clubID, "userId": ownerID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Exactly one forum id must be set.
	w = env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"userId": inviteeID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// One pending invitation per forum and user.
	w = env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"clubId": clubID, "userId": inviteeID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"clubId": clubID, "userId": inviteeID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInvitationBelongsToInvitee(t *testing.T) {
	env := newTestEnv(t)
	ownerID, inviteeID, clubID := seedInviteClub(t, env, true)
	ownerTok := env.token(t, ownerID, "owner@example.com")

	w := env.do(t, http.MethodPost, "/v1/invitations", ownerTok, gin.H{
		"clubId": clubID, "userId": inviteeID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	invID := uint64(decodeBody(t, w)["id"].(float64))

	// The inviter cannot accept on the invitee's behalf.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/invitations/%d/accept", invID), ownerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
