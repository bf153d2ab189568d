package webserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubwize/backend/src/api/types"
)

func seedImageClub(t *testing.T, env *testEnv) (ownerID, memberID, clubID uint64) {
	t.Helper()
	ownerID = env.newUser(t, "brander", "brander@example.com", "pw-brand-123")
	memberID = env.newUser(t, "plain", "plain@example.com", "pw-plain-123")
	club := types.Club{Name: "branded", IsPublic: true, CreatedBy: ownerID}
	require.NoError(t, env.db.Create(&club).Error)
	for _, m := range []types.ClubMember{
		{ClubID: club.ID, UserID: ownerID, Role: "owner", Status: "active"},
		{ClubID: club.ID, UserID: memberID, Role: "member", Status: "active"},
	} {
		require.NoError(t, env.db.Create(&m).Error)
	}
	return ownerID, memberID, club.ID
}

func TestClubImageUpload(t *testing.T) {
	env := newTestEnv(t)
	ownerID, _, clubID := seedImageClub(t, env)
	tok := env.token(t, ownerID, "brander@example.com")
	path := fmt.Sprintf("/v1/clubs/%d/images", clubID)

	w := env.doMultipart(t, http.MethodPut, path, tok, []filePart{
		{field: "logo", name: "logo.png", contentType: "image/png", content: "png-bytes"},
		{field: "bannerImage", name: "banner.jpg", contentType: "image/jpeg", content: "jpg-bytes"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var club types.Club
	require.NoError(t, env.db.First(&club, "id = ?", clubID).Error)
	assert.NotEmpty(t, club.ProfileImage)
	assert.NotEmpty(t, club.CoverImage)
	assert.NotEqual(t, club.ProfileImage, club.CoverImage)
}

func TestClubImageUploadGuards(t *testing.T) {
	env := newTestEnv(t)
	ownerID, memberID, clubID := seedImageClub(t, env)
	ownerTok := env.token(t, ownerID, "brander@example.com")
	memberTok := env.token(t, memberID, "plain@example.com")
	path := fmt.Sprintf("/v1/clubs/%d/images", clubID)

	// Plain members cannot rebrand.
	w := env.doMultipart(t, http.MethodPut, path, memberTok, []filePart{
		{field: "logo", name: "logo.png", contentType: "image/png", content: "x"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A logo must be an image.
	w = env.doMultipart(t, http.MethodPut, path, ownerTok, []filePart{
		{field: "logo", name: "logo.pdf", contentType: "application/pdf", content: "x"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Neither field sent.
	w = env.doMultipart(t, http.MethodPut, path, ownerTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown club.
	w = env.doMultipart(t, http.MethodPut, "/v1/clubs/9999/images", ownerTok, []filePart{
		{field: "logo", name: "logo.png", contentType: "image/png", content: "x"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var club types.Club
	require.NoError(t, env.db.First(&club, "id = ?", clubID).Error)
	assert.Empty(t, club.ProfileImage)
	assert.Empty(t, club.CoverImage)
}

func TestNodeImageUpload(t *testing.T) {
	env := newTestEnv(t)
	ownerID := env.newUser(t, "nodeowner", "nodeowner@example.com", "pw-node-123")
	node := types.Node{Name: "local", IsPublic: true, CreatedBy: ownerID}
	require.NoError(t, env.db.Create(&node).Error)
	require.NoError(t, env.db.Create(&types.NodeMember{
		NodeID: node.ID, UserID: ownerID, Role: "owner", Status: "active",
	}).Error)
	tok := env.token(t, ownerID, "nodeowner@example.com")

	w := env.doMultipart(t, http.MethodPut, fmt.Sprintf("/v1/nodes/%d/images", node.ID), tok, []filePart{
		{field: "bannerImage", name: "banner.png", contentType: "image/png", content: "png-bytes"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, env.db.First(&node, "id = ?", node.ID).Error)
	assert.NotEmpty(t, node.CoverImage)
	assert.Empty(t, node.ProfileImage)
}
