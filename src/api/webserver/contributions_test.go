package webserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubwize/backend/src/api/types"
)

// doForm posts url-encoded form data, the content type the project and
// contribution endpoints accept.
func (e *testEnv) doForm(t *testing.T, method, path, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type contribWorld struct {
	creatorID   uint64
	creatorTok  string
	memberID    uint64
	memberTok   string
	clubID      uint64
	projectID   uint64
	parameterID uint64
}

func seedContribWorld(t *testing.T, env *testEnv) contribWorld {
	t.Helper()
	creatorID := env.newUser(t, "creator", "creator@example.com", "pw-crtr-123")
	memberID := env.newUser(t, "member", "member@example.com", "pw-mmbr-123")

	club := types.Club{Name: "green", IsPublic: true, CreatedBy: creatorID}
	require.NoError(t, env.db.Create(&club).Error)
	for _, m := range []types.ClubMember{
		{ClubID: club.ID, UserID: creatorID, Role: "owner", Status: "active"},
		{ClubID: club.ID, UserID: memberID, Role: "member", Status: "active"},
	} {
		rec := m
		require.NoError(t, env.db.Create(&rec).Error)
	}
	return contribWorld{
		creatorID:  creatorID,
		creatorTok: env.token(t, creatorID, "creator@example.com"),
		memberID:   memberID,
		memberTok:  env.token(t, memberID, "member@example.com"),
		clubID:     club.ID,
	}
}

func (w *contribWorld) createProject(t *testing.T, env *testEnv) {
	t.Helper()
	resp := env.doForm(t, http.MethodPost, "/v1/projects", w.creatorTok, url.Values{
		"title":      {"beach cleanup"},
		"clubId":     {fmt.Sprint(w.clubID)},
		"parameters": {"Bags collected|bags", "Volunteers|people"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	w.projectID = uint64(decodeBody(t, resp)["ID"].(float64))

	var param types.ProjectParameter
	require.NoError(t, env.db.First(&param, "project_id = ? AND title = ?", w.projectID, "Bags collected").Error)
	w.parameterID = param.ID
}

func TestCreateProjectPublishes(t *testing.T) {
	env := newTestEnv(t)
	world := seedContribWorld(t, env)
	world.createProject(t, env)

	var proj types.Project
	require.NoError(t, env.db.First(&proj, "id = ?", world.projectID).Error)
	assert.Equal(t, "published", proj.Status)
	assert.Equal(t, proj.ID, proj.RootProjectID)

	// Publishing writes the origin adoption row.
	var origin types.Adoption
	require.NoError(t, env.db.First(&origin, "project_id = ? AND is_origin = ?", proj.ID, true).Error)
	assert.Equal(t, "published", origin.Status)
}

func TestCreateProjectRequiresPrivilegedRole(t *testing.T) {
	env := newTestEnv(t)
	world := seedContribWorld(t, env)

	w := env.doForm(t, http.MethodPost, "/v1/projects", world.memberTok, url.Values{
		"title":  {"grab"},
		"clubId": {fmt.Sprint(world.clubID)},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The same member may save a draft.
	w = env.doForm(t, http.MethodPost, "/v1/projects/draft", world.memberTok, url.Values{
		"title":  {"grab"},
		"clubId": {fmt.Sprint(world.clubID)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var proj types.Project
	require.NoError(t, env.db.First(&proj, "created_by = ?", world.memberID).Error)
	assert.Equal(t, "draft", proj.Status)
}

func TestContributionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	world := seedContribWorld(t, env)
	world.createProject(t, env)

	// A plain member's contribution waits for review.
	w := env.doForm(t, http.MethodPost, "/v1/adopt-contribution", world.memberTok, url.Values{
		"projectId":   {fmt.Sprint(world.projectID)},
		"parameterId": {fmt.Sprint(world.parameterID)},
		"value":       {"5"},
		"clubId":      {fmt.Sprint(world.clubID)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contribID := uint64(decodeBody(t, w)["ID"].(float64))
	assert.Equal(t, "pending", decodeBody(t, w)["Status"])

	// The activity log picked it up.
	var activities []types.Activity
	require.NoError(t, env.db.Where("project_id = ?", world.projectID).Find(&activities).Error)
	require.Len(t, activities, 1)
	assert.Contains(t, activities[0].Message, "Bags collected")

	// The member cannot review their own pending contribution.
	w = env.do(t, http.MethodPut, "/v1/adopt-contribution/accept-reject", world.memberTok, gin.H{
		"contributionId": contribID, "decision": "accept",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/v1/adopt-contribution/accept-reject", world.creatorTok, gin.H{
		"contributionId": contribID, "decision": "accept",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var contrib types.Contribution
	require.NoError(t, env.db.First(&contrib, "id = ?", contribID).Error)
	assert.Equal(t, "accepted", contrib.Status)
	require.NotNil(t, contrib.ReviewedBy)
	assert.Equal(t, world.creatorID, *contrib.ReviewedBy)

	// Decided contributions stay decided.
	w = env.do(t, http.MethodPut, "/v1/adopt-contribution/accept-reject", world.creatorTok, gin.H{
		"contributionId": contribID, "decision": "reject",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatorContributionAutoAccepted(t *testing.T) {
	env := newTestEnv(t)
	world := seedContribWorld(t, env)
	world.createProject(t, env)

	w := env.doForm(t, http.MethodPost, "/v1/adopt-contribution", world.creatorTok, url.Values{
		"projectId":   {fmt.Sprint(world.projectID)},
		"parameterId": {fmt.Sprint(world.parameterID)},
		"value":       {"3"},
		"clubId":      {fmt.Sprint(world.clubID)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "accepted", decodeBody(t, w)["Status"])
}

func TestContributionValidation(t *testing.T) {
	env := newTestEnv(t)
	world := seedContribWorld(t, env)
	world.createProject(t, env)

	// Unknown project.
	w := env.doForm(t, http.MethodPost, "/v1/adopt-contribution", world.memberTok, url.Values{
		"projectId":   {"9999"},
		"parameterId": {fmt.Sprint(world.parameterID)},
		"value":       {"5"},
		"clubId":      {fmt.Sprint(world.clubID)},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Both forum ids.
	w = env.doForm(t, http.MethodPost, "/v1/adopt-contribution", world.memberTok, url.Values{
		"projectId":   {fmt.Sprint(world.projectID)},
		"parameterId": {fmt.Sprint(world.parameterID)},
		"value":       {"5"},
		"clubId":      {fmt.Sprint(world.clubID)},
		"nodeId":      {"1"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Activities for an unknown project.
	resp := env.do(t, http.MethodGet, "/v1/projects/9999/activities", world.memberTok, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
