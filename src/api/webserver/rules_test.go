package webserver

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubwize/backend/src/api/types"
)

type rulesWorld struct {
	ownerID   uint64
	ownerTok  string
	memberID  uint64
	memberTok string
	clubID    uint64
}

func seedRulesWorld(t *testing.T, env *testEnv) rulesWorld {
	t.Helper()
	ownerID := env.newUser(t, "owner", "owner@example.com", "pw-owner-123")
	memberID := env.newUser(t, "member", "member@example.com", "pw-mmbr-123")

	club := types.Club{Name: "writers", IsPublic: true, CreatedBy: ownerID}
	require.NoError(t, env.db.Create(&club).Error)
	for _, m := range []types.ClubMember{
		{ClubID: club.ID, UserID: ownerID, Role: "owner", Status: "active"},
		{ClubID: club.ID, UserID: memberID, Role: "member", Status: "active"},
	} {
		rec := m
		require.NoError(t, env.db.Create(&rec).Error)
	}
	return rulesWorld{
		ownerID:   ownerID,
		ownerTok:  env.token(t, ownerID, "owner@example.com"),
		memberID:  memberID,
		memberTok: env.token(t, memberID, "member@example.com"),
		clubID:    club.ID,
	}
}

func TestRuleCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	world := seedRulesWorld(t, env)

	w := env.doForm(t, http.MethodPost, "/v1/rules-regulations", world.ownerTok, url.Values{
		"title":       {"no spoilers"},
		"description": {"<p>keep plot twists <script>x</script>out of titles</p>"},
		"clubId":      {fmt.Sprint(world.clubID)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ruleID := uint64(decodeBody(t, w)["ID"].(float64))

	var rule types.RulesRegulations
	require.NoError(t, env.db.First(&rule, "id = ?", ruleID).Error)
	assert.Equal(t, "published", rule.Status)
	assert.NotContains(t, rule.Description, "script")

	// Publishing writes the origin adoption row.
	var origin types.Adoption
	require.NoError(t, env.db.First(&origin, "rule_id = ? AND is_origin = ?", ruleID, true).Error)

	w = env.do(t, http.MethodGet,
		fmt.Sprintf("/v1/rules-regulations/rules?clubId=%d", world.clubID), world.memberTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules := decodeBody(t, w)["rules"].([]interface{})
	require.Len(t, rules, 1)
}

func TestRuleDraftByPlainMember(t *testing.T) {
	env := newTestEnv(t)
	world := seedRulesWorld(t, env)

	// Direct publish needs a privileged role.
	w := env.doForm(t, http.MethodPost, "/v1/rules-regulations", world.memberTok, url.Values{
		"title":       {"x"},
		"description": {"y"},
		"clubId":      {fmt.Sprint(world.clubID)},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doForm(t, http.MethodPost, "/v1/rules-regulations/draft", world.memberTok, url.Values{
		"title":       {"quiet hours"},
		"description": {"draft text"},
		"clubId":      {fmt.Sprint(world.clubID)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rule types.RulesRegulations
	require.NoError(t, env.db.First(&rule, "created_by = ?", world.memberID).Error)
	assert.Equal(t, "draft", rule.Status)

	// Drafts carry no adoption row.
	var count int64
	env.db.Model(&types.Adoption{}).Where("rule_id = ?", rule.ID).Count(&count)
	assert.Zero(t, count)
}

func TestRuleDetailLikeArchive(t *testing.T) {
	env := newTestEnv(t)
	world := seedRulesWorld(t, env)

	rule := types.RulesRegulations{
		Title: "be kind", ClubID: &world.clubID, Status: "published", CreatedBy: world.ownerID,
	}
	require.NoError(t, env.db.Create(&rule).Error)

	// Detail records a view.
	w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/rules-regulations/%d", rule.ID), world.memberTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["views"])

	// Like toggles.
	w = env.do(t, http.MethodPut, "/v1/rules-regulations/like", world.memberTok, gin.H{"rulesId": rule.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["liked"])
	w = env.do(t, http.MethodPut, "/v1/rules-regulations/like", world.memberTok, gin.H{"rulesId": rule.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["liked"])

	// Plain members cannot archive.
	w = env.do(t, http.MethodPatch,
		fmt.Sprintf("/v1/rules-regulations/archive-rule/%d", rule.ID), world.memberTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch,
		fmt.Sprintf("/v1/rules-regulations/archive-rule/%d", rule.ID), world.ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got types.RulesRegulations
	require.NoError(t, env.db.First(&got, "id = ?", rule.ID).Error)
	assert.Equal(t, "archived", got.Status)
}

func TestRuleUpdateBumpsVersionWhenPublished(t *testing.T) {
	env := newTestEnv(t)
	world := seedRulesWorld(t, env)

	rule := types.RulesRegulations{
		Title: "v1", ClubID: &world.clubID, Status: "published", CreatedBy: world.ownerID, Version: 1,
	}
	require.NoError(t, env.db.Create(&rule).Error)

	// A stranger to the forum cannot edit.
	strangerID := env.newUser(t, "stranger", "str@example.com", "pw-strg-123")
	w := env.do(t, http.MethodPut, "/v1/rules-regulations",
		env.token(t, strangerID, "str@example.com"), gin.H{"id": rule.ID, "title": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/v1/rules-regulations", world.ownerTok, gin.H{
		"id": rule.ID, "title": "v2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got types.RulesRegulations
	require.NoError(t, env.db.First(&got, "id = ?", rule.ID).Error)
	assert.Equal(t, "v2", got.Title)
	assert.Equal(t, uint32(2), got.Version)
}
