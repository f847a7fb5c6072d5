package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimTag_Lifecycle(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	provisioned := ts.provisionTag(t, admin.AccessToken)
	assert.Equal(t, "unclaimed", provisioned.Status)
	assert.Empty(t, provisioned.OwnerID)

	claimed := ts.claimTag(t, admin.AccessToken, provisioned.PublicCode)
	assert.Equal(t, "claimed", claimed.Status)
	assert.Equal(t, admin.User.ID, claimed.OwnerID)
	assert.NotNil(t, claimed.ClaimedAt)
}

func TestClaimTag_AlreadyClaimed(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/tags/claim", map[string]any{"ref": tag.PublicCode}, bearer(bob.AccessToken))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestClaimTag_ByPhysicalID(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	require.NotEmpty(t, tag.PhysicalID)

	claimed := ts.claimTag(t, admin.AccessToken, tag.PhysicalID)
	assert.Equal(t, tag.ID, claimed.ID)
}

func TestGetTag_PrivateHiddenFromOthers(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	// Owner resolves it.
	resp := ts.api.Get("/api/v1/tags/"+tag.PublicCode, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusOK, resp.Code)

	// Anyone else sees a 404, same as a tag that does not exist.
	resp = ts.api.Get("/api/v1/tags/"+tag.PublicCode, bearer(bob.AccessToken))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/tags/" + tag.PublicCode)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetTag_PublicVisibleAnonymously(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Patch("/api/v1/tags/"+tag.ID+"/settings", map[string]any{
		"is_public":    true,
		"allow_follow": false,
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags/" + tag.PublicCode)
	assert.Equal(t, http.StatusOK, resp.Code)

	var out TagWithModuleResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, tag.ID, out.Tag.ID)
	assert.Nil(t, out.Module)
}

func TestUpdateTagSettings_OwnerOnly(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Patch("/api/v1/tags/"+tag.ID+"/settings", map[string]any{
		"is_public":    true,
		"allow_follow": true,
	}, bearer(bob.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestLinkTag_AttachesModule(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)
	plantID := ts.createModule(t, admin.AccessToken, "plant", "Monstera")

	resp := ts.api.Post("/api/v1/tags/"+tag.PublicCode+"/link", map[string]any{
		"module_kind": "plant",
		"module_id":   plantID,
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "linked", out.Status)
	assert.Equal(t, "plant", out.ModuleType)
}

func TestLinkTag_SecondModuleConflicts(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)
	plantID := ts.createModule(t, admin.AccessToken, "plant", "Monstera")
	mugID := ts.createModule(t, admin.AccessToken, "mug", "Office mug")

	resp := ts.api.Post("/api/v1/tags/"+tag.PublicCode+"/link", map[string]any{
		"module_kind": "plant",
		"module_id":   plantID,
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/tags/"+tag.PublicCode+"/link", map[string]any{
		"module_kind": "mug",
		"module_id":   mugID,
	}, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestUnlinkTag_KeepsClaim(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)
	plantID := ts.createModule(t, admin.AccessToken, "plant", "Monstera")

	resp := ts.api.Post("/api/v1/tags/"+tag.PublicCode+"/link", map[string]any{
		"module_kind": "plant",
		"module_id":   plantID,
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/"+tag.PublicCode+"/link", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "claimed", out.Status)
	assert.Empty(t, out.ModuleType)
	assert.NotNil(t, out.ClaimedAt)
}

func TestGetTag_IncludesLinkedModule(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)
	plantID := ts.createModule(t, admin.AccessToken, "plant", "Monstera")

	resp := ts.api.Post("/api/v1/tags/"+tag.PublicCode+"/link", map[string]any{
		"module_kind": "plant",
		"module_id":   plantID,
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/tags/"+tag.PublicCode, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Tag    TagResponse    `json:"tag"`
		Module map[string]any `json:"module"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotNil(t, out.Module)
	assert.Equal(t, plantID, out.Module["id"])
	assert.Equal(t, "Monstera", out.Module["name"])
}
