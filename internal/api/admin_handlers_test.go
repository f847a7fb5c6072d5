package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	resp := ts.api.Post("/api/v1/admin/tags", map[string]any{}, bearer(bob.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/admin/tags", bearer(bob.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminProvision_ExplicitCode(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	resp := ts.api.Post("/api/v1/admin/tags", map[string]any{
		"physical_id": "nfc-04a2b3",
		"public_code": "garden01",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "nfc-04a2b3", out.PhysicalID)
	assert.Equal(t, "GARDEN01", out.PublicCode)
	assert.Equal(t, "unclaimed", out.Status)
}

func TestAdminProvisionBatch(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	resp := ts.api.Post("/api/v1/admin/tags/batch", map[string]any{
		"count": 5,
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out ListTagsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Tags, 5)

	codes := make(map[string]bool)
	for _, tag := range out.Tags {
		assert.Equal(t, "unclaimed", tag.Status)
		codes[tag.PublicCode] = true
	}
	assert.Len(t, codes, 5, "codes must be unique")
}

func TestAdminListTags_StatusFilter(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	first := ts.provisionTag(t, admin.AccessToken)
	ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, first.PublicCode)

	resp := ts.api.Get("/api/v1/admin/tags?status=unclaimed", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var out ListTagsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Tags, 1)
	assert.Equal(t, "unclaimed", out.Tags[0].Status)

	resp = ts.api.Get("/api/v1/admin/tags", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Len(t, out.Tags, 2)
}

func TestAdminResetTag_Reclaimable(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/admin/tags/"+tag.ID+"/reset", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	claimed := ts.claimTag(t, bob.AccessToken, tag.PublicCode)
	assert.Equal(t, bob.User.ID, claimed.OwnerID)
	assert.Equal(t, "claimed", claimed.Status)
}

func TestAdminDeleteTag(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Delete("/api/v1/admin/tags/"+tag.ID, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags/"+tag.PublicCode, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAdminBackupLifecycle(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	resp := ts.api.Post("/api/v1/admin/backups", bearer(bob.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/admin/backups", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created BackupResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Positive(t, created.Size)

	resp = ts.api.Get("/api/v1/admin/backups", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var listed ListBackupsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed.Backups, 1)
	assert.Equal(t, created.ID, listed.Backups[0].ID)

	resp = ts.api.Delete("/api/v1/admin/backups/"+created.ID, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Delete("/api/v1/admin/backups/"+created.ID, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
