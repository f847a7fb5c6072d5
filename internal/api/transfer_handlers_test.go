package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer_ProposeAcceptFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/transfers", map[string]any{
		"tag_ref": tag.PublicCode,
		"to":      "bob",
		"message": "enjoy the plant",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var req TransferRequestResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &req))
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, bob.User.ID, req.ToUserID)

	resp = ts.api.Post("/api/v1/transfers/"+req.ID+"/respond", map[string]any{
		"action": "accept",
	}, bearer(bob.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var accepted TransferRequestResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &accepted))
	assert.Equal(t, "accepted", accepted.Status)

	// The tag now belongs to bob.
	getResp := ts.api.Get("/api/v1/tags/"+tag.PublicCode, bearer(bob.AccessToken))
	require.Equal(t, http.StatusOK, getResp.Code)

	var out TagWithModuleResponse
	require.NoError(t, json.Unmarshal(getResp.Body.Bytes(), &out))
	assert.Equal(t, bob.User.ID, out.Tag.OwnerID)
}

func TestTransfer_OnlyTargetMayRespond(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/transfers", map[string]any{
		"tag_ref": tag.PublicCode,
		"to":      "bob",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var req TransferRequestResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &req))

	resp = ts.api.Post("/api/v1/transfers/"+req.ID+"/respond", map[string]any{
		"action": "accept",
	}, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestTransfer_CancelFreesTag(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/transfers", map[string]any{
		"tag_ref": tag.PublicCode,
		"to":      "bob",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var req TransferRequestResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &req))

	resp = ts.api.Post("/api/v1/transfers/"+req.ID+"/cancel", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Responding to a cancelled request is a conflict.
	resp = ts.api.Post("/api/v1/transfers/"+req.ID+"/respond", map[string]any{
		"action": "accept",
	}, bearer(bob.AccessToken))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestTransfer_Direct(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/transfers/direct", map[string]any{
		"tag_ref": tag.PublicCode,
		"to":      "bob@example.com",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out OwnershipTransferResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "direct", out.TransferType)
	assert.Equal(t, bob.User.ID, out.ToUserID)
}

func TestTransfer_ToSelfConflicts(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/transfers", map[string]any{
		"tag_ref": tag.PublicCode,
		"to":      "admin",
	}, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestTransfer_IncomingOutgoingLists(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/transfers", map[string]any{
		"tag_ref": tag.PublicCode,
		"to":      "bob",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/transfers/incoming?pending=true", bearer(bob.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var incoming ListTransfersResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &incoming))
	require.Len(t, incoming.Requests, 1)
	assert.Equal(t, tag.ID, incoming.Requests[0].TagID)

	resp = ts.api.Get("/api/v1/transfers/outgoing", bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	var outgoing ListTransfersResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &outgoing))
	require.Len(t, outgoing.Requests, 1)
}

func TestTagHistory_RecordsTransfers(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.registerUser(t, "admin")
	bob := ts.registerUser(t, "bob")

	tag := ts.provisionTag(t, admin.AccessToken)
	ts.claimTag(t, admin.AccessToken, tag.PublicCode)

	resp := ts.api.Post("/api/v1/transfers/direct", map[string]any{
		"tag_ref": tag.PublicCode,
		"to":      "bob",
	}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	// Only the current owner may read the trail.
	resp = ts.api.Get("/api/v1/tags/"+tag.ID+"/history", bearer(admin.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/tags/"+tag.ID+"/history", bearer(bob.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out TagHistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Transfers, 1)
	assert.Equal(t, admin.User.ID, out.Transfers[0].FromUserID)
	assert.Equal(t, bob.User.ID, out.Transfers[0].ToUserID)
}
