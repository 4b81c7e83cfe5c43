package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationController_Inbox(t *testing.T) {
	f := setupControllerTest(t)
	user := f.createUser(t, "owner@example.com", model.RoleCustomer)
	other := f.createUser(t, "other@example.com", model.RoleCustomer)
	token := tokenFor(t, user)

	user.Status, user.StatusReason = model.UserStatusSuspended, "Chargebacks"
	require.NoError(t, f.notifications.NotifyAccountStatus(user))
	user.Status, user.StatusReason = model.UserStatusActive, ""
	require.NoError(t, f.notifications.NotifyAccountStatus(user))
	require.NoError(t, f.notifications.NotifyAccountStatus(other))

	w := doJSON(f.router, http.MethodGet, "/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 2, body["unread_count"])
	first := body["notifications"].([]interface{})[0].(map[string]interface{})
	id := uint(first["id"].(float64))

	w = doJSON(f.router, http.MethodPatch, fmt.Sprintf("/notifications/%d/read", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, http.MethodGet, "/notifications/unread-count", token, nil)
	assert.EqualValues(t, 1, decode(t, w)["unread_count"])

	w = doJSON(f.router, http.MethodGet, "/notifications?is_read=true", token, nil)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = doJSON(f.router, http.MethodGet, "/notifications?is_read=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// another user's notification is invisible
	w = doJSON(f.router, http.MethodPatch, fmt.Sprintf("/notifications/%d/read", id), tokenFor(t, other), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(f.router, http.MethodPatch, "/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(f.router, http.MethodGet, "/notifications/unread-count", token, nil)
	assert.EqualValues(t, 0, decode(t, w)["unread_count"])
}
