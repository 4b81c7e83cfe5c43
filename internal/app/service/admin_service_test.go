package service

import (
	"context"
	"testing"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_UpdateUserStatus(t *testing.T) {
	f := setupServiceTest(t)
	user := f.createUser(t, "vendor@example.com", model.RoleStoreOwner)

	_, err := f.admin.UpdateUserStatus(testAdmin, user.ID, model.UserStatusSuspended, " ")
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	suspended, err := f.admin.UpdateUserStatus(testAdmin, user.ID, model.UserStatusSuspended, "Repeated complaints")
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusSuspended, suspended.Status)
	assert.Equal(t, "Repeated complaints", suspended.StatusReason)

	restored, err := f.admin.UpdateUserStatus(testAdmin, user.ID, model.UserStatusActive, "")
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, restored.Status)

	stored, err := f.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, stored.Status)

	unread, err := f.notifications.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
}

func TestAdminService_UpdateUserStatusGuards(t *testing.T) {
	f := setupServiceTest(t)
	admin := f.createUser(t, "admin@example.com", model.RoleAdmin)
	other := f.createUser(t, "other-admin@example.com", model.RoleAdmin)
	actor := Actor{UserID: admin.ID, Role: model.RoleAdmin}

	_, err := f.admin.UpdateUserStatus(actor, admin.ID, model.UserStatusBanned, "self")
	assert.ErrorIs(t, err, ErrCannotModifySelf)

	_, err = f.admin.UpdateUserStatus(actor, other.ID, model.UserStatusBanned, "rogue")
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = f.admin.UpdateUserStatus(actor, other.ID, model.UserStatus("deleted"), "")
	assert.ErrorIs(t, err, ErrInvalidUserStatus)

	_, err = f.admin.UpdateUserStatus(actor, 9999, model.UserStatusActive, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	master := Actor{UserID: 1234, Role: model.RoleMasterAdmin}
	banned, err := f.admin.UpdateUserStatus(master, other.ID, model.UserStatusBanned, "rogue")
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusBanned, banned.Status)
}

func TestAdminService_DeleteUser(t *testing.T) {
	f := setupServiceTest(t)
	master := f.createUser(t, "master@example.com", model.RoleMasterAdmin)
	victim := f.createUser(t, "victim@example.com", model.RoleCustomer)

	assert.ErrorIs(t, f.admin.DeleteUser(testAdmin, victim.ID), ErrInsufficientRole)

	actor := Actor{UserID: master.ID, Role: model.RoleMasterAdmin}
	assert.ErrorIs(t, f.admin.DeleteUser(actor, master.ID), ErrCannotModifySelf)
	require.NoError(t, f.admin.DeleteUser(actor, victim.ID))
	assert.ErrorIs(t, f.admin.DeleteUser(actor, victim.ID), ErrUserNotFound)
}

func TestAdminService_ModerateProduct(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	owner := f.createUser(t, "owner@example.com", model.RoleStoreOwner)
	store := &model.Store{ApplicationID: 1, UserID: &owner.ID, Name: "Fresh", Slug: "fresh", StoreType: model.StoreTypeFruits, IsActive: true}
	require.NoError(t, f.stores.Create(store))

	mango := &model.Product{StoreID: store.ID, Name: "Mango", Price: 2000, Unit: "kg"}
	beans := &model.Product{StoreID: store.ID, Name: "Beans", Price: 3500, Unit: "kg"}
	require.NoError(t, f.products.Create(mango))
	require.NoError(t, f.products.Create(beans))

	pending, total, err := f.admin.ListPendingProducts(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, pending, 2)

	_, err = f.admin.ModerateProduct(ctx, testAdmin, mango.ID, model.ModerationRejected, "")
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)
	_, err = f.admin.ModerateProduct(ctx, testAdmin, mango.ID, model.ModerationPending, "")
	assert.ErrorIs(t, err, ErrInvalidModerationStatus)

	rejected, err := f.admin.ModerateProduct(ctx, testAdmin, mango.ID, model.ModerationRejected, "Blurry photo")
	require.NoError(t, err)
	assert.Equal(t, model.ModerationRejected, rejected.ModerationStatus)
	assert.Equal(t, "Blurry photo", rejected.RejectionReason)

	_, err = f.admin.ModerateProduct(ctx, testAdmin, mango.ID, model.ModerationApproved, "")
	assert.ErrorIs(t, err, ErrProductAlreadyReviewed)
	_, err = f.admin.ModerateProduct(ctx, testAdmin, 777, model.ModerationApproved, "")
	assert.ErrorIs(t, err, ErrProductNotFound)

	approved, err := f.admin.ModerateProduct(ctx, testAdmin, beans.ID, model.ModerationApproved, "looks good")
	require.NoError(t, err)
	assert.Empty(t, approved.RejectionReason)

	unread, err := f.notifications.UnreadCount(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
	assert.Contains(t, f.broadcaster.Events(), EventProductModerated)
}

func TestAdminService_StoresAndStats(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	app, err := f.applications.Submit(ctx, newPendingApplication("Eve", "eve@example.com", "0700", "Eve Foods"), RequestMeta{})
	require.NoError(t, err)
	_, err = f.applications.Submit(ctx, newPendingApplication("Fay", "fay@example.com", "0701", "Fay Foods"), RequestMeta{})
	require.NoError(t, err)
	_, err = f.applications.Approve(ctx, app.ID, testAdmin)
	require.NoError(t, err)

	store, err := f.stores.FindByApplicationID(app.ID)
	require.NoError(t, err)

	off, err := f.admin.SetStoreActive(store.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	on, err := f.admin.SetStoreActive(store.ID, true)
	require.NoError(t, err)
	assert.True(t, on.IsActive)

	_, err = f.admin.SetStoreActive(5555, true)
	assert.ErrorIs(t, err, ErrStoreNotFound)

	stores, total, err := f.admin.ListStores(repository.StoreFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, stores, 1)

	stats, err := f.admin.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Stores)
	assert.Equal(t, int64(1), stats.Applications[model.VerificationStatusPending])
	assert.Equal(t, int64(1), stats.Applications[model.VerificationStatusApproved])
	assert.Equal(t, int64(0), stats.Applications[model.VerificationStatusRejected])
	assert.Len(t, stats.RecentApplications, 2)
}
