package repository

import (
	"testing"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewUserRepository(testDB)
}

func newUser(email, name string, role model.UserRole) *model.User {
	return &model.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Name:         name,
		Phone:        "0700000000",
		Role:         role,
		Status:       model.UserStatusActive,
	}
}

func TestUserRepository_Create(t *testing.T) {
	_, repo := setupUserTest(t)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name:    "Valid user",
			user:    newUser("test@example.com", "Test User", model.RoleCustomer),
			wantErr: false,
		},
		{
			name:    "Duplicate email",
			user:    newUser("test@example.com", "Another User", model.RoleCustomer),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
			}
		})
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	_, repo := setupUserTest(t)

	user := newUser("test@example.com", "Test User", model.RoleCustomer)
	require.NoError(t, repo.Create(user))

	tests := []struct {
		name    string
		id      uint
		wantErr bool
	}{
		{name: "Existing user", id: user.ID, wantErr: false},
		{name: "Non-existing user", id: 9999, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.FindByID(tt.id)

			if tt.wantErr {
				assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
				assert.Nil(t, found)
			} else {
				require.NoError(t, err)
				assert.Equal(t, user.Email, found.Email)
				assert.Equal(t, model.UserStatusActive, found.Status)
			}
		})
	}
}

func TestUserRepository_FindByEmailNormalizes(t *testing.T) {
	_, repo := setupUserTest(t)

	require.NoError(t, repo.Create(newUser("test@example.com", "Test User", model.RoleCustomer)))

	found, err := repo.FindByEmail("  TEST@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Test User", found.Name)
}

func TestUserRepository_UpdateStatus(t *testing.T) {
	_, repo := setupUserTest(t)

	user := newUser("test@example.com", "Test User", model.RoleStoreOwner)
	require.NoError(t, repo.Create(user))

	require.NoError(t, repo.UpdateStatus(user.ID, model.UserStatusSuspended, "Chargebacks"))
	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusSuspended, found.Status)
	assert.Equal(t, "Chargebacks", found.StatusReason)

	require.NoError(t, repo.UpdateStatus(user.ID, model.UserStatusActive, ""))
	found, err = repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus(9999, model.UserStatusBanned, "x"), gorm.ErrRecordNotFound)
}

func TestUserRepository_ListAndRoles(t *testing.T) {
	_, repo := setupUserTest(t)

	require.NoError(t, repo.Create(newUser("admin@example.com", "Ada Admin", model.RoleAdmin)))
	require.NoError(t, repo.Create(newUser("master@example.com", "Max Master", model.RoleMasterAdmin)))
	require.NoError(t, repo.Create(newUser("cust@example.com", "Carl Customer", model.RoleCustomer)))

	users, total, err := repo.List(UserFilter{Query: "ADA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0].Email)

	admins, err := repo.FindByRoles(model.RoleAdmin, model.RoleMasterAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUserRepository_Delete(t *testing.T) {
	_, repo := setupUserTest(t)

	user := newUser("test@example.com", "Test User", model.RoleCustomer)
	require.NoError(t, repo.Create(user))

	require.NoError(t, repo.Delete(user.ID))
	_, err := repo.FindByID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(user.ID), gorm.ErrRecordNotFound)
}
