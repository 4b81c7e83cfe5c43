package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationService_Submit(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	app, err := f.applications.Submit(ctx, newPendingApplication("Test Owner", "T@X.com", "0700", "Test Grocers"), RequestMeta{
		IPAddress: "192.0.2.1",
		UserAgent: "curl/8.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "t@x.com", app.Email)
	assert.Equal(t, model.VerificationStatusPending, app.VerificationStatus)
	assert.Equal(t, []string{EventApplicationCreated}, f.broadcaster.Events())

	history, err := f.applications.History(app.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].FromStatus)
	assert.Equal(t, model.VerificationStatusPending, history[0].ToStatus)

	_, err = f.applications.Submit(ctx, newPendingApplication("Other", "t@x.com", "0701", "Other Grocers"), RequestMeta{})
	assert.ErrorIs(t, err, ErrDuplicateApplication)
}

func TestApplicationService_ApproveCreatesStoreAndPromotesOwner(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	owner := f.createUser(t, "grace@example.com", model.RoleCustomer)
	app, err := f.applications.Submit(ctx, newPendingApplication("Grace", "grace@example.com", "0700", "Test Grocers"), RequestMeta{})
	require.NoError(t, err)

	approved, err := f.applications.Approve(ctx, app.ID, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusApproved, approved.VerificationStatus)
	assert.Equal(t, "Test Grocers", approved.StoreName)
	assert.Empty(t, approved.RejectionReason)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, testAdmin.UserID, *approved.ReviewedBy)
	require.NotNil(t, approved.UserID)
	assert.Equal(t, owner.ID, *approved.UserID)

	store, err := f.stores.FindByApplicationID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, "test-grocers", store.Slug)
	assert.True(t, store.IsActive)
	require.NotNil(t, store.UserID)
	assert.Equal(t, owner.ID, *store.UserID)

	promoted, err := f.users.FindByID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStoreOwner, promoted.Role)

	unread, err := f.notifications.UnreadCount(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "grace@example.com", f.mailer.sent[0].to)
	assert.Contains(t, f.broadcaster.Events(), EventApplicationUpdated)
}

func TestApplicationService_DecidedApplicationsAreTerminal(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	app, err := f.applications.Submit(ctx, newPendingApplication("Ann", "ann@example.com", "0700", "Ann Greens"), RequestMeta{})
	require.NoError(t, err)
	_, err = f.applications.Approve(ctx, app.ID, testAdmin)
	require.NoError(t, err)

	_, err = f.applications.Approve(ctx, app.ID, testAdmin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.applications.Reject(ctx, app.ID, "Changed my mind", testAdmin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, err := f.applications.Get(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusApproved, current.VerificationStatus)
	assert.Empty(t, current.RejectionReason)

	history, err := f.applications.History(app.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestApplicationService_RejectRequiresReason(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	app, err := f.applications.Submit(ctx, newPendingApplication("Ben", "ben@example.com", "0700", "Ben Spices"), RequestMeta{})
	require.NoError(t, err)

	for _, reason := range []string{"", "   ", "\n\t"} {
		_, err := f.applications.Reject(ctx, app.ID, reason, testAdmin)
		assert.ErrorIs(t, err, ErrRejectionReasonRequired)
	}
	_, err = f.applications.Reject(ctx, app.ID, strings.Repeat("x", MaxReasonLength+1), testAdmin)
	assert.ErrorIs(t, err, ErrReasonTooLong)

	current, err := f.applications.Get(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusPending, current.VerificationStatus)

	rejected, err := f.applications.Reject(ctx, app.ID, "  Incomplete documents ", testAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusRejected, rejected.VerificationStatus)
	assert.Equal(t, "Incomplete documents", rejected.RejectionReason)

	_, err = f.stores.FindByApplicationID(app.ID)
	assert.Error(t, err, "rejected applications must not get a store")
}

func TestApplicationService_TransitionErrors(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	_, err := f.applications.Approve(ctx, 4242, testAdmin)
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = f.applications.Transition(ctx, 1, ApplicationAction("revoke"), "", testAdmin)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = ParseApplicationAction("APPROVE")
	assert.NoError(t, err)
	_, err = ParseApplicationAction("pending")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = ActionForStatus(model.VerificationStatusPending)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestApplicationService_ConcurrentDecisionsFirstWriteWins(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	app, err := f.applications.Submit(ctx, newPendingApplication("Cara", "cara@example.com", "0700", "Cara Meats"), RequestMeta{})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.applications.Approve(ctx, app.ID, testAdmin)
			} else {
				_, err = f.applications.Reject(ctx, app.ID, "Duplicate store", testAdmin)
			}
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, ErrInvalidTransition) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 3, conflicts)
}

func TestApplicationService_ListFiltersAndSearch(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	benson, err := f.applications.Submit(ctx, newPendingApplication("Benson Okello", "okello@example.com", "0711", "Okello Fruits"), RequestMeta{})
	require.NoError(t, err)
	other, err := f.applications.Submit(ctx, newPendingApplication("Mary Achieng", "mary@example.com", "0722", "Mary Veg"), RequestMeta{})
	require.NoError(t, err)
	_, err = f.applications.Approve(ctx, other.ID, testAdmin)
	require.NoError(t, err)

	pending, err := f.applications.List(ctx, repository.ApplicationFilter{Status: model.VerificationStatusPending})
	require.NoError(t, err)
	for _, item := range pending.Items {
		assert.Equal(t, model.VerificationStatusPending, item.VerificationStatus)
	}
	assert.Equal(t, int64(1), pending.Total)

	for _, q := range []string{"ben", "BEN", "Benson"} {
		page, err := f.applications.List(ctx, repository.ApplicationFilter{Query: q})
		require.NoError(t, err)
		require.Len(t, page.Items, 1, "query %q", q)
		assert.Equal(t, benson.ID, page.Items[0].ID)
	}

	all, err := f.applications.List(ctx, repository.ApplicationFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, 1, all.TotalPages)
}

func TestApplicationService_GetForUser(t *testing.T) {
	f := setupServiceTest(t)
	ctx := context.Background()

	user := f.createUser(t, "dora@example.com", model.RoleCustomer)
	_, err := f.applications.GetForUser(user)
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	app, err := f.applications.Submit(ctx, newPendingApplication("Dora", "dora@example.com", "0700", "Dora Market"), RequestMeta{})
	require.NoError(t, err)

	found, err := f.applications.GetForUser(user)
	require.NoError(t, err)
	assert.Equal(t, app.ID, found.ID)
}

func TestReasonInput(t *testing.T) {
	reason, err := ReasonInput{Raw: "  fine  "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "fine", reason)

	reason, err = ReasonInput{Raw: "   "}.Normalize()
	require.NoError(t, err)
	assert.Empty(t, reason)

	_, err = ReasonInput{Raw: " ", Required: true}.Normalize()
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)
}
