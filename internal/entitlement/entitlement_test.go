package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcpublishing/writing-detector/internal/models"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

type mockStore struct {
	mu      sync.Mutex
	calls   int
	lastTo  models.SubscriptionStatus
	updater func(ctx context.Context, userUID string, from, to models.SubscriptionStatus) error
}

func (m *mockStore) UpdateUserStatus(ctx context.Context, userUID string, from, to models.SubscriptionStatus) error {
	m.mu.Lock()
	m.calls++
	m.lastTo = to
	m.mu.Unlock()
	if m.updater != nil {
		return m.updater(ctx, userUID, from, to)
	}
	return nil
}

type mockInvalidator struct {
	keys []string
}

func (m *mockInvalidator) Invalidate(key string) error {
	m.keys = append(m.keys, key)
	return nil
}

func trialUser(expires time.Time) *models.User {
	return &models.User{
		UUID:               "uid-1",
		Email:              "user@example.com",
		TrialStart:         expires.AddDate(0, 0, -3),
		TrialExpires:       expires,
		SubscriptionStatus: models.StatusTrial,
	}
}

func TestDecide_PaidStatuses(t *testing.T) {
	now := time.Now()
	for _, status := range []models.SubscriptionStatus{
		models.StatusActive, models.StatusPro, models.StatusBusiness,
	} {
		u := &models.User{SubscriptionStatus: status}
		d := Decide(u, now)
		assert.True(t, d.Allowed, "status %s", status)
		assert.Equal(t, ReasonNone, d.Reason)
		assert.Empty(t, d.NewStatus)
	}
}

func TestDecide_DeniedStatuses(t *testing.T) {
	now := time.Now()
	for _, status := range []models.SubscriptionStatus{
		models.StatusExpired, models.StatusPastDue, models.StatusCanceled,
	} {
		u := &models.User{SubscriptionStatus: status}
		d := Decide(u, now)
		assert.False(t, d.Allowed, "status %s", status)
		assert.Equal(t, ReasonSubscriptionExpired, d.Reason)
		assert.Empty(t, d.NewStatus, "no write for terminal status %s", status)
	}
}

func TestDecide_TrialWindow(t *testing.T) {
	expires := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		now         time.Time
		wantAllowed bool
		wantStatus  models.SubscriptionStatus
	}{
		{"за два дня до истечения", expires.AddDate(0, 0, -2), true, ""},
		{"ровно в момент истечения", expires, true, ""},
		{"через секунду после истечения", expires.Add(time.Second), false, models.StatusExpired},
		{"через два дня после истечения", expires.AddDate(0, 0, 2), false, models.StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(trialUser(expires), tt.now)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantStatus, d.NewStatus)
			if !tt.wantAllowed {
				assert.Equal(t, ReasonTrialExpired, d.Reason)
			}
		})
	}
}

func TestCheck_PersistsExpiryOnce(t *testing.T) {
	store := &mockStore{}
	inv := &mockInvalidator{}
	e := New(store, inv, makeLogger())
	e.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }

	u := trialUser(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	d, err := e.Check(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonTrialExpired, d.Reason)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, models.StatusExpired, store.lastTo)
	assert.Equal(t, models.StatusExpired, u.SubscriptionStatus)
	assert.Equal(t, []string{"user:user@example.com"}, inv.keys)

	// Повторная проверка читает expired напрямую, без новой записи
	d, err = e.Check(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSubscriptionExpired, d.Reason)
	assert.Equal(t, 1, store.calls)
}

func TestCheck_ExpiredIsMonotonic(t *testing.T) {
	store := &mockStore{}
	e := New(store, nil, makeLogger())
	// Часы "вернулись" внутрь пробного окна, но статус уже expired
	e.now = func() time.Time { return time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC) }

	u := trialUser(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	u.SubscriptionStatus = models.StatusExpired

	d, err := e.Check(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, store.calls)
}

func TestCheck_StoreErrorStillDenies(t *testing.T) {
	store := &mockStore{
		updater: func(context.Context, string, models.SubscriptionStatus, models.SubscriptionStatus) error {
			return errors.New("connection reset")
		},
	}
	e := New(store, nil, makeLogger())
	e.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }

	u := trialUser(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	d, err := e.Check(context.Background(), u)
	require.Error(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonTrialExpired, d.Reason)
	// Статус в памяти не обновлён, решение при этом не меняется
	assert.Equal(t, models.StatusTrial, u.SubscriptionStatus)
}

func TestCheck_ConcurrentEvaluations(t *testing.T) {
	store := &mockStore{}
	e := New(store, nil, makeLogger())
	e.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }

	expires := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make([]Decision, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Каждый запрос читает собственную копию записи, как при
			// независимой загрузке из хранилища
			u := trialUser(expires)
			d, _ := e.Check(context.Background(), u)
			results[i] = d
		}(i)
	}
	wg.Wait()

	for _, d := range results {
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonTrialExpired, d.Reason)
	}
	// Дублирующиеся записи допустимы, записываемое значение — константа
	assert.GreaterOrEqual(t, store.calls, 1)
	assert.Equal(t, models.StatusExpired, store.lastTo)
}

func TestDenyReasonMessages(t *testing.T) {
	assert.Contains(t, ReasonTrialExpired.Message(), "trial has expired")
	assert.Contains(t, ReasonSubscriptionExpired.Message(), "subscription has expired")
	assert.Empty(t, ReasonNone.Message())
}
