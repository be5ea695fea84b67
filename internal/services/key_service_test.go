package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"keygate/internal/infrastructure"
	"keygate/internal/license"
	"keygate/internal/shared/testutil"
	"keygate/internal/store"
)

// MockStore is a mock implementation of store.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, rec *license.KeyRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListAll(ctx context.Context) ([]license.KeyRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]license.KeyRecord), args.Error(1)
}

func (m *MockStore) GetByKey(ctx context.Context, key string) (*license.KeyRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*license.KeyRecord), args.Error(1)
}

func (m *MockStore) UpdateHwid(ctx context.Context, id int64, hwid *string) error {
	return m.Called(ctx, id, hwid).Error(0)
}

func (m *MockStore) DeleteByID(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func strPtr(s string) *string { return &s }

type keyServiceFixture struct {
	svc   KeyService
	store *store.MemoryStore
	clock *testutil.Clock
	logs  *testutil.BufferedSlogHandler
}

func newKeyServiceFixture(t *testing.T) *keyServiceFixture {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	st := store.NewMemoryStore()
	clock := testutil.NewClock(testutil.FixtureNow)
	return &keyServiceFixture{
		svc:   NewKeyService(st, clock.Now, infrastructure.NewNoopMetrics(), logger),
		store: st,
		clock: clock,
		logs:  handler,
	}
}

func (f *keyServiceFixture) create(t *testing.T, key string, months int, bypass bool) int64 {
	t.Helper()
	id, err := f.svc.Create(context.Background(), CreateKeyInput{Key: key, Months: months, HwidBypass: bypass})
	require.NoError(t, err)
	return id
}

func TestKeyService_Create(t *testing.T) {
	f := newKeyServiceFixture(t)
	ctx := context.Background()

	id := f.create(t, "ABC-123", 3, false)
	assert.Equal(t, int64(1), id)

	records, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "ABC-123", rec.Key)
	assert.Equal(t, 3, rec.Months)
	assert.Nil(t, rec.Hwid)
	assert.Equal(t, testutil.FixtureNow, rec.CreatedAt)
	assert.Equal(t, testutil.FixtureNow.Add(90*24*time.Hour), rec.ExpiresAt)

	testutil.AssertLogContains(t, f.logs, slog.LevelInfo, "key created")
	assert.False(t, f.logs.ContainsAttr("key", "ABC-123"), "raw key must not be logged")
}

func TestKeyService_CreateBypass(t *testing.T) {
	f := newKeyServiceFixture(t)

	f.create(t, "BYP", 1, true)

	records, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Hwid)
	assert.Equal(t, license.BypassMarker, *records[0].Hwid)
}

func TestKeyService_CreateRequiresKey(t *testing.T) {
	f := newKeyServiceFixture(t)

	_, err := f.svc.Create(context.Background(), CreateKeyInput{Months: 1})
	assert.ErrorIs(t, err, license.ErrKeyRequired)

	records, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestKeyService_CreateAllowsNonPositiveMonths(t *testing.T) {
	f := newKeyServiceFixture(t)
	f.create(t, "ZERO", 0, false)
	f.create(t, "NEG", -1, false)

	res, err := f.svc.Verify(context.Background(), "ZERO", "")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeValidPlain, res.Outcome)

	res, err = f.svc.Verify(context.Background(), "NEG", "")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeExpired, res.Outcome)
}

func TestKeyService_CreateMonthsRange(t *testing.T) {
	tests := []struct {
		name    string
		months  int
		wantErr bool
	}{
		{"long license", 4000, false},
		{"expiry in year ten thousand", 100000, true},
		{"int64 max", 1<<63 - 1, true},
		{"int64 min", -1 << 63, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newKeyServiceFixture(t)
			ctx := context.Background()

			_, err := f.svc.Create(ctx, CreateKeyInput{Key: "LONG", Months: tt.months})
			records, listErr := f.svc.List(ctx)
			require.NoError(t, listErr)

			if tt.wantErr {
				assert.ErrorIs(t, err, license.ErrMonthsOutOfRange)
				assert.Empty(t, records)
				return
			}
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.True(t, records[0].ExpiresAt.After(records[0].CreatedAt))

			res, err := f.svc.Verify(ctx, "LONG", "PC-1")
			require.NoError(t, err)
			assert.Equal(t, license.OutcomeValidBind, res.Outcome)
		})
	}
}

func TestKeyService_StoreFailureKeepsCause(t *testing.T) {
	m := new(MockStore)
	m.On("GetByKey", mock.Anything, "K").Return(nil, fmt.Errorf("query key: %w", context.DeadlineExceeded))
	svc := NewKeyService(m, testutil.NewClock(testutil.FixtureNow).Now, nil, testutil.NewSilentLogger())

	_, err := svc.Verify(context.Background(), "K", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	m.AssertExpectations(t)
}

func TestKeyService_Verify(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, f *keyServiceFixture)
		key        string
		hwid       string
		want       license.Outcome
		wantID     int64
		wantStored *string
	}{
		{
			name:  "unknown key",
			setup: func(t *testing.T, f *keyServiceFixture) {},
			key:   "NOPE",
			hwid:  "PC-1",
			want:  license.OutcomeNotFound,
		},
		{
			name: "expired key",
			setup: func(t *testing.T, f *keyServiceFixture) {
				f.create(t, "K", 1, false)
				f.clock.Advance(31 * 24 * time.Hour)
			},
			key:  "K",
			hwid: "PC-1",
			want: license.OutcomeExpired,
		},
		{
			name: "expired bypass key stays expired",
			setup: func(t *testing.T, f *keyServiceFixture) {
				f.create(t, "K", 1, true)
				f.clock.Advance(31 * 24 * time.Hour)
			},
			key:        "K",
			want:       license.OutcomeExpired,
			wantStored: strPtr(license.BypassMarker),
		},
		{
			name: "bypass ignores hwid",
			setup: func(t *testing.T, f *keyServiceFixture) {
				f.create(t, "K", 1, true)
			},
			key:        "K",
			hwid:       "ANY",
			want:       license.OutcomeValidBypass,
			wantID:     1,
			wantStored: strPtr(license.BypassMarker),
		},
		{
			name: "first use binds hwid",
			setup: func(t *testing.T, f *keyServiceFixture) {
				f.create(t, "K", 1, false)
			},
			key:        "K",
			hwid:       "PC-1",
			want:       license.OutcomeValidBind,
			wantID:     1,
			wantStored: strPtr("PC-1"),
		},
		{
			name: "unbound without hwid stays unbound",
			setup: func(t *testing.T, f *keyServiceFixture) {
				f.create(t, "K", 1, false)
			},
			key:    "K",
			want:   license.OutcomeValidPlain,
			wantID: 1,
		},
		{
			name: "matching hwid",
			setup: func(t *testing.T, f *keyServiceFixture) {
				id := f.create(t, "K", 1, false)
				require.NoError(t, f.svc.UpdateHwid(context.Background(), id, strPtr("PC-1")))
			},
			key:        "K",
			hwid:       "PC-1",
			want:       license.OutcomeValidPlain,
			wantID:     1,
			wantStored: strPtr("PC-1"),
		},
		{
			name: "different hwid",
			setup: func(t *testing.T, f *keyServiceFixture) {
				id := f.create(t, "K", 1, false)
				require.NoError(t, f.svc.UpdateHwid(context.Background(), id, strPtr("PC-1")))
			},
			key:        "K",
			hwid:       "PC-2",
			want:       license.OutcomeMismatch,
			wantStored: strPtr("PC-1"),
		},
		{
			name: "bound key without hwid",
			setup: func(t *testing.T, f *keyServiceFixture) {
				id := f.create(t, "K", 1, false)
				require.NoError(t, f.svc.UpdateHwid(context.Background(), id, strPtr("PC-1")))
			},
			key:        "K",
			want:       license.OutcomeValidPlain,
			wantID:     1,
			wantStored: strPtr("PC-1"),
		},
		{
			name: "expiry exactly now is still valid",
			setup: func(t *testing.T, f *keyServiceFixture) {
				f.create(t, "K", 1, false)
				f.clock.Advance(30 * 24 * time.Hour)
			},
			key:    "K",
			want:   license.OutcomeValidPlain,
			wantID: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newKeyServiceFixture(t)
			tt.setup(t, f)

			res, err := f.svc.Verify(context.Background(), tt.key, tt.hwid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.wantID, res.ID)

			if tt.want == license.OutcomeNotFound {
				return
			}
			rec, err := f.store.GetByKey(context.Background(), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStored, rec.Hwid)
		})
	}
}

func TestKeyService_BindIsPermanent(t *testing.T) {
	f := newKeyServiceFixture(t)
	ctx := context.Background()
	f.create(t, "K", 1, false)

	res, err := f.svc.Verify(ctx, "K", "PC-1")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeValidBind, res.Outcome)

	res, err = f.svc.Verify(ctx, "K", "PC-2")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeMismatch, res.Outcome)

	res, err = f.svc.Verify(ctx, "K", "PC-1")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeValidPlain, res.Outcome)
}

func TestKeyService_VerifyDuplicateKeysUsesLowestID(t *testing.T) {
	f := newKeyServiceFixture(t)
	f.create(t, "DUP", 1, false)
	f.create(t, "DUP", 1, true)

	res, err := f.svc.Verify(context.Background(), "DUP", "PC-1")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeValidBind, res.Outcome)
	assert.Equal(t, int64(1), res.ID)
}

func TestKeyService_VerifyRequiresKey(t *testing.T) {
	f := newKeyServiceFixture(t)

	_, err := f.svc.Verify(context.Background(), "", "PC-1")
	assert.ErrorIs(t, err, license.ErrKeyRequired)
}

func TestKeyService_UpdateHwid(t *testing.T) {
	tests := []struct {
		name string
		hwid *string
		want *string
	}{
		{"set", strPtr("PC-9"), strPtr("PC-9")},
		{"set bypass", strPtr(license.BypassMarker), strPtr(license.BypassMarker)},
		{"null clears", nil, nil},
		{"empty clears and is kept as given", strPtr(""), strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newKeyServiceFixture(t)
			ctx := context.Background()
			id := f.create(t, "K", 1, false)
			require.NoError(t, f.svc.UpdateHwid(ctx, id, strPtr("OLD")))

			require.NoError(t, f.svc.UpdateHwid(ctx, id, tt.hwid))

			rec, err := f.store.GetByKey(ctx, "K")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Hwid)
		})
	}
}

func TestKeyService_ResetAllowsRebind(t *testing.T) {
	f := newKeyServiceFixture(t)
	ctx := context.Background()
	id := f.create(t, "K", 1, false)

	_, err := f.svc.Verify(ctx, "K", "PC-1")
	require.NoError(t, err)
	require.NoError(t, f.svc.UpdateHwid(ctx, id, nil))

	res, err := f.svc.Verify(ctx, "K", "PC-2")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeValidBind, res.Outcome)
}

func TestKeyService_UnknownIDIsNoop(t *testing.T) {
	f := newKeyServiceFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.UpdateHwid(ctx, 42, strPtr("PC-1")))
	assert.NoError(t, f.svc.Delete(ctx, 42))
}

func TestKeyService_Delete(t *testing.T) {
	f := newKeyServiceFixture(t)
	ctx := context.Background()
	id := f.create(t, "K", 1, false)

	require.NoError(t, f.svc.Delete(ctx, id))

	res, err := f.svc.Verify(ctx, "K", "")
	require.NoError(t, err)
	assert.Equal(t, license.OutcomeNotFound, res.Outcome)
}

func TestKeyService_StoreFailures(t *testing.T) {
	boom := errors.New("disk I/O error")

	tests := []struct {
		name      string
		setupMock func(m *MockStore)
		call      func(svc KeyService) error
	}{
		{
			name: "create",
			setupMock: func(m *MockStore) {
				m.On("Create", mock.Anything, mock.Anything).Return(int64(0), boom)
			},
			call: func(svc KeyService) error {
				_, err := svc.Create(context.Background(), CreateKeyInput{Key: "K", Months: 1})
				return err
			},
		},
		{
			name: "list",
			setupMock: func(m *MockStore) {
				m.On("ListAll", mock.Anything).Return(nil, boom)
			},
			call: func(svc KeyService) error {
				_, err := svc.List(context.Background())
				return err
			},
		},
		{
			name: "lookup",
			setupMock: func(m *MockStore) {
				m.On("GetByKey", mock.Anything, "K").Return(nil, boom)
			},
			call: func(svc KeyService) error {
				_, err := svc.Verify(context.Background(), "K", "PC-1")
				return err
			},
		},
		{
			name: "bind",
			setupMock: func(m *MockStore) {
				rec := testutil.NewKeyFixtures().Unbound("K")
				rec.ID = 7
				m.On("GetByKey", mock.Anything, "K").Return(&rec, nil)
				m.On("UpdateHwid", mock.Anything, int64(7), mock.Anything).Return(boom)
			},
			call: func(svc KeyService) error {
				_, err := svc.Verify(context.Background(), "K", "PC-1")
				return err
			},
		},
		{
			name: "delete",
			setupMock: func(m *MockStore) {
				m.On("DeleteByID", mock.Anything, int64(3)).Return(boom)
			},
			call: func(svc KeyService) error {
				return svc.Delete(context.Background(), 3)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockStore)
			tt.setupMock(m)
			logger, handler := testutil.NewTestLogger(t)
			clock := testutil.NewClock(testutil.FixtureNow)
			svc := NewKeyService(m, clock.Now, nil, logger)

			err := tt.call(svc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStoreFailure)
			testutil.AssertLogContains(t, handler, slog.LevelError, "key store operation failed")
			m.AssertExpectations(t)
		})
	}
}
