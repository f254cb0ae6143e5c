package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/common/auth"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	gw       *docstore.MemoryGateway
	provider *PasswordProvider
	registry *SessionRegistry
	svc      *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	gw := docstore.NewMemoryGateway()
	provider := NewPasswordProvider(gw, tokens, zap.NewNop())
	provider.cost = bcrypt.MinCost
	registry := NewSessionRegistry(ctx, provider, gw, zap.NewNop())
	svc := NewAuthService(provider, registry, gw, NewValidator(), []string{"Owner@Capture.test"}, zap.NewNop())
	return &authFixture{gw: gw, provider: provider, registry: registry, svc: svc}
}

func TestRegisterMergesProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, models.RegisterRequest{Email: "Jane@Example.com", Password: "secret1", Name: "Jane"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "jane@example.com", res.User.Email)
	assert.Equal(t, "Jane", res.User.Name)
	assert.Equal(t, models.RoleCustomer, res.User.Role)

	var profile models.UserProfile
	require.NoError(t, f.gw.Get(ctx, docstore.Users, res.User.UID, &profile))
	assert.Equal(t, "Jane", profile.Name)

	_, err = f.svc.Register(ctx, models.RegisterRequest{Email: "jane@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestRegisterGrantsAdminRole(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.Register(context.Background(), models.RegisterRequest{Email: "owner@capture.test", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, models.RegisterRequest{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	res, err := f.svc.Login(ctx, models.LoginRequest{Email: "JANE@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", res.User.Email)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, models.RegisterRequest{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)

	identity, err := f.registry.Resolve(ctx, res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, 1, f.registry.Len())

	require.NoError(t, f.svc.Logout(ctx, identity.SessionID))
	assert.Zero(t, f.registry.Len())

	_, err = f.registry.Resolve(ctx, res.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestSessionHolderFollowsProvider(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, err := f.provider.CreateUser(ctx, "jane@example.com", "secret1", models.RoleCustomer)
	require.NoError(t, err)
	signIn, err := f.provider.SignIn(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)

	h := NewSessionHolder(signIn.SessionID, f.provider, f.gw, zap.NewNop())
	state, _ := h.Current()
	assert.Equal(t, SessionUnknown, state)

	go h.Run(ctx)
	defer h.Close()

	state, identity, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, SessionAuthenticated, state)
	assert.Equal(t, user.UID, identity.UID)

	require.NoError(t, f.provider.SignOut(ctx, signIn.SessionID))
	assert.Eventually(t, func() bool {
		s, id := h.Current()
		return s == SessionAnonymous && id == nil
	}, time.Second, 10*time.Millisecond)
}

func TestSessionHolderWaitHonoursContext(t *testing.T) {
	f := newAuthFixture(t)
	h := NewSessionHolder("never-signed-in", f.provider, f.gw, zap.NewNop())
	go h.Run(context.Background())
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	state, _, err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, SessionUnknown, state)
}

func TestVerifyRestoresUnknownSession(t *testing.T) {
	f := newAuthFixture(t)
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.Issue("uid-1", "jane@example.com", models.RoleCustomer, "sess-restored")
	require.NoError(t, err)

	identity, err := f.registry.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", identity.UID)
	assert.Equal(t, "sess-restored", identity.SessionID)
}

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func (m *memRevocations) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[sessionID] = until
	return nil
}

func (m *memRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[sessionID]
	return ok, nil
}

func TestSignOutSurvivesRestart(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	store := &memRevocations{revoked: map[string]time.Time{}}
	gw := docstore.NewMemoryGateway()
	ctx := context.Background()

	before := NewPasswordProvider(gw, tokens, zap.NewNop()).WithRevocationStore(store)
	before.cost = bcrypt.MinCost
	_, err = before.CreateUser(ctx, "jane@example.com", "secret1", models.RoleCustomer)
	require.NoError(t, err)
	signIn, err := before.SignIn(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, before.SignOut(ctx, signIn.SessionID))
	assert.Contains(t, store.revoked, signIn.SessionID)

	after := NewPasswordProvider(gw, tokens, zap.NewNop()).WithRevocationStore(store)
	_, err = after.Verify(ctx, signIn.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	ch, unsubscribe := after.Subscribe(signIn.SessionID)
	defer unsubscribe()
	assert.Nil(t, <-ch)

	other, err := after.SignIn(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)
	claims, err := after.Verify(ctx, other.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, other.SessionID, claims.SessionID)
}

func TestVerifyFailsClosedWhenRevocationStoreIsDown(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	store := &memRevocations{revoked: map[string]time.Time{}, err: errors.New("redis down")}
	provider := NewPasswordProvider(docstore.NewMemoryGateway(), tokens, zap.NewNop()).WithRevocationStore(store)

	token, _, err := tokens.Issue("uid-1", "jane@example.com", models.RoleCustomer, "sess-1")
	require.NoError(t, err)
	_, err = provider.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)

	assert.ErrorIs(t, provider.SignOut(context.Background(), "sess-1"), apperrors.ErrServiceUnavailable)
}

func TestRegistrySweepClosesExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, models.RegisterRequest{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, 1, f.registry.Len())

	assert.Zero(t, f.registry.Sweep(time.Now()))
	assert.Equal(t, 1, f.registry.Sweep(time.Now().Add(2*time.Hour)))
	assert.Zero(t, f.registry.Len())
}

func TestBookingFlow(t *testing.T) {
	svc, gw, _ := newPackageService(t)
	ctx := context.Background()
	pkgs, err := svc.Create(ctx, goldPackage(), nil)
	require.NoError(t, err)
	bookings := NewBookingService(svc, gw, NewValidator(), nil, zap.NewNop())

	draft, err := bookings.SelectPackage(ctx, models.SelectPackageRequest{PackageID: pkgs[0].ID})
	require.NoError(t, err)
	assert.Equal(t, models.StepSchedule, draft.Step)
	assert.Equal(t, "Gold Package", draft.Title)
	assert.Equal(t, 500.0, draft.Price)
	assert.Equal(t, 2.0, draft.Duration)

	_, err = bookings.Submit(ctx, "u1", *draft)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	draft.Date, draft.TimeSlot = "2026-11-02", "10:00"
	draft.FullName, draft.Email = "Jane Doe", "jane@example.com"
	booking, err := bookings.Submit(ctx, "u1", *draft)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)

	var stored models.Booking
	require.NoError(t, gw.Get(ctx, docstore.Bookings, booking.ID, &stored))
	assert.Equal(t, "Team A", stored.Team)
	assert.Equal(t, "2026-11-02", stored.Date)

	_, err = bookings.SelectPackage(ctx, models.SelectPackageRequest{PackageID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
