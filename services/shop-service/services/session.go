package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yashrajoria/capture-backend/pkg/docstore"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
)

type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionAuthenticated
	SessionAnonymous
)

func (s SessionState) String() string {
	switch s {
	case SessionAuthenticated:
		return "authenticated"
	case SessionAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Identity is the provider's user merged with its users/<uid> profile.
type Identity struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	SessionID string `json:"-"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// SessionHolder tracks one session. Its state moves only on reports from its
// provider subscription: Unknown until the first report, then Authenticated
// or Anonymous.
type SessionHolder struct {
	sessionID string
	provider  IdentityProvider
	gateway   docstore.Gateway
	logger    *zap.Logger

	mu       sync.RWMutex
	state    SessionState
	identity *Identity
	settled  chan struct{}
	expires  time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewSessionHolder(sessionID string, provider IdentityProvider, gateway docstore.Gateway, logger *zap.Logger) *SessionHolder {
	return &SessionHolder{
		sessionID: sessionID,
		provider:  provider,
		gateway:   gateway,
		logger:    logger.With(zap.String("sessionID", sessionID)),
		settled:   make(chan struct{}),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run consumes provider reports until ctx ends or Close is called.
func (h *SessionHolder) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	updates, unsubscribe := h.provider.Subscribe(h.sessionID)
	defer func() {
		unsubscribe()
		cancel()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		case user := <-updates:
			h.apply(ctx, user)
		}
	}
}

func (h *SessionHolder) apply(ctx context.Context, user *AuthUser) {
	if user == nil {
		h.set(SessionAnonymous, nil)
		return
	}

	identity := &Identity{UID: user.UID, Email: user.Email, Role: user.Role, SessionID: h.sessionID}
	var profile models.UserProfile
	err := h.gateway.Get(ctx, docstore.Users, user.UID, &profile)
	switch {
	case err == nil:
		if profile.Email != "" {
			identity.Email = profile.Email
		}
		identity.Name = profile.Name
		if profile.Role != "" {
			identity.Role = profile.Role
		}
	case errors.Is(err, docstore.ErrNotFound):
	default:
		h.logger.Warn("Profile fetch failed, using bare identity", zap.String("uid", user.UID), zap.Error(err))
	}
	h.set(SessionAuthenticated, identity)
}

func (h *SessionHolder) set(state SessionState, identity *Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	h.identity = identity
	select {
	case <-h.settled:
	default:
		close(h.settled)
	}
}

func (h *SessionHolder) Current() (SessionState, *Identity) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state, h.identity
}

// Wait blocks while the session is Unknown.
func (h *SessionHolder) Wait(ctx context.Context) (SessionState, *Identity, error) {
	select {
	case <-h.settled:
		state, id := h.Current()
		return state, id, nil
	case <-h.done:
		state, id := h.Current()
		return state, id, nil
	case <-ctx.Done():
		return SessionUnknown, nil, ctx.Err()
	}
}

func (h *SessionHolder) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// SessionRegistry owns one running holder per signed-in session.
type SessionRegistry struct {
	provider IdentityProvider
	gateway  docstore.Gateway
	logger   *zap.Logger

	ctx     context.Context
	mu      sync.Mutex
	holders map[string]*SessionHolder
}

func NewSessionRegistry(ctx context.Context, provider IdentityProvider, gateway docstore.Gateway, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		provider: provider,
		gateway:  gateway,
		logger:   logger,
		ctx:      ctx,
		holders:  make(map[string]*SessionHolder),
	}
}

// Open returns the holder for sessionID, starting one if needed.
func (r *SessionRegistry) Open(sessionID string) *SessionHolder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.holders[sessionID]; ok {
		return h
	}
	h := NewSessionHolder(sessionID, r.provider, r.gateway, r.logger)
	r.holders[sessionID] = h
	go h.Run(r.ctx)
	return h
}

// Resolve verifies token and returns the merged identity of its session.
func (r *SessionRegistry) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := r.provider.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	h := r.Open(claims.SessionID)
	h.mu.Lock()
	h.expires = claims.ExpiresAt
	h.mu.Unlock()

	state, identity, err := h.Wait(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	if state != SessionAuthenticated {
		r.Close(claims.SessionID)
		return nil, apperrors.ErrUnauthorized
	}
	return identity, nil
}

func (r *SessionRegistry) Close(sessionID string) {
	r.mu.Lock()
	h, ok := r.holders[sessionID]
	delete(r.holders, sessionID)
	r.mu.Unlock()
	if ok {
		h.Close()
	}
}

// Sweep closes holders whose tokens have expired.
func (r *SessionRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	var stale []*SessionHolder
	for id, h := range r.holders {
		h.mu.RLock()
		expired := !h.expires.IsZero() && now.After(h.expires)
		h.mu.RUnlock()
		if expired {
			stale = append(stale, h)
			delete(r.holders, id)
		}
	}
	r.mu.Unlock()

	for _, h := range stale {
		h.Close()
	}
	return len(stale)
}

// Len is the number of open holders.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.holders)
}
