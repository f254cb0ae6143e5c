package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"github.com/yashrajoria/capture-backend/services/common/auth"
	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthUser is the identity reported by the provider, before any profile merge.
type AuthUser struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type SignInResult struct {
	User        AuthUser
	SessionID   string
	AccessToken string
	ExpiresAt   time.Time
}

// IdentityProvider authenticates users and reports per-session sign-in state.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, role string) (*AuthUser, error)
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	SignOut(ctx context.Context, sessionID string) error
	Verify(ctx context.Context, token string) (*auth.Claims, error)
	// Subscribe reports the session's current user on the channel, nil once
	// signed out. Only the latest report is kept for a slow reader.
	Subscribe(sessionID string) (<-chan *AuthUser, func())
}

// RevocationStore outlives the process so signed-out tokens stay rejected
// after a restart. Satisfied by *repository.SessionRepository.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type sessionEntry struct {
	user    *AuthUser
	expires time.Time
}

// PasswordProvider keeps bcrypt credentials in the credentials collection and
// issues JWT access tokens bound to a session id.
type PasswordProvider struct {
	gateway     docstore.Gateway
	tokens      *auth.TokenService
	logger      *zap.Logger
	cost        int
	now         func() time.Time
	revocations RevocationStore

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	revoked  map[string]time.Time
	subs     map[string]map[chan *AuthUser]struct{}
}

func NewPasswordProvider(gateway docstore.Gateway, tokens *auth.TokenService, logger *zap.Logger) *PasswordProvider {
	return &PasswordProvider{
		gateway:  gateway,
		tokens:   tokens,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
		revoked:  make(map[string]time.Time),
		subs:     make(map[string]map[chan *AuthUser]struct{}),
	}
}

// WithRevocationStore persists sign-outs in store.
func (p *PasswordProvider) WithRevocationStore(store RevocationStore) *PasswordProvider {
	p.revocations = store
	return p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *PasswordProvider) CreateUser(ctx context.Context, email, password, role string) (*AuthUser, error) {
	key := normalizeEmail(email)

	var existing models.Credential
	err := p.gateway.Get(ctx, docstore.Credentials, key, &existing)
	if err == nil {
		return nil, apperrors.ErrAlreadyExists
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, remoteErr(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternalServer, "failed to hash password: %v", err)
	}

	cred := models.Credential{
		UID:          uuid.NewString(),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.gateway.Set(ctx, docstore.Credentials, key, cred); err != nil {
		return nil, remoteErr(err)
	}
	return &AuthUser{UID: cred.UID, Email: key, Role: role}, nil
}

// SignIn starts a new session. Unknown emails and wrong passwords both report
// ErrInvalidCredentials.
func (p *PasswordProvider) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	key := normalizeEmail(email)

	var cred models.Credential
	if err := p.gateway.Get(ctx, docstore.Credentials, key, &cred); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, remoteErr(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	user := AuthUser{UID: cred.UID, Email: key, Role: cred.Role}
	sessionID := uuid.NewString()
	token, exp, err := p.tokens.Issue(user.UID, user.Email, user.Role, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	p.mu.Lock()
	p.sessions[sessionID] = &sessionEntry{user: &user, expires: exp}
	p.mu.Unlock()
	p.notify(sessionID, &user)

	return &SignInResult{User: user, SessionID: sessionID, AccessToken: token, ExpiresAt: exp}, nil
}

func (p *PasswordProvider) SignOut(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	exp := p.now().Add(24 * time.Hour)
	if s, ok := p.sessions[sessionID]; ok {
		exp = s.expires
	}
	delete(p.sessions, sessionID)
	p.revoked[sessionID] = exp
	p.mu.Unlock()

	p.notify(sessionID, nil)

	if p.revocations != nil {
		if err := p.revocations.Revoke(ctx, sessionID, exp); err != nil {
			p.logger.Error("Failed to persist sign-out", zap.String("sessionID", sessionID), zap.Error(err))
			return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
		}
	}
	return nil
}

// Verify checks the token and that its session was not signed out, here or,
// with a revocation store, by any earlier process. A valid token for a session
// this process has not seen (e.g. after a restart) re-registers the session
// from the token's claims.
func (p *PasswordProvider) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}

	p.mu.Lock()
	_, gone := p.revoked[claims.SessionID]
	p.mu.Unlock()
	if !gone && p.revocations != nil {
		gone, err = p.revocations.IsRevoked(ctx, claims.SessionID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
		}
		if gone {
			p.mu.Lock()
			delete(p.sessions, claims.SessionID)
			p.revoked[claims.SessionID] = claims.ExpiresAt
			p.mu.Unlock()
		}
	}
	if gone {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "session %s signed out", claims.SessionID)
	}

	p.mu.Lock()
	_, known := p.sessions[claims.SessionID]
	if !known {
		p.sessions[claims.SessionID] = &sessionEntry{
			user:    &AuthUser{UID: claims.UserID, Email: claims.Email, Role: claims.Role},
			expires: claims.ExpiresAt,
		}
	}
	user := p.sessions[claims.SessionID].user
	p.mu.Unlock()

	if !known {
		p.notify(claims.SessionID, user)
	}
	return claims, nil
}

func (p *PasswordProvider) Subscribe(sessionID string) (<-chan *AuthUser, func()) {
	ch := make(chan *AuthUser, 1)

	p.mu.Lock()
	if p.subs[sessionID] == nil {
		p.subs[sessionID] = make(map[chan *AuthUser]struct{})
	}
	p.subs[sessionID][ch] = struct{}{}
	if s, ok := p.sessions[sessionID]; ok {
		ch <- s.user
	} else if _, gone := p.revoked[sessionID]; gone {
		ch <- nil
	}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs[sessionID], ch)
			if len(p.subs[sessionID]) == 0 {
				delete(p.subs, sessionID)
			}
			p.mu.Unlock()
		})
	}
}

func (p *PasswordProvider) notify(sessionID string, user *AuthUser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subs[sessionID] {
		select {
		case <-ch:
		default:
		}
		ch <- user
	}
}

// Sweep forgets sessions and revocations whose tokens have expired.
func (p *PasswordProvider) Sweep(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, s := range p.sessions {
		if now.After(s.expires) {
			delete(p.sessions, id)
			n++
		}
	}
	for id, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, id)
		}
	}
	return n
}
