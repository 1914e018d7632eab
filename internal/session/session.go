// Package session is the single source of truth for who is signed in. It
// restores the token and user from persistent storage at startup and keeps
// storage in step on login, logout, profile changes and rejected tokens.
package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/granme/caprisystem/internal/storage"
	"github.com/granme/caprisystem/pkg/types"
)

// Storage keys.
const (
	KeyToken = "authToken"
	KeyUser  = "user"
)

// Users is the part of the API the session needs.
type Users interface {
	Login(ctx context.Context, creds types.Credentials) (types.LoginResponse, error)
	Register(ctx context.Context, reg types.Registration) (types.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, id int64, update types.ProfileUpdate) (types.User, error)
	ForgotPassword(ctx context.Context, req types.PasswordRecovery) error
}

// Store holds the current session.
type Store struct {
	kv    storage.Store
	users Users
	log   *zap.SugaredLogger
	now   func() time.Time

	mu    sync.RWMutex
	token string
	user  *types.User
}

// New returns an unauthenticated store. Call Bootstrap to restore a
// persisted session.
func New(kv storage.Store, users Users, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{kv: kv, users: users, log: logger, now: time.Now}
}

// Token returns the bearer token, empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user.
func (s *Store) User() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a token and user are held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// Bootstrap restores the persisted session. Partial or corrupt data and
// expired tokens are purged and leave the store unauthenticated. Only
// storage failures are returned.
func (s *Store) Bootstrap() error {
	token, hasToken, err := s.kv.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("reading session token: %w", err)
	}
	raw, hasUser, err := s.kv.Get(KeyUser)
	if err != nil {
		return fmt.Errorf("reading session user: %w", err)
	}

	if !hasToken && !hasUser {
		s.set("", nil)
		return nil
	}
	if !hasToken || !hasUser || strings.TrimSpace(token) == "" {
		s.log.Infow("purging partial session", "has_token", hasToken, "has_user", hasUser)
		return s.Clear()
	}

	var user types.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || (user.Email == "" && user.ID == 0) {
		s.log.Infow("purging corrupt session user", "error", err)
		return s.Clear()
	}
	if s.expired(token) {
		s.log.Infow("purging expired session token")
		return s.Clear()
	}

	s.set(token, &user)
	s.log.Debugw("session restored", "user_id", user.ID)
	return nil
}

// expired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire client-side.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}

func (s *Store) set(token string, user *types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *Store) persist(token string, user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding session user: %w", err)
	}
	if err := s.kv.Set(KeyToken, token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	if err := s.kv.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("storing session user: %w", err)
	}
	s.set(token, &user)
	return nil
}

// Clear forgets the session in memory and in storage.
func (s *Store) Clear() error {
	s.set("", nil)
	if err := s.kv.Delete(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Login authenticates with the email lower-cased and persists the token
// and user. On failure the store stays unauthenticated.
func (s *Store) Login(ctx context.Context, creds types.Credentials) (types.User, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))

	resp, err := s.users.Login(ctx, creds)
	if err != nil {
		s.log.Infow("login rejected", "email", creds.Email, "error", err)
		return types.User{}, classifyLogin(err)
	}
	if strings.TrimSpace(resp.Token) == "" || resp.User == nil {
		return types.User{}, &Error{Err: ErrMissingToken, Message: MsgMissingToken}
	}
	if err := s.persist(resp.Token, *resp.User); err != nil {
		return types.User{}, err
	}
	s.log.Infow("signed in", "user_id", resp.User.ID)
	return *resp.User, nil
}

// Logout asks the server to invalidate the token, then clears the session
// whatever the server answered.
func (s *Store) Logout(ctx context.Context) error {
	if s.Token() != "" {
		if err := s.users.Logout(ctx); err != nil {
			s.log.Infow("server logout failed, clearing session anyway", "error", err)
		}
	}
	return s.Clear()
}

// Register creates an account from the normalized input. It does not sign
// in.
func (s *Store) Register(ctx context.Context, reg types.Registration) (types.User, error) {
	user, err := s.users.Register(ctx, reg.Normalize())
	if err != nil {
		return types.User{}, classifyRegister(err)
	}
	return user, nil
}

// emailPattern is the shape an address must have before a recovery request
// is sent: something@something.tld without spaces.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ForgotPassword requests a password reset link for email. The address is
// checked locally first; a malformed one never reaches the server.
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return &Error{Err: ErrInvalidEmail, Message: MsgEmailRequired}
	}
	if !emailPattern.MatchString(email) {
		return &Error{Err: ErrInvalidEmail, Message: MsgEmailInvalid}
	}
	if err := s.users.ForgotPassword(ctx, types.PasswordRecovery{Email: email}); err != nil {
		return classifyRecovery(err)
	}
	s.log.Debugw("password recovery requested")
	return nil
}

// UpdateProfile updates user id. When id is the signed-in user the response
// is merged into the persisted user.
func (s *Store) UpdateProfile(ctx context.Context, id int64, update types.ProfileUpdate) (types.User, error) {
	if !s.IsAuthenticated() {
		return types.User{}, &Error{Err: ErrNotAuthenticated, Message: MsgNotAuthenticated}
	}
	updated, err := s.users.UpdateProfile(ctx, id, update.Normalize())
	if err != nil {
		return types.User{}, err
	}

	current, _ := s.User()
	if current.ID != id {
		return updated, nil
	}
	merged, err := mergeUser(current, updated)
	if err != nil {
		return types.User{}, err
	}
	if err := s.persist(s.Token(), merged); err != nil {
		return types.User{}, err
	}
	return merged, nil
}

// mergeUser overlays the non-empty fields of update on base.
func mergeUser(base, update types.User) (types.User, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return base, fmt.Errorf("encoding user: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return base, fmt.Errorf("decoding user: %w", err)
	}
	for k, v := range fields {
		if v == nil || v == "" || v == float64(0) {
			delete(fields, k)
		}
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return base, fmt.Errorf("encoding user patch: %w", err)
	}
	merged := base
	if err := json.Unmarshal(patch, &merged); err != nil {
		return base, fmt.Errorf("merging user: %w", err)
	}
	return merged, nil
}
