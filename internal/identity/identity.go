// Package identity supplies the current-user identifier the persistence
// layer scopes its keys by. The budget engine never validates identity
// itself; this package is the thin collaborator it depends on.
package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"phambili/internal/storage"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotLoggedIn        = errors.New("no user is logged in")
)

// Provider yields the identifier storage keys are scoped by.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// Static always reports the same user. Useful for single-user deployments
// and tests.
type Static string

func (s Static) CurrentUserID(context.Context) (string, bool) {
	return string(s), s != ""
}

// Registry manages accounts in the shared user list and tracks the current
// session under its own storage key. Passwords are base64-encoded, not
// hashed: this is account plumbing, not security.
type Registry struct {
	kv storage.KV
}

func NewRegistry(kv storage.KV) *Registry {
	return &Registry{kv: kv}
}

func (r *Registry) CurrentUserID(ctx context.Context) (string, bool) {
	id, err := r.kv.Get(ctx, storage.CurrentUserKey)
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// Register creates an account. Email uniqueness is case-insensitive.
func (r *Registry) Register(ctx context.Context, name, email, password string) (storage.UserRecord, error) {
	email = strings.TrimSpace(email)
	if name = strings.TrimSpace(name); name == "" || email == "" || password == "" {
		return storage.UserRecord{}, errors.New("name, email and password are required")
	}

	users, err := storage.LoadUserRecords(ctx, r.kv)
	if err != nil {
		return storage.UserRecord{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return storage.UserRecord{}, ErrEmailTaken
		}
	}

	user := storage.UserRecord{
		ID:              strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:            name,
		Email:           email,
		EncodedPassword: base64.StdEncoding.EncodeToString([]byte(password)),
	}
	users = append(users, user)
	if err := storage.SaveUserRecords(ctx, r.kv, users); err != nil {
		return storage.UserRecord{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and marks the matching user as current.
func (r *Registry) Login(ctx context.Context, email, password string) (storage.UserRecord, error) {
	users, err := storage.LoadUserRecords(ctx, r.kv)
	if err != nil {
		return storage.UserRecord{}, err
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(password))
	for _, u := range users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) && u.EncodedPassword == encoded {
			if err := r.kv.Set(ctx, storage.CurrentUserKey, u.ID); err != nil {
				return storage.UserRecord{}, fmt.Errorf("set current user: %w", err)
			}
			return u, nil
		}
	}
	return storage.UserRecord{}, ErrInvalidCredentials
}

// Logout clears the current session marker.
func (r *Registry) Logout(ctx context.Context) error {
	return r.kv.Remove(ctx, storage.CurrentUserKey)
}
