// Package auth resolves login credentials into a session actor.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"equipment-lifecycle/internal/access"
	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/metrics"
	"equipment-lifecycle/internal/model"
)

const op = "login"

// UserFinder looks a user up by credentials. It returns nil, nil when no
// active user matches.
type UserFinder interface {
	FindUser(ctx context.Context, username, secret string) (*model.User, error)
}

// Credentials is a login request. Role, when given, must match the role of
// the user.
type Credentials struct {
	Username string     `json:"username" validate:"required,max=100"`
	Password string     `json:"password" validate:"required"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=admin engineer technician manager"`
}

// Authenticator checks credentials and locks out a username after too many
// failed attempts.
type Authenticator struct {
	users       UserFinder
	failures    *cache.Cache
	maxAttempts int
	lockout     time.Duration
	validate    *validator.Validate
	log         *zap.Logger
	metrics     *metrics.Recorder
}

// New creates an authenticator. Failed attempts are forgotten after lockout.
func New(users UserFinder, maxAttempts int, lockout time.Duration, log *zap.Logger, rec *metrics.Recorder) *Authenticator {
	return &Authenticator{
		users:       users,
		failures:    cache.New(lockout, 2*lockout),
		maxAttempts: maxAttempts,
		lockout:     lockout,
		validate:    validator.New(),
		log:         log,
		metrics:     rec,
	}
}

// Login returns the actor for valid credentials.
func (a *Authenticator) Login(ctx context.Context, cred Credentials) (access.Actor, error) {
	cred.Username = strings.TrimSpace(cred.Username)
	if err := a.validate.Struct(cred); err != nil {
		return access.Actor{}, apperr.Validation(op, "username, password and an optional valid role are required")
	}

	key := strings.ToLower(cred.Username)
	if a.locked(key) {
		a.metrics.Login("locked")
		a.log.Warn("login rejected, user locked out", zap.String("username", cred.Username))
		return access.Actor{}, apperr.Authentication(op, "too many failed attempts, try again later")
	}

	u, err := a.users.FindUser(ctx, cred.Username, cred.Password)
	if err != nil {
		return access.Actor{}, err
	}
	if u == nil || (cred.Role != "" && cred.Role != u.Role) {
		a.fail(key)
		a.metrics.Login("failure")
		a.log.Info("login failed", zap.String("username", cred.Username))
		return access.Actor{}, apperr.Authentication(op, "invalid username, password or role")
	}

	a.failures.Delete(key)
	a.metrics.Login("success")
	a.log.Info("login succeeded", zap.String("username", u.Username), zap.String("role", string(u.Role)))

	name := u.FullName
	if name == "" {
		name = u.Username
	}
	return access.Actor{Username: u.Username, DisplayName: name, Role: u.Role}, nil
}

func (a *Authenticator) locked(key string) bool {
	n, ok := a.failures.Get(key)
	return ok && n.(int) >= a.maxAttempts
}

func (a *Authenticator) fail(key string) {
	if _, err := a.failures.IncrementInt(key, 1); err != nil {
		a.failures.Set(key, 1, a.lockout)
	}
}
