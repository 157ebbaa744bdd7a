package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-lifecycle/internal/apperr"
	"equipment-lifecycle/internal/metrics"
	"equipment-lifecycle/internal/model"
	"equipment-lifecycle/internal/store"
)

// memUsers resolves users from the seeded in-memory store.
type memUsers struct {
	s     *store.MemStore
	calls int
	err   error
}

func (m *memUsers) FindUser(ctx context.Context, username, secret string) (*model.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.s.FindUserByCredentials(ctx, username, secret)
}

func newAuth(t *testing.T, maxAttempts int) (*Authenticator, *memUsers) {
	t.Helper()
	users := &memUsers{s: store.NewSeededMemStore(time.Now())}
	rec, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	return New(users, maxAttempts, time.Minute, zap.NewNop(), rec), users
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	a, _ := newAuth(t, 5)

	testCases := []struct {
		name    string
		cred    Credentials
		wantErr error
		want    model.Role
	}{
		{name: "admin", cred: Credentials{Username: "admin", Password: "admin123"}, want: model.RoleAdmin},
		{name: "matching role claim", cred: Credentials{Username: "technician", Password: "tech123", Role: model.RoleTechnician}, want: model.RoleTechnician},
		{name: "padded username", cred: Credentials{Username: "  manager ", Password: "manager123"}, want: model.RoleManager},
		{name: "wrong role claim", cred: Credentials{Username: "engineer", Password: "engineer123", Role: model.RoleAdmin}, wantErr: apperr.ErrAuthentication},
		{name: "wrong password", cred: Credentials{Username: "engineer", Password: "nope"}, wantErr: apperr.ErrAuthentication},
		{name: "unknown user", cred: Credentials{Username: "ghost", Password: "admin123"}, wantErr: apperr.ErrAuthentication},
		{name: "blank password", cred: Credentials{Username: "admin"}, wantErr: apperr.ErrValidation},
		{name: "unknown role", cred: Credentials{Username: "admin", Password: "admin123", Role: "owner"}, wantErr: apperr.ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actor, err := a.Login(ctx, tc.cred)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, actor.Role)
			assert.NotEmpty(t, actor.DisplayName)
		})
	}
}

func TestLogin_Lockout(t *testing.T) {
	ctx := context.Background()
	a, users := newAuth(t, 3)

	for i := 0; i < 3; i++ {
		_, err := a.Login(ctx, Credentials{Username: "admin", Password: "wrong"})
		require.True(t, errors.Is(err, apperr.ErrAuthentication))
	}
	calls := users.calls

	// Locked: even the right password is refused without a lookup.
	_, err := a.Login(ctx, Credentials{Username: "ADMIN", Password: "admin123"})
	assert.True(t, errors.Is(err, apperr.ErrAuthentication))
	assert.Contains(t, err.Error(), "too many failed attempts")
	assert.Equal(t, calls, users.calls)

	// Other users are unaffected.
	_, err = a.Login(ctx, Credentials{Username: "engineer", Password: "engineer123"})
	assert.NoError(t, err)
}

func TestLogin_SuccessResetsFailures(t *testing.T) {
	ctx := context.Background()
	a, _ := newAuth(t, 2)

	_, err := a.Login(ctx, Credentials{Username: "admin", Password: "wrong"})
	require.Error(t, err)
	_, err = a.Login(ctx, Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	_, err = a.Login(ctx, Credentials{Username: "admin", Password: "wrong"})
	require.Error(t, err)

	_, err = a.Login(ctx, Credentials{Username: "admin", Password: "admin123"})
	assert.NoError(t, err)
}

func TestLogin_LookupErrorIsReturned(t *testing.T) {
	a, users := newAuth(t, 3)
	users.err = apperr.Connectivity("find user", errors.New("down"))

	_, err := a.Login(context.Background(), Credentials{Username: "admin", Password: "admin123"})
	assert.True(t, errors.Is(err, apperr.ErrConnectivity))
}
