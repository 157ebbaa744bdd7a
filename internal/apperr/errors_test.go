package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := NotFound("update equipment", "equipment", 7)
	wrapped := fmt.Errorf("commit: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "update equipment: equipment 7 not found", err.Error())
}

func TestConnectivityUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Connectivity("create equipment", cause)

	assert.True(t, errors.Is(err, ErrConnectivity))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsDomain(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", Validation("op", "name is required"), true},
		{"not found", NotFound("op", "maintenance", 1), true},
		{"permission", Permission("op", "denied"), true},
		{"connectivity", Connectivity("op", errors.New("x")), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDomain(tc.err))
		})
	}
}
