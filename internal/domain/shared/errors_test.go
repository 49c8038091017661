package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrPropertyNotFound, KindNotFound},
		{fmt.Errorf("lookup: %w", ErrUserNotFound), KindNotFound},
		{ErrNotPropertyOwner, KindForbidden},
		{ErrCallerUnknown, KindForbidden},
		{ErrInvalidPrice, KindInvalidInput},
		{ErrBidNotFound, KindInvalidInput},
		{ErrPropertyAlreadySold, KindConflict},
		{fmt.Errorf("purchase: %w", ErrUpdateConflict), KindConflict},
		{ErrInvalidCredentials, KindUnauthorized},
		{errors.New("boom"), KindInternal},
		{nil, KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "internal", KindInternal.String())
}
