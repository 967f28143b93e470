package ledgererr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesClassAndReason(t *testing.T) {
	err := fmt.Errorf("create expense: %w", Invalid("custom_amounts", ErrCustomSum, "got %d, want %d", 10001, 10000))

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrCustomSum)
	assert.NotErrorIs(t, err, ErrPercentSum)
	assert.Contains(t, err.Error(), "custom_amounts")

	var verr *ValidationError
	if assert.True(t, errors.As(err, &verr)) {
		assert.Equal(t, "custom_amounts", verr.Field)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"lock timeout", &LockTimeoutError{GroupID: "g", Waited: time.Second}, true},
		{"wrapped lock timeout", fmt.Errorf("append: %w", &LockTimeoutError{GroupID: "g"}), true},
		{"validation", Invalid("amount", ErrNonPositiveTotal, ""), false},
		{"consistency", &ConsistencyError{GroupID: "g", Sum: 1}, false},
		{"not found", NotFound("group", "g"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestTypedErrorsUnwrapToClass(t *testing.T) {
	assert.ErrorIs(t, &ConsistencyError{}, ErrConsistency)
	assert.ErrorIs(t, NotFound("member", "bob"), ErrNotFound)
	assert.EqualError(t, NotFound("member", "bob"), "ledger: member not found: bob")
}
