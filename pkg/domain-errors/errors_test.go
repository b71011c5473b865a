package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load work")

	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeInternal))
	assert.Equal(t, "internal_error: failed to load work: connection reset", err.Error())
}

func TestHasCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("commit: %w", New(CodeCommitFailed, "ownership update failed"))

	assert.True(t, HasCode(err, CodeCommitFailed))
	assert.False(t, HasCode(err, CodePaymentFailed))
	assert.Equal(t, CodeCommitFailed, GetCode(err))
}

func TestGetCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, GetCode(errors.New("plain")))
	assert.False(t, Is(nil, CodeInternal))
}
