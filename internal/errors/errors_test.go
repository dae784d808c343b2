package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "Operation timed out", f.New(errors.ErrTimeout).Error())
	assert.Equal(t, "Command exited with non-zero status: exit 1",
		f.WithData(errors.ErrNonZeroExit, "exit 1").Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrInternal, "custom").Error())
}

func TestWrapAndCodes(t *testing.T) {
	f := errors.New()
	cause := fmt.Errorf("boom")
	err := fmt.Errorf("outer: %w", f.Wrap(errors.ErrSpawn, cause))

	assert.Equal(t, errors.ErrSpawn, errors.CodeOf(err))
	assert.True(t, errors.HasCode(err, errors.ErrSpawn))
	assert.False(t, errors.HasCode(err, errors.ErrTimeout))
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, f.New(errors.ErrSpawn))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(cause))
}
