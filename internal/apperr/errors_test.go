package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("send message: %w", Forbidden("not a participant"))

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "not a participant", appErr.Message)
}
