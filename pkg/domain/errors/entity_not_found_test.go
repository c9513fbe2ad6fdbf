package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	err := NewNotFoundError("whitelist entry", "10.0.0.1")
	assert.True(t, IsNotFoundError(err))
	assert.True(t, IsNotFoundError(fmt.Errorf("remove: %w", err)))
	assert.Equal(t, "whitelist entry '10.0.0.1' not found", err.Error())
	assert.False(t, IsNotFoundError(errors.New("boom")))
	assert.False(t, IsNotFoundError(nil))
}
