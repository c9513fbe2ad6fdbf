package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFromMap(t *testing.T) {
	c, err := ContextFromMap(map[string]interface{}{
		"isFirstVisit":    "true",
		"hasValidSession": true,
		"userAgent":       "curl/8.0",
		"campaign":        "spring",
	})
	require.NoError(t, err)
	assert.True(t, c.IsFirstVisit)
	assert.True(t, c.HasValidSession)
	assert.False(t, c.SuspiciousUserAgent)
	assert.Equal(t, "curl/8.0", c.UserAgent)
	assert.Equal(t, "spring", c.Hints["campaign"])
}

func TestContextFromMap_Empty(t *testing.T) {
	c, err := ContextFromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, Context{}, c)
}

func TestNormalizeIP(t *testing.T) {
	ip, err := NormalizeIP(" 203.0.113.5 ")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.5", ip)

	ip, err = NormalizeIP("::ffff:192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", ip)

	_, err = NormalizeIP("300.1.1.1")
	assert.ErrorIs(t, err, ErrInvalidIP)
	_, err = NormalizeIP("")
	assert.ErrorIs(t, err, ErrInvalidIP)
}
