package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatInstructions(t *testing.T) {
	assert.Equal(t, "[Instructions]\n", FormatInstructions(nil))
	assert.Equal(t,
		"[Instructions]\n- answer in json\n- be terse\n",
		FormatInstructions([]string{"answer in json", "  ", "be terse"}),
	)
}
