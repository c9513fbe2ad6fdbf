package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockIPRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     BlockIPRequest
		wantErr bool
	}{
		{name: "empty uses defaults", req: BlockIPRequest{}},
		{name: "valid duration", req: BlockIPRequest{Duration: "30m"}},
		{name: "permanent", req: BlockIPRequest{Permanent: true}},
		{name: "bad duration", req: BlockIPRequest{Duration: "soon"}, wantErr: true},
		{name: "negative duration", req: BlockIPRequest{Duration: "-1h"}, wantErr: true},
		{name: "permanent with duration", req: BlockIPRequest{Permanent: true, Duration: "1h"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBlockIPRequest_ManualBlock(t *testing.T) {
	req := BlockIPRequest{Reason: "abuse report", Category: "spam", Duration: "2h"}
	mb, err := req.ManualBlock("ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, mb.Duration)
	assert.Equal(t, "abuse report", mb.Reason)
	assert.Equal(t, "spam", mb.Category)
	assert.Equal(t, "ops@example.com", mb.Actor)
	assert.False(t, mb.Permanent)
}
