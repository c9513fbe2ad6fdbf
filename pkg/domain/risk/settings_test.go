package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_ActionFor_PartitionsScoreRange(t *testing.T) {
	s := DefaultSettings()

	for score := 0; score <= 100; score++ {
		action := s.ActionFor(score)
		switch {
		case score >= s.Thresholds.AutoBlock:
			assert.Equal(t, ActionBlock, action, "score %d", score)
		case score >= s.Thresholds.Review:
			assert.Equal(t, ActionReview, action, "score %d", score)
		case score >= s.Thresholds.Monitor:
			assert.Equal(t, ActionMonitor, action, "score %d", score)
		default:
			assert.Equal(t, ActionAllow, action, "score %d", score)
		}
	}
}

func TestSettings_ActionFor_Monotonic(t *testing.T) {
	s := DefaultSettings()
	rank := map[Action]int{ActionAllow: 0, ActionMonitor: 1, ActionReview: 2, ActionBlock: 3}

	prev := rank[s.ActionFor(0)]
	for score := 1; score <= 100; score++ {
		cur := rank[s.ActionFor(score)]
		assert.GreaterOrEqual(t, cur, prev, "score %d", score)
		prev = cur
	}
	assert.Equal(t, ActionBlock, s.ActionFor(85))
	assert.Equal(t, ActionReview, s.ActionFor(84))
	assert.Equal(t, ActionReview, s.ActionFor(70))
	assert.Equal(t, ActionMonitor, s.ActionFor(30))
	assert.Equal(t, ActionAllow, s.ActionFor(29))
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Settings) {}},
		{name: "review above block", mutate: func(s *Settings) { s.Thresholds.Review = 90 }, wantErr: true},
		{name: "block above 100", mutate: func(s *Settings) { s.Thresholds.AutoBlock = 101 }, wantErr: true},
		{name: "zero block duration", mutate: func(s *Settings) { s.TemporaryBlockDuration = 0 }, wantErr: true},
		{name: "zero offense threshold", mutate: func(s *Settings) { s.PermanentBlockThreshold = 0 }, wantErr: true},
		{name: "zero record cap", mutate: func(s *Settings) { s.ActivityRecordCap = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSettings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsStore_UpdateRejectsInvalid(t *testing.T) {
	store, err := NewSettingsStore(DefaultSettings())
	require.NoError(t, err)

	bad := DefaultSettings()
	bad.Thresholds.Monitor = 95
	assert.Error(t, store.Update(bad))
	assert.Equal(t, 85, store.Get().Thresholds.AutoBlock)

	next := DefaultSettings()
	next.Thresholds.AutoBlock = 90
	require.NoError(t, store.Update(next))
	assert.Equal(t, 90, store.Get().Thresholds.AutoBlock)
}

func TestSettings_IsBlockedCountry(t *testing.T) {
	s := DefaultSettings()
	s.BlockedCountries = []string{"KP", "ir"}
	assert.True(t, s.IsBlockedCountry("kp"))
	assert.True(t, s.IsBlockedCountry("IR"))
	assert.False(t, s.IsBlockedCountry("US"))
	assert.False(t, s.IsBlockedCountry(""))
}
