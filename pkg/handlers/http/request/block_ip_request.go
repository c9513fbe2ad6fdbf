package request

import (
	"fmt"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
)

type BlockIPRequest struct {
	Reason    string `json:"reason"`
	Category  string `json:"category"`
	Duration  string `json:"duration"`
	Permanent bool   `json:"permanent"`
}

func (r *BlockIPRequest) Validate() error {
	if r.Permanent && r.Duration != "" {
		return fmt.Errorf("duration cannot be set on a permanent block")
	}
	if r.Duration == "" {
		return nil
	}
	d, err := time.ParseDuration(r.Duration)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", r.Duration, err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

// ManualBlock converts the request; call Validate first.
func (r *BlockIPRequest) ManualBlock(actor string) (engine.ManualBlock, error) {
	mb := engine.ManualBlock{
		Reason:    r.Reason,
		Category:  r.Category,
		Permanent: r.Permanent,
		Actor:     actor,
	}
	if r.Duration != "" {
		d, err := time.ParseDuration(r.Duration)
		if err != nil {
			return mb, err
		}
		mb.Duration = d
	}
	return mb, nil
}
