package request

import (
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
)

type WhitelistRequest struct {
	CIDR string `json:"cidr"`
	Note string `json:"note"`
}

func (r *WhitelistRequest) Validate() error {
	if r.CIDR == "" {
		return fmt.Errorf("cidr is required")
	}
	if _, err := block.ParsePrefix(r.CIDR); err != nil {
		return fmt.Errorf("invalid cidr %q", r.CIDR)
	}
	return nil
}
