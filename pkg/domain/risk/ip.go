package risk

import (
	"fmt"
	"net/netip"
	"strings"
)

// NormalizeIP parses ip and returns its canonical text form. IPv4-mapped IPv6
// addresses are unmapped so both spellings share one key.
func NormalizeIP(ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	return addr.Unmap().String(), nil
}
