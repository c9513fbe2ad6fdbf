package block

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhitelistEntry is a row of whitelisted_ips. CIDR holds either a prefix or a
// single address.
type WhitelistEntry struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CIDR      string    `json:"cidr" gorm:"type:varchar(64);not null;uniqueIndex"`
	Note      string    `json:"note,omitempty" gorm:"type:text"`
	AddedBy   string    `json:"added_by,omitempty" gorm:"type:varchar(128)"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *WhitelistEntry) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	return nil
}

func (w *WhitelistEntry) TableName() string {
	return "whitelisted_ips"
}

// ParsePrefix accepts "10.0.0.0/8" or "10.0.0.1" and returns a masked prefix.
func ParsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid cidr %q: %w", s, err)
		}
		if p.Addr().Is4In6() {
			p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid ip %q: %w", s, err)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// CanonicalCIDR renders a prefix the way it is stored. Single addresses are
// stored without a mask.
func CanonicalCIDR(p netip.Prefix) string {
	if p.IsSingleIP() {
		return p.Addr().String()
	}
	return p.String()
}
