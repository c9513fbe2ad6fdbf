package blocking

import (
	"net/netip"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
)

// WhitelistItem is a whitelist entry as exposed to callers. Static items come
// from configuration and cannot be removed at runtime.
type WhitelistItem struct {
	CIDR      string    `json:"cidr"`
	Note      string    `json:"note,omitempty"`
	AddedBy   string    `json:"added_by,omitempty"`
	Static    bool      `json:"static"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type whitelistEntry struct {
	prefix netip.Prefix
	item   WhitelistItem
}

type whitelistIndex struct {
	entries []whitelistEntry
}

func (w *whitelistIndex) contains(addr netip.Addr) bool {
	for _, e := range w.entries {
		if e.prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (w *whitelistIndex) find(cidr string) (whitelistEntry, bool) {
	for _, e := range w.entries {
		if e.item.CIDR == cidr {
			return e, true
		}
	}
	return whitelistEntry{}, false
}

func buildWhitelist(static []netip.Prefix, stored []*block.WhitelistEntry) *whitelistIndex {
	idx := &whitelistIndex{}
	seen := make(map[string]struct{})
	for _, p := range static {
		cidr := block.CanonicalCIDR(p)
		if _, dup := seen[cidr]; dup {
			continue
		}
		seen[cidr] = struct{}{}
		idx.entries = append(idx.entries, whitelistEntry{
			prefix: p,
			item:   WhitelistItem{CIDR: cidr, Static: true},
		})
	}
	for _, e := range stored {
		p, err := block.ParsePrefix(e.CIDR)
		if err != nil {
			continue
		}
		cidr := block.CanonicalCIDR(p)
		if _, dup := seen[cidr]; dup {
			continue
		}
		seen[cidr] = struct{}{}
		idx.entries = append(idx.entries, whitelistEntry{
			prefix: p,
			item: WhitelistItem{
				CIDR:      cidr,
				Note:      e.Note,
				AddedBy:   e.AddedBy,
				CreatedAt: e.CreatedAt,
			},
		})
	}
	return idx
}
