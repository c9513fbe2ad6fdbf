package event

// BlockChangedEvent announces that an IP was blocked or released by the
// instance identified by Origin.
type BlockChangedEvent struct {
	Origin string `json:"origin"`
	IP     string `json:"ip"`
	Active bool   `json:"active"`
}

func (e BlockChangedEvent) Type() string {
	return BlockChangedEventType
}
