package event

type WhitelistChangedEvent struct {
	Origin string `json:"origin"`
	CIDR   string `json:"cidr"`
	Added  bool   `json:"added"`
}

func (e WhitelistChangedEvent) Type() string {
	return WhitelistChangedEventType
}
