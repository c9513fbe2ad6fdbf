package event

// ClusterChannel carries state changes between engine instances.
const ClusterChannel = "ipguard:cluster"

type Event interface {
	Type() string
}

const (
	BlockChangedEventType     = "BlockChangedEvent"
	WhitelistChangedEventType = "WhitelistChangedEvent"
)
