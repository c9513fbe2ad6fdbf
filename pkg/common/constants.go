package common

const (
	BlockEventsChannel = "ipguard:block-events"

	ForwardedForHeader = "X-Forwarded-For"
	RealIPHeader       = "X-Real-IP"
	TraceIDHeader      = "X-Trace-Id"

	SystemActor = "system"
)
