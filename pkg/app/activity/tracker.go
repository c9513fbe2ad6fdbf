package activity

import (
	"sync"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/common/keylock"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
)

type Trigger string

const (
	TriggerBatch      Trigger = "batch"
	TriggerFailures   Trigger = "failed_attempts"
	TriggerUserAgents Trigger = "user_agents"
)

// Event is one observed request from an IP.
type Event struct {
	Failed     bool      `json:"failed"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Method     string    `json:"method,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Snapshot is a copy of an IP's activity record.
type Snapshot struct {
	IP           string    `json:"ip"`
	RequestCount int       `json:"request_count"`
	FailedCount  int       `json:"failed_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	UserAgents   []string  `json:"user_agents"`
	Endpoints    []string  `json:"endpoints"`
	Events       []Event   `json:"events"`
}

// OnTrigger is called after a record update crosses a trigger rule. It must
// not block.
type OnTrigger func(ip string, trigger Trigger)

//go:generate mockery --name=Tracker --dir=. --output=./mocks --filename=tracker_mock.go --case=underscore --with-expecter
type Tracker interface {
	Record(ip string, evt Event) []Trigger
	Snapshot(ip string) (Snapshot, bool)
	Patterns(ip string, now time.Time) *signals.ActivityPatterns
	Reap(idleSince time.Time) int
	Forget(ip string)
	Len() int
	SetOnTrigger(fn OnTrigger)
}

type record struct {
	requests   int
	failures   int
	firstSeen  time.Time
	lastSeen   time.Time
	userAgents map[string]struct{}
	endpoints  map[string]struct{}
	events     []Event
	failedAt   []time.Time
}

type tracker struct {
	settings *risk.SettingsStore
	locks    *keylock.Sharded
	now      func() time.Time

	records sync.Map
	count   sync.Mutex
	size    int

	onTrigger OnTrigger
	triggerMu sync.RWMutex
}

// NewTracker keeps its own key locks. Sharing them with the analyzer would
// deadlock when an analysis reads patterns while holding the IP's lock.
func NewTracker(settings *risk.SettingsStore) Tracker {
	return &tracker{
		settings: settings,
		locks:    keylock.New(0),
		now:      time.Now,
	}
}

func (t *tracker) SetOnTrigger(fn OnTrigger) {
	t.triggerMu.Lock()
	t.onTrigger = fn
	t.triggerMu.Unlock()
}

// Record updates the record for ip and returns the triggers it fired. It
// never fails; invalid addresses are ignored.
func (t *tracker) Record(ip string, evt Event) []Trigger {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return nil
	}
	ip = normalized
	if evt.Timestamp.IsZero() {
		evt.Timestamp = t.now()
	}
	s := t.settings.Get()

	var fired []Trigger
	t.locks.With(ip, func() {
		rec := t.load(ip, evt.Timestamp)
		rec.requests++
		rec.lastSeen = evt.Timestamp
		newAgent := false
		if evt.UserAgent != "" {
			if _, seen := rec.userAgents[evt.UserAgent]; !seen {
				rec.userAgents[evt.UserAgent] = struct{}{}
				newAgent = true
			}
		}
		if evt.Endpoint != "" {
			rec.endpoints[evt.Endpoint] = struct{}{}
		}
		rec.events = appendBounded(rec.events, evt, s.ActivityRecordCap)
		if evt.Failed {
			rec.failures++
			rec.failedAt = pruneBefore(append(rec.failedAt, evt.Timestamp), evt.Timestamp.Add(-time.Hour))
			if over := len(rec.failedAt) - s.ActivityRecordCap; over > 0 {
				rec.failedAt = append(rec.failedAt[:0], rec.failedAt[over:]...)
			}
		}

		tr := s.Triggers
		if tr.BatchSize > 0 && rec.requests%tr.BatchSize == 0 {
			fired = append(fired, TriggerBatch)
		}
		if evt.Failed && tr.FailedTrigger > 0 && rec.failures >= tr.FailedTrigger {
			fired = append(fired, TriggerFailures)
		}
		// only a new agent can cross the threshold; repeats of known agents
		// must not re-trigger
		if newAgent && tr.UserAgentTrigger > 0 && len(rec.userAgents) >= tr.UserAgentTrigger {
			fired = append(fired, TriggerUserAgents)
		}
	})

	if len(fired) > 0 {
		t.triggerMu.RLock()
		fn := t.onTrigger
		t.triggerMu.RUnlock()
		if fn != nil {
			fn(ip, fired[0])
		}
	}
	return fired
}

func (t *tracker) load(ip string, now time.Time) *record {
	if v, ok := t.records.Load(ip); ok {
		return v.(*record)
	}
	rec := &record{
		firstSeen:  now,
		userAgents: make(map[string]struct{}),
		endpoints:  make(map[string]struct{}),
	}
	t.records.Store(ip, rec)
	t.count.Lock()
	t.size++
	prometheus.TrackedIPs.Set(float64(t.size))
	t.count.Unlock()
	return rec
}

func (t *tracker) Snapshot(ip string) (Snapshot, bool) {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return Snapshot{}, false
	}
	var (
		snap Snapshot
		ok   bool
	)
	t.locks.With(normalized, func() {
		v, found := t.records.Load(normalized)
		if !found {
			return
		}
		rec := v.(*record)
		ok = true
		snap = Snapshot{
			IP:           normalized,
			RequestCount: rec.requests,
			FailedCount:  rec.failures,
			FirstSeen:    rec.firstSeen,
			LastSeen:     rec.lastSeen,
			UserAgents:   keys(rec.userAgents),
			Endpoints:    keys(rec.endpoints),
			Events:       append([]Event(nil), rec.events...),
		}
	})
	return snap, ok
}

// Patterns summarises the record for scoring. Nil means the IP has never
// been seen.
func (t *tracker) Patterns(ip string, now time.Time) *signals.ActivityPatterns {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return nil
	}
	var p *signals.ActivityPatterns
	t.locks.With(normalized, func() {
		v, found := t.records.Load(normalized)
		if !found {
			return
		}
		rec := v.(*record)
		minuteAgo := now.Add(-time.Minute)
		hourAgo := now.Add(-time.Hour)
		p = &signals.ActivityPatterns{
			TotalRequests:      rec.requests,
			TotalFailures:      rec.failures,
			DistinctUserAgents: len(rec.userAgents),
			DistinctEndpoints:  len(rec.endpoints),
			FirstSeen:          rec.firstSeen,
			LastSeen:           rec.lastSeen,
		}
		for i := len(rec.events) - 1; i >= 0; i-- {
			ts := rec.events[i].Timestamp
			if ts.Before(minuteAgo) {
				break
			}
			if !ts.After(now) {
				p.RequestsLastMinute++
			}
		}
		for _, ts := range rec.failedAt {
			if !ts.Before(hourAgo) && !ts.After(now) {
				p.FailuresLastHour++
			}
		}
	})
	return p
}

// Reap drops records whose last activity is before idleSince.
func (t *tracker) Reap(idleSince time.Time) int {
	reaped := 0
	t.records.Range(func(k, _ interface{}) bool {
		ip := k.(string)
		t.locks.With(ip, func() {
			v, ok := t.records.Load(ip)
			if !ok {
				return
			}
			if v.(*record).lastSeen.Before(idleSince) {
				t.records.Delete(ip)
				reaped++
			}
		})
		return true
	})
	if reaped > 0 {
		t.count.Lock()
		t.size -= reaped
		prometheus.TrackedIPs.Set(float64(t.size))
		t.count.Unlock()
	}
	return reaped
}

func (t *tracker) Forget(ip string) {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return
	}
	t.locks.With(normalized, func() {
		if _, loaded := t.records.LoadAndDelete(normalized); loaded {
			t.count.Lock()
			t.size--
			prometheus.TrackedIPs.Set(float64(t.size))
			t.count.Unlock()
		}
	})
}

func (t *tracker) Len() int {
	t.count.Lock()
	defer t.count.Unlock()
	return t.size
}

func appendBounded(events []Event, evt Event, limit int) []Event {
	if limit <= 0 {
		limit = 1
	}
	events = append(events, evt)
	if over := len(events) - limit; over > 0 {
		copy(events, events[over:])
		events = events[:limit]
	}
	return events
}

func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
