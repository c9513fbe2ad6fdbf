package lifecycle

import (
	"sync"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/common/keylock"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
)

type entry struct {
	state   risk.State
	changed time.Time
}

type shard struct {
	mu     sync.RWMutex
	states map[string]entry
}

// Registry tracks the lifecycle state of every IP the engine has reasoned
// about. IPs never seen are StateUnknown. Entries are spread over shards the
// same way keylock spreads its mutexes.
type Registry struct {
	shards []shard
	now    func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		shards: make([]shard, keylock.DefaultShards),
		now:    time.Now,
	}
	for i := range r.shards {
		r.shards[i].states = make(map[string]entry)
	}
	return r
}

func (r *Registry) shardFor(ip string) *shard {
	return &r.shards[keylock.Index(ip, len(r.shards))]
}

func (r *Registry) Get(ip string) risk.State {
	sh := r.shardFor(ip)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if e, ok := sh.states[ip]; ok {
		return e.state
	}
	return risk.StateUnknown
}

// Transition moves ip to the given state if the transition table allows it
// and returns the previous state.
func (r *Registry) Transition(ip string, to risk.State) (risk.State, error) {
	sh := r.shardFor(ip)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	from := risk.StateUnknown
	if e, ok := sh.states[ip]; ok {
		from = e.state
	}
	next, err := from.Transition(to)
	if err != nil {
		return from, err
	}
	sh.states[ip] = entry{state: next, changed: r.now()}
	return from, nil
}

// Set records a state without consulting the table. It is used when the
// block store reports a change the registry has not seen.
func (r *Registry) Set(ip string, s risk.State) {
	sh := r.shardFor(ip)
	sh.mu.Lock()
	sh.states[ip] = entry{state: s, changed: r.now()}
	sh.mu.Unlock()
}

func (r *Registry) Forget(ip string) {
	sh := r.shardFor(ip)
	sh.mu.Lock()
	delete(sh.states, ip)
	sh.mu.Unlock()
}

// Reap drops entries whose state has not changed since idleSince. Blocked
// IPs are kept until the block store releases them.
func (r *Registry) Reap(idleSince time.Time) int {
	reaped := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		for ip, e := range sh.states {
			if e.state != risk.StateBlocked && e.changed.Before(idleSince) {
				delete(sh.states, ip)
				reaped++
			}
		}
		sh.mu.Unlock()
	}
	return reaped
}

func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		n += len(sh.states)
		sh.mu.RUnlock()
	}
	return n
}

func (r *Registry) Count(s risk.State) int {
	return r.Counts()[s]
}

func (r *Registry) Counts() map[risk.State]int {
	out := make(map[risk.State]int)
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		for _, e := range sh.states {
			out[e.state]++
		}
		sh.mu.RUnlock()
	}
	return out
}
