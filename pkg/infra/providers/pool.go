package providers

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Pool caches SDK clients by credential key so each provider builds one
// client per key. Concurrent first uses share a single build.
type Pool[T any] struct {
	clients sync.Map
	group   singleflight.Group
}

func (p *Pool[T]) Get(key string, build func() (T, error)) (T, error) {
	if v, ok := p.clients.Load(key); ok {
		return v.(T), nil
	}
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		if v, ok := p.clients.Load(key); ok {
			return v, nil
		}
		cli, err := build()
		if err != nil {
			return nil, err
		}
		p.clients.Store(key, cli)
		return cli, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Len reports how many clients have been built.
func (p *Pool[T]) Len() int {
	n := 0
	p.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// SystemText joins the system prompt and the formatted instructions.
func SystemText(config *Config) string {
	text := config.SystemPrompt
	if len(config.Instructions) > 0 {
		if text != "" {
			text += "\n\n"
		}
		text += FormatInstructions(config.Instructions)
	}
	return text
}
