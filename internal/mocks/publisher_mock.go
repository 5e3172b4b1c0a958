package mocks

import (
	"context"
	"sync"
)

type PublishedEvent struct {
	Subject string
	Data    interface{}
}

// Publisher records events instead of sending them.
type Publisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
}

func (p *Publisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, PublishedEvent{Subject: subject, Data: data})
	return nil
}

func (p *Publisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.Subject
	}
	return out
}
