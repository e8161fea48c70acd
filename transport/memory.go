package transport

import (
	"context"
	"sync"

	"zonechat/contract"
	"zonechat/domain"
	zerrors "zonechat/errors"
)

// Bus is an in-process broker shared by several Memory transports. It
// exists for deterministic multi-client tests: every client gets its own
// transport value, identities stay constructor-injected, and no real
// broker is needed. Delivery is synchronous, best-effort and unordered
// across topics, matching the at-most-once contract.
type Bus struct {
	mu      sync.RWMutex
	clients []*Memory
}

func NewBus() *Bus {
	return &Bus{}
}

// Client creates a new transport attached to this bus.
func (b *Bus) Client() *Memory {
	m := &Memory{
		bus:       b,
		state:     contract.StateConnected,
		handlers:  make(map[string][]contract.EnvelopeHandler),
		recovered: make(chan struct{}, 1),
	}
	b.mu.Lock()
	b.clients = append(b.clients, m)
	b.mu.Unlock()
	return m
}

func (b *Bus) dispatch(topic string, env domain.Envelope) {
	b.mu.RLock()
	clients := make([]*Memory, len(b.clients))
	copy(clients, b.clients)
	b.mu.RUnlock()

	for _, c := range clients {
		c.deliver(topic, env)
	}
}

// Memory implements contract.Transport against an in-process Bus.
type Memory struct {
	bus *Bus

	mu       sync.RWMutex
	state    contract.ConnState
	handlers map[string][]contract.EnvelopeHandler

	recovered chan struct{}
}

func (m *Memory) Connect(_ context.Context) error {
	m.mu.Lock()
	m.state = contract.StateConnected
	m.mu.Unlock()
	return nil
}

type memorySubscription struct {
	owner *Memory
	topic string
	idx   int
}

func (s *memorySubscription) Unsubscribe() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	handlers := s.owner.handlers[s.topic]
	if s.idx < len(handlers) {
		handlers[s.idx] = nil
	}
	return nil
}

func (m *Memory) Subscribe(topic string, handler contract.EnvelopeHandler) (contract.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == contract.StateOffline {
		return nil, zerrors.ErrTransportOffline
	}
	m.handlers[topic] = append(m.handlers[topic], handler)
	return &memorySubscription{owner: m, topic: topic, idx: len(m.handlers[topic]) - 1}, nil
}

func (m *Memory) Publish(topic string, env domain.Envelope) error {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()
	if state != contract.StateConnected {
		return zerrors.ErrTransportOffline
	}

	// Round-trip through the codec so tests exercise the same JSON the
	// real broker would carry.
	data, err := env.Encode()
	if err != nil {
		return err
	}
	decoded, err := domain.DecodeEnvelope(data)
	if err != nil {
		return err
	}

	m.bus.dispatch(topic, decoded)
	return nil
}

// deliver hands the envelope to this client's handlers, own publishes
// included: a real broker echoes to every subscriber.
func (m *Memory) deliver(topic string, env domain.Envelope) {
	m.mu.RLock()
	if m.state != contract.StateConnected {
		m.mu.RUnlock()
		return
	}
	handlers := make([]contract.EnvelopeHandler, len(m.handlers[topic]))
	copy(handlers, m.handlers[topic])
	m.mu.RUnlock()

	for _, h := range handlers {
		if h != nil {
			h(topic, env)
		}
	}
}

func (m *Memory) State() contract.ConnState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Memory) Recovered() <-chan struct{} {
	return m.recovered
}

func (m *Memory) Close() {
	m.mu.Lock()
	m.state = contract.StateOffline
	m.handlers = make(map[string][]contract.EnvelopeHandler)
	m.mu.Unlock()
}

// Drop simulates losing the broker connection. Subscriptions survive,
// but publishes fail and deliveries stop until Restore.
func (m *Memory) Drop() {
	m.mu.Lock()
	m.state = contract.StateReconnecting
	m.mu.Unlock()
}

// Restore simulates a successful reconnect: subscriptions are live again
// and the recovered signal fires.
func (m *Memory) Restore() {
	m.mu.Lock()
	m.state = contract.StateConnected
	m.mu.Unlock()

	select {
	case m.recovered <- struct{}{}:
	default:
	}
}
