// Package transport owns the single connection to the broker and exposes
// subscribe/publish/connection-state primitives. It knows topics, not
// zones; everything above it speaks envelopes.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"zonechat/contract"
	"zonechat/domain"
	zerrors "zonechat/errors"
)

const (
	reconnectWait  = 2 * time.Second
	publishAckWait = 2 * time.Second
)

// NATS implements contract.Transport over a NATS connection. The broker
// is treated as a best-effort, at-most-once relay: Publish only confirms
// hand-off, never delivery. The client library restores subscriptions
// after a reconnect; we additionally raise Recovered so owners can
// re-announce presence and re-request history.
type NATS struct {
	log *slog.Logger
	url string

	mu sync.Mutex
	nc *nats.Conn

	recovered chan struct{}
}

func NewNATS(log *slog.Logger, url string) *NATS {
	return &NATS{
		log:       log,
		url:       url,
		recovered: make(chan struct{}, 1),
	}
}

func (t *NATS) Connect(ctx context.Context) error {
	nc, err := nats.Connect(t.url,
		nats.Name("zonechat"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			t.log.Warn("Broker connection lost", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			t.log.Info("Broker connection recovered", "url", nc.ConnectedUrl())
			t.signalRecovered()
		}),
	)
	if err != nil {
		return fmt.Errorf("broker connect: %w", err)
	}

	t.mu.Lock()
	t.nc = nc
	t.mu.Unlock()

	t.log.Info("Connected to broker", "url", nc.ConnectedUrl())
	return nil
}

// signalRecovered is non-blocking: a second reconnect before the owner
// drained the first signal collapses into one.
func (t *NATS) signalRecovered() {
	select {
	case t.recovered <- struct{}{}:
	default:
	}
}

func (t *NATS) Recovered() <-chan struct{} {
	return t.recovered
}

// The client library tracks live subscriptions itself and re-establishes
// them after a reconnect; no second registry is kept here.
type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// Subscribe registers handler for every envelope arriving on topic.
// Malformed payloads are discarded without reaching the handler.
func (t *NATS) Subscribe(topic string, handler contract.EnvelopeHandler) (contract.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nc == nil {
		return nil, zerrors.ErrTransportOffline
	}

	sub, err := t.nc.Subscribe(topic, func(msg *nats.Msg) {
		env, err := domain.DecodeEnvelope(msg.Data)
		if err != nil {
			t.log.Debug("Discarding malformed envelope", "topic", msg.Subject, "err", err)
			return
		}
		handler(msg.Subject, env)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return &natsSubscription{sub: sub}, nil
}

// Publish hands one envelope to the broker and flushes the connection so
// the caller knows it was accepted. Acceptance is not delivery.
func (t *NATS) Publish(topic string, env domain.Envelope) error {
	t.mu.Lock()
	nc := t.nc
	t.mu.Unlock()

	if nc == nil || nc.Status() == nats.CLOSED {
		return zerrors.ErrTransportOffline
	}

	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := nc.Publish(topic, data); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	if err := nc.FlushTimeout(publishAckWait); err != nil {
		return fmt.Errorf("publish %s not accepted: %w", topic, err)
	}
	return nil
}

func (t *NATS) State() contract.ConnState {
	t.mu.Lock()
	nc := t.nc
	t.mu.Unlock()

	if nc == nil {
		return contract.StateOffline
	}
	switch nc.Status() {
	case nats.CONNECTED:
		return contract.StateConnected
	case nats.RECONNECTING, nats.CONNECTING:
		return contract.StateReconnecting
	default:
		return contract.StateOffline
	}
}

func (t *NATS) Close() {
	t.mu.Lock()
	nc := t.nc
	t.nc = nil
	t.mu.Unlock()

	if nc != nil {
		_ = nc.Drain()
	}
}
