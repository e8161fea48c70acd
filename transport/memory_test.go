package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"zonechat/domain"
	zerrors "zonechat/errors"
)

func TestMemory_FanoutIncludesPublisher(t *testing.T) {
	req := require.New(t)
	bus := NewBus()
	a := bus.Client()
	b := bus.Client()

	var gotA, gotB []domain.Envelope
	_, err := a.Subscribe("topic", func(_ string, env domain.Envelope) { gotA = append(gotA, env) })
	req.NoError(err)
	_, err = b.Subscribe("topic", func(_ string, env domain.Envelope) { gotB = append(gotB, env) })
	req.NoError(err)

	env, err := domain.NewEnvelope(domain.EnvelopePresence, "fp-a", nil)
	req.NoError(err)
	req.NoError(a.Publish("topic", env))

	// The broker echoes to every subscriber, publisher included
	req.Len(gotA, 1)
	req.Len(gotB, 1)
	req.Equal("fp-a", gotB[0].From)
}

func TestMemory_TopicIsolation(t *testing.T) {
	req := require.New(t)
	bus := NewBus()
	a := bus.Client()
	b := bus.Client()

	var got []domain.Envelope
	_, err := b.Subscribe("zone-1", func(_ string, env domain.Envelope) { got = append(got, env) })
	req.NoError(err)

	env, err := domain.NewEnvelope(domain.EnvelopeTyping, "fp-a", domain.TypingPayload{Handle: "ana"})
	req.NoError(err)
	req.NoError(a.Publish("zone-2", env))

	req.Empty(got)
}

func TestMemory_DropAndRestore(t *testing.T) {
	req := require.New(t)
	bus := NewBus()
	a := bus.Client()
	b := bus.Client()

	var got []domain.Envelope
	_, err := b.Subscribe("topic", func(_ string, env domain.Envelope) { got = append(got, env) })
	req.NoError(err)

	// Given b lost its connection
	b.Drop()

	env, err := domain.NewEnvelope(domain.EnvelopePresence, "fp-a", nil)
	req.NoError(err)
	req.NoError(a.Publish("topic", env))

	// Then nothing is delivered while down, and b cannot publish
	req.Empty(got)
	req.ErrorIs(b.Publish("topic", env), zerrors.ErrTransportOffline)

	// When the connection comes back
	b.Restore()

	// Then the recovered signal fires and deliveries resume
	select {
	case <-b.Recovered():
	default:
		req.Fail("expected recovered signal after Restore")
	}
	req.NoError(a.Publish("topic", env))
	req.Len(got, 1)
}

func TestMemory_UnsubscribeStopsDelivery(t *testing.T) {
	req := require.New(t)
	bus := NewBus()
	a := bus.Client()

	var got int
	sub, err := a.Subscribe("topic", func(string, domain.Envelope) { got++ })
	req.NoError(err)

	env, err := domain.NewEnvelope(domain.EnvelopePresence, "fp-a", nil)
	req.NoError(err)
	req.NoError(a.Publish("topic", env))
	req.NoError(sub.Unsubscribe())
	req.NoError(a.Publish("topic", env))

	req.Equal(1, got)
}
