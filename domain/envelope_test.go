package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	req := require.New(t)

	msg := NewTextMessage(Sender{Fingerprint: "fp", Handle: "ana", Color: "#3498db"}, "hello")
	env, err := NewEnvelope(EnvelopeMessage, "fp", msg)
	req.NoError(err)

	data, err := env.Encode()
	req.NoError(err)

	decoded, err := DecodeEnvelope(data)
	req.NoError(err)
	req.Equal(EnvelopeMessage, decoded.Kind)
	req.Equal("fp", decoded.From)

	var got Message
	req.NoError(decoded.DecodePayload(&got))
	req.Equal(msg.ID, got.ID)
	req.Equal("hello", got.Text)
	req.True(msg.Timestamp.Equal(got.Timestamp))
}

func TestDecodeEnvelope_UnknownKindIsPreserved(t *testing.T) {
	req := require.New(t)

	// The discriminant is an open set: a newer peer's kind must decode
	// fine and be left for the consumer to ignore
	env, err := DecodeEnvelope([]byte(`{"kind":"hologram","from":"fp","payload":{"x":1}}`))
	req.NoError(err)
	req.Equal(EnvelopeKind("hologram"), env.Kind)
}

func TestDecodeEnvelope_MalformedFails(t *testing.T) {
	req := require.New(t)

	_, err := DecodeEnvelope([]byte("not json at all"))
	req.Error(err)
}

func TestNewEnvelope_NilPayload(t *testing.T) {
	req := require.New(t)

	env, err := NewEnvelope(EnvelopePresence, "fp", nil)
	req.NoError(err)
	req.Empty(env.Payload)
}
