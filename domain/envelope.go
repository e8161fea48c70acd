package domain

import (
	"encoding/json"
)

// EnvelopeKind discriminates the event kinds multiplexed on a single
// topic. The set is open: peers running newer protocol revisions may
// send kinds we do not know, and those must be ignored, not rejected.
type EnvelopeKind string

const (
	EnvelopeMessage        EnvelopeKind = "message"
	EnvelopeTyping         EnvelopeKind = "typing"
	EnvelopePresence       EnvelopeKind = "presence"
	EnvelopeCountSync      EnvelopeKind = "count_sync"
	EnvelopeHistoryReq     EnvelopeKind = "history_req"
	EnvelopeHistoryRes     EnvelopeKind = "history_res"
	EnvelopeZoneDescriptor EnvelopeKind = "zone_descriptor"
	EnvelopeZoneSyncReq    EnvelopeKind = "zone_sync_req"
)

// Envelope is the only type that crosses the transport boundary.
// To is present only on history_res; every subscriber receives the
// envelope and non-addressees discard it silently.
type Envelope struct {
	Kind    EnvelopeKind    `json:"kind"`
	From    string          `json:"from"`
	To      string          `json:"to,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TypingPayload carries the typist's display handle.
type TypingPayload struct {
	Handle string `json:"handle"`
}

// CountPayload carries the host-aggregated member count.
type CountPayload struct {
	Count int `json:"count"`
}

// HistoryPayload carries a full replica of the sender's message history.
type HistoryPayload struct {
	Messages []Message `json:"messages"`
}

func NewEnvelope(kind EnvelopeKind, from string, payload any) (Envelope, error) {
	env := Envelope{Kind: kind, From: from}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = raw
	return env, nil
}

func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// DecodePayload unmarshals the kind-specific payload into dst.
func (e Envelope) DecodePayload(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}
