package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindText        MessageKind = "text"
	KindImage       MessageKind = "image"
	KindAudio       MessageKind = "audio"
	KindVideo       MessageKind = "video"
	KindSystemJoin  MessageKind = "system-join"
	KindSystemLeave MessageKind = "system-leave"
)

type Sender struct {
	Fingerprint string `json:"fingerprint"`
	Handle      string `json:"handle"`
	Color       string `json:"color"`
}

// Message is an immutable chat event. The ID is the sole deduplication
// key across all replicas: a message is appended once or discarded as a
// duplicate, never mutated.
type Message struct {
	ID        string      `json:"id"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	Payload   []byte      `json:"payload,omitempty"`
}

func NewTextMessage(sender Sender, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Timestamp: time.Now().UTC(),
		Kind:      KindText,
		Text:      text,
	}
}

// NewMediaMessage wraps an opaque encoded media blob. The payload is
// passed through as-is; capture and compression happen upstream.
func NewMediaMessage(sender Sender, kind MessageKind, payload []byte) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Payload:   payload,
	}
}

func NewSystemMessage(kind MessageKind, sender Sender) Message {
	verb := "joined"
	if kind == KindSystemLeave {
		verb = "left"
	}
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Text:      fmt.Sprintf("%s %s the zone", sender.Handle, verb),
	}
}
