package domain

import (
	"math/rand"

	"github.com/google/uuid"
)

// handleColors is the cosmetic palette a client picks from at launch.
var handleColors = []string{
	"#e74c3c", "#e67e22", "#f1c40f", "#2ecc71",
	"#1abc9c", "#3498db", "#9b59b6", "#fd79a8",
}

// ClientIdentity identifies one running client process. The fingerprint
// is random and regenerated on every launch; it is not a persistent
// user identity.
type ClientIdentity struct {
	Fingerprint string `json:"fingerprint"`
	Handle      string `json:"handle"`
	Color       string `json:"color"`
}

func NewIdentity(handle string) ClientIdentity {
	return ClientIdentity{
		Fingerprint: uuid.NewString(),
		Handle:      handle,
		Color:       handleColors[rand.Intn(len(handleColors))],
	}
}

func (c ClientIdentity) Sender() Sender {
	return Sender{
		Fingerprint: c.Fingerprint,
		Handle:      c.Handle,
		Color:       c.Color,
	}
}
