// Package domain contains the core concepts of the zone chat protocol.
// No runtime, transport, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type ZoneID string

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Zone is a claimed geographic chat room. A zone only exists while
// now < ExpiresAt; the cached copy is replaced wholesale on every
// re-broadcast, never mutated in place by remote peers.
type Zone struct {
	ID              ZoneID     `json:"id"`
	Name            string     `json:"name"`
	Visibility      Visibility `json:"visibility"`
	HostFingerprint string     `json:"hostFingerprint"`
	PasswordDigest  string     `json:"passwordDigest,omitempty"`
	Center          Position   `json:"center"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	MemberCount     int        `json:"memberCount"`
}

// NewZone claims a new zone centered on the host's position.
// For private zones the caller supplies the password digest; the
// plaintext password never reaches the domain.
func NewZone(name string, visibility Visibility, hostFingerprint, passwordDigest string,
	center Position, duration time.Duration) Zone {
	now := time.Now().UTC()
	return Zone{
		ID:              ZoneID(uuid.NewString()),
		Name:            name,
		Visibility:      visibility,
		HostFingerprint: hostFingerprint,
		PasswordDigest:  passwordDigest,
		Center:          center,
		CreatedAt:       now,
		ExpiresAt:       now.Add(duration),
		MemberCount:     1,
	}
}

func (z Zone) IsPrivate() bool {
	return z.Visibility == Private
}

// Expired reports whether the zone's lifetime is over (ExpiresAt <= now).
func (z Zone) Expired(now time.Time) bool {
	return !now.Before(z.ExpiresAt)
}

// Remaining returns the time left before expiry, never negative.
func (z Zone) Remaining(now time.Time) time.Duration {
	if z.Expired(now) {
		return 0
	}
	return z.ExpiresAt.Sub(now)
}
