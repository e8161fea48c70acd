package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceKm_KnownPair(t *testing.T) {
	req := require.New(t)

	// (10.0,10.0) to (10.05,10.05) is roughly 7.8 km
	d := DistanceKm(Position{Lat: 10, Lng: 10}, Position{Lat: 10.05, Lng: 10.05})

	req.InDelta(7.8, d, 0.1)
}

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	req := require.New(t)

	p := Position{Lat: 48.8566, Lng: 2.3522}
	req.Zero(DistanceKm(p, p))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	req := require.New(t)

	a := Position{Lat: 48.8566, Lng: 2.3522}
	b := Position{Lat: 51.5074, Lng: -0.1278}

	req.InDelta(DistanceKm(a, b), DistanceKm(b, a), 1e-9)
	// Paris to London, roughly 344 km
	req.InDelta(344, DistanceKm(a, b), 5)
}
