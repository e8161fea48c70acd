package discovery

import (
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"zonechat/domain"
	zerrors "zonechat/errors"
	"zonechat/transport"
)

type fixedPosition struct {
	pos domain.Position
	err error
}

func (f fixedPosition) Current() (domain.Position, error) {
	return f.pos, f.err
}

func newTestService(t *testing.T, bus *transport.Bus, pos domain.Position) *Service {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	svc := NewService(log, bus.Client(), fixedPosition{pos: pos}, "self-fp", 10)
	require.NoError(t, svc.Start())
	return svc
}

func descriptor(t *testing.T, zone domain.Zone) domain.Envelope {
	t.Helper()
	env, err := domain.NewEnvelope(domain.EnvelopeZoneDescriptor, zone.HostFingerprint, zone)
	require.NoError(t, err)
	return env
}

func TestUpsert_RadiusBoundaryIsInclusive(t *testing.T) {
	req := require.New(t)
	bus := transport.NewBus()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	self := domain.Position{Lat: 10, Lng: 10}
	center := domain.Position{Lat: 10, Lng: 10.09}

	// Pin the radius to the exact boundary distance
	radius := domain.DistanceKm(self, center)
	svc := NewService(log, bus.Client(), fixedPosition{pos: self}, "self-fp", radius)
	req.NoError(svc.Start())
	host := bus.Client()

	// When a descriptor exactly on the boundary arrives
	onEdge := domain.NewZone("edge", domain.Public, "host-fp", "", center, time.Hour)
	req.NoError(host.Publish(transport.DiscoveryTopic, descriptor(t, onEdge)))

	// Then it is included
	zone, ok := svc.Get(onEdge.ID)
	req.True(ok)
	req.Equal("edge", zone.Name)

	// And a zone just past the boundary is excluded
	past := center
	past.Lng += 0.001
	beyond := domain.NewZone("beyond", domain.Public, "host-fp", "", past, time.Hour)
	req.NoError(host.Publish(transport.DiscoveryTopic, descriptor(t, beyond)))

	_, ok = svc.Get(beyond.ID)
	req.False(ok)
}

func TestUpsert_OutOfRangeRemovesCachedEntry(t *testing.T) {
	req := require.New(t)
	bus := transport.NewBus()
	svc := newTestService(t, bus, domain.Position{Lat: 10, Lng: 10})
	host := bus.Client()

	zone := domain.NewZone("bunker", domain.Public, "host-fp", "",
		domain.Position{Lat: 10.05, Lng: 10.05}, time.Hour)
	req.NoError(host.Publish(transport.DiscoveryTopic, descriptor(t, zone)))
	_, ok := svc.Get(zone.ID)
	req.True(ok)

	// When the host re-broadcasts from far away (same id, new center)
	zone.Center = domain.Position{Lat: 50, Lng: 50}
	req.NoError(host.Publish(transport.DiscoveryTopic, descriptor(t, zone)))

	// Then the cached entry is removed, not merely left stale
	_, ok = svc.Get(zone.ID)
	req.False(ok)
}

func TestSweep_RemovesExpiredWithoutDeletionSignal(t *testing.T) {
	req := require.New(t)
	bus := transport.NewBus()
	svc := newTestService(t, bus, domain.Position{Lat: 10, Lng: 10})
	host := bus.Client()

	zone := domain.NewZone("shortlived", domain.Public, "host-fp", "",
		domain.Position{Lat: 10, Lng: 10}, time.Minute)
	req.NoError(host.Publish(transport.DiscoveryTopic, descriptor(t, zone)))
	req.Len(svc.Zones(), 1)

	// When the sweep runs after the zone's lifetime, with no fresh descriptor
	svc.Sweep(zone.ExpiresAt)

	// Then the zone vanished even though the host went silent
	req.Empty(svc.Zones())
}

func TestUpsert_ExpiredDescriptorIgnored(t *testing.T) {
	req := require.New(t)
	bus := transport.NewBus()
	svc := newTestService(t, bus, domain.Position{Lat: 10, Lng: 10})
	host := bus.Client()

	zone := domain.NewZone("dead", domain.Public, "host-fp", "",
		domain.Position{Lat: 10, Lng: 10}, time.Hour)
	zone.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	req.NoError(host.Publish(transport.DiscoveryTopic, descriptor(t, zone)))

	req.Empty(svc.Zones())
}

func TestDegradedMode_NoPositionShowsNothing(t *testing.T) {
	req := require.New(t)
	bus := transport.NewBus()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	svc := NewService(log, bus.Client(), fixedPosition{err: zerrors.ErrLocationRequired}, "self-fp", 10)
	req.NoError(svc.Start())
	host := bus.Client()

	zone := domain.NewZone("bunker", domain.Public, "host-fp", "",
		domain.Position{Lat: 10, Lng: 10}, time.Hour)
	req.NoError(host.Publish(transport.DiscoveryTopic, descriptor(t, zone)))

	req.Empty(svc.Zones())
}

func TestSyncRequest_HostReAnnouncesImmediately(t *testing.T) {
	req := require.New(t)
	bus := transport.NewBus()
	pos := domain.Position{Lat: 10, Lng: 10}

	hostSvc := newTestService(t, bus, pos)
	zone := domain.NewZone("bunker", domain.Public, "self-fp", "", pos, time.Hour)
	hostSvc.SetHosted(zone)

	// Given another client nearby with an empty cache
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	other := NewService(log, bus.Client(), fixedPosition{pos: domain.Position{Lat: 10.05, Lng: 10.05}}, "other-fp", 10)
	req.NoError(other.Start())
	req.Empty(other.Zones())

	// When it requests a sync
	req.NoError(other.RequestSync())

	// Then the host answered with its descriptor right away
	zones := other.Zones()
	req.Len(zones, 1)
	req.Equal(zone.ID, zones[0].ID)
}
