// Package discovery maintains the locally-visible list of nearby,
// unexpired zones. Descriptors arrive on the fixed global discovery
// topic; an independent sweep drops expired entries even when the host
// has gone silent.
package discovery

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"zonechat/contract"
	"zonechat/domain"
	"zonechat/runtime/workers"
	"zonechat/transport"
)

type Service struct {
	log       *slog.Logger
	transport contract.Transport
	position  contract.PositionProvider
	self      string
	radiusKm  float64

	mu    sync.RWMutex
	zones map[domain.ZoneID]domain.Zone
	// hosted is the descriptor re-published on zone_sync_req while this
	// client hosts an active zone; nil otherwise.
	hosted *domain.Zone

	sub contract.Subscription
}

func NewService(log *slog.Logger, t contract.Transport, position contract.PositionProvider,
	selfFingerprint string, radiusKm float64) *Service {
	return &Service{
		log:       log,
		transport: t,
		position:  position,
		self:      selfFingerprint,
		radiusKm:  radiusKm,
		zones:     make(map[domain.ZoneID]domain.Zone),
	}
}

// Start subscribes to the global discovery topic.
func (s *Service) Start() error {
	sub, err := s.transport.Subscribe(transport.DiscoveryTopic, s.handle)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Stop() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
}

func (s *Service) handle(_ string, env domain.Envelope) {
	switch env.Kind {
	case domain.EnvelopeZoneDescriptor:
		var zone domain.Zone
		if err := env.DecodePayload(&zone); err != nil {
			s.log.Debug("Discarding malformed zone descriptor", "from", env.From, "err", err)
			return
		}
		s.upsert(zone, time.Now().UTC())
	case domain.EnvelopeZoneSyncReq:
		s.answerSync(env.From)
	default:
		// Open set: unrecognized kinds are ignored for forward compatibility
	}
}

// upsert applies one descriptor. Out-of-range or expired descriptors
// remove any cached entry for that id, they do not merely fail to
// insert. The boundary distance equal to the radius is included.
func (s *Service) upsert(zone domain.Zone, now time.Time) {
	pos, err := s.position.Current()
	if err != nil {
		// Degraded mode: without a position nothing is visible
		return
	}

	visible := !zone.Expired(now) && domain.DistanceKm(pos, zone.Center) <= s.radiusKm

	s.mu.Lock()
	defer s.mu.Unlock()
	if visible {
		s.zones[zone.ID] = zone
		return
	}
	delete(s.zones, zone.ID)
}

// answerSync immediately re-publishes our descriptor when any client
// asks for a refresh, bounding the staleness window after a connectivity
// gap instead of waiting a full heartbeat period.
func (s *Service) answerSync(requester string) {
	if requester == s.self {
		return
	}

	s.mu.RLock()
	hosted := s.hosted
	s.mu.RUnlock()
	if hosted == nil {
		return
	}

	if err := s.Announce(*hosted); err != nil {
		s.log.Warn("Failed to answer zone sync request", "requester", requester, "err", err)
	}
}

// Announce broadcasts a zone descriptor on the discovery topic.
func (s *Service) Announce(zone domain.Zone) error {
	env, err := domain.NewEnvelope(domain.EnvelopeZoneDescriptor, s.self, zone)
	if err != nil {
		return err
	}
	return s.transport.Publish(transport.DiscoveryTopic, env)
}

// SetHosted registers the descriptor this client answers sync requests
// with. Called by the session on every presence broadcast while hosting.
func (s *Service) SetHosted(zone domain.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := zone
	s.hosted = &z
}

// ClearHosted stops answering sync requests, on exit or expiry.
func (s *Service) ClearHosted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosted = nil
}

// RequestSync asks every current host to re-publish its descriptor.
// Used after reconnect and for user-triggered refreshes.
func (s *Service) RequestSync() error {
	env, err := domain.NewEnvelope(domain.EnvelopeZoneSyncReq, s.self, nil)
	if err != nil {
		return err
	}
	return s.transport.Publish(transport.DiscoveryTopic, env)
}

// Sweep removes every cached zone whose lifetime is over, regardless of
// whether a fresh descriptor ever arrived.
func (s *Service) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, zone := range s.zones {
		if zone.Expired(now) {
			delete(s.zones, id)
		}
	}
}

// SweepWorker returns the periodic expiry sweep as a supervised worker.
func (s *Service) SweepWorker(interval time.Duration) contract.Worker {
	return workers.NewTicker("discovery-sweep", interval, s.Sweep, s.log)
}

// Zones returns a snapshot of the visible zones, most recent first.
func (s *Service) Zones() []domain.Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zones := lo.Values(s.zones)
	sort.Slice(zones, func(i, j int) bool {
		return zones[i].CreatedAt.After(zones[j].CreatedAt)
	})
	return zones
}

// Get returns the cached descriptor for a zone id, if still visible.
func (s *Service) Get(id domain.ZoneID) (domain.Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zone, ok := s.zones[id]
	return zone, ok
}
