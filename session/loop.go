package session

import (
	"context"
	"time"

	"zonechat/access"
	"zonechat/domain"
	zerrors "zonechat/errors"
	"zonechat/transport"
)

// Run is the session loop, the single owner of all session state. It
// implements contract.Worker so the supervisor drives it like every
// other unit.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.performExit("shutdown")
			return ctx.Err()
		case c := <-m.commands:
			m.handle(c)
		}
	}
}

func (m *Manager) handle(c command) {
	switch cmd := c.(type) {
	case createCmd:
		cmd.reply <- m.handleCreate(cmd)
	case joinCmd:
		cmd.reply <- m.handleJoin(cmd)
	case exitCmd:
		m.performExit(cmd.reason)
		cmd.reply <- nil
	case sendCmd:
		cmd.reply <- m.handleSend(cmd)
	case typingCmd:
		m.handleTyping()
	case tickCmd:
		m.handleTick(cmd)
	case inboundCmd:
		m.handleInbound(cmd)
	case recoveredCmd:
		m.handleRecovered()
	case snapshotCmd:
		cmd.reply <- m.snapshot()
	}
}

func (m *Manager) handleCreate(cmd createCmd) error {
	if m.state != StateIdle {
		return zerrors.ErrAlreadyActive
	}

	pos, err := m.position.Current()
	if err != nil {
		return zerrors.ErrLocationRequired
	}

	// The plaintext password lives exactly long enough to hash
	digest := ""
	if cmd.visibility == domain.Private {
		digest = access.Digest(cmd.password)
	}

	zone := domain.NewZone(cmd.name, cmd.visibility, m.identity.Fingerprint, digest, pos, m.cfg.SessionDuration)
	if err := m.enterActive(zone, cmd.handle, true); err != nil {
		return err
	}

	m.discovery.SetHosted(zone)
	if err := m.discovery.Announce(zone); err != nil {
		m.log.Warn("Initial zone announcement failed", "zone", zone.Name, "err", err)
	}

	m.log.Info("Zone created", "zone", zone.Name, "id", zone.ID, "visibility", zone.Visibility)
	return nil
}

func (m *Manager) handleJoin(cmd joinCmd) error {
	if m.state != StateIdle {
		return zerrors.ErrAlreadyActive
	}
	if cmd.zone.Expired(time.Now().UTC()) {
		return zerrors.ErrZoneExpired
	}
	if cmd.zone.IsPrivate() && !access.Verify(cmd.password, cmd.zone.PasswordDigest) {
		return zerrors.ErrAccessDenied
	}

	isHost := cmd.zone.HostFingerprint == m.identity.Fingerprint
	if err := m.enterActive(cmd.zone, cmd.handle, isHost); err != nil {
		return err
	}

	m.requestHistory()
	m.log.Info("Zone joined", "zone", cmd.zone.Name, "isHost", isHost)
	return nil
}

// enterActive performs the atomic Idle -> Active transition: a new
// generation, a fresh zone subscription bound to it, and the initial
// presence and join announcements.
func (m *Manager) enterActive(zone domain.Zone, handle string, isHost bool) error {
	m.generation++
	gen := m.generation

	topic := transport.ZoneTopic(zone.ID)
	sub, err := m.transport.Subscribe(topic, func(_ string, env domain.Envelope) {
		m.enqueue(inboundCmd{generation: gen, env: env})
	})
	if err != nil {
		m.generation++ // burn the generation, nothing was issued under it
		return err
	}

	if handle != "" {
		m.identity.Handle = handle
	}
	m.state = StateActive
	m.zone = &zone
	m.zoneTopic = topic
	m.zoneSub = sub
	m.isHost = isHost
	m.messages = nil
	m.index = make(map[string]struct{})
	m.typing.Reset()
	m.window = newPresenceWindow()
	m.window.Observe(m.identity.Fingerprint)
	m.lastCount = zone.MemberCount
	m.exitReason = ""

	m.announcePresence()
	// Best-effort: the session is live either way, peers learn about us
	// from presence and history
	if err := m.publishMessage(domain.NewSystemMessage(domain.KindSystemJoin, m.identity.Sender())); err != nil {
		m.log.Warn("Join announcement failed", "err", err)
	}
	return nil
}

// performExit is idempotent: calling it while Idle does nothing, so user
// action and automatic expiry can race without double-firing side
// effects.
func (m *Manager) performExit(reason string) {
	if m.state == StateIdle {
		return
	}

	// Best-effort: peers that miss this will converge via the typing
	// sweep and presence windows anyway
	leave := domain.NewSystemMessage(domain.KindSystemLeave, m.identity.Sender())
	if env, err := domain.NewEnvelope(domain.EnvelopeMessage, m.identity.Fingerprint, leave); err == nil {
		_ = m.transport.Publish(m.zoneTopic, env)
	}

	if m.zoneSub != nil {
		_ = m.zoneSub.Unsubscribe()
		m.zoneSub = nil
	}
	m.discovery.ClearHosted()

	// No soft-delete, no archive: the zone is gone from memory entirely
	m.zone = nil
	m.zoneTopic = ""
	m.isHost = false
	m.messages = nil
	m.index = make(map[string]struct{})
	m.typing.Reset()
	m.window = newPresenceWindow()
	m.lastCount = 0
	m.state = StateIdle
	m.exitReason = reason
	m.generation++

	m.log.Info("Session ended", "reason", reason)
}

func (m *Manager) handleSend(cmd sendCmd) error {
	if m.state != StateActive {
		return zerrors.ErrNotActive
	}
	var msg domain.Message
	if cmd.kind == domain.KindText {
		msg = domain.NewTextMessage(m.identity.Sender(), cmd.text)
	} else {
		msg = domain.NewMediaMessage(m.identity.Sender(), cmd.kind, cmd.payload)
	}
	return m.publishMessage(msg)
}

// publishMessage sends one message envelope and appends it locally once
// accepted. The broker echo comes back as a duplicate id and is dropped
// by the merge index.
func (m *Manager) publishMessage(msg domain.Message) error {
	env, err := domain.NewEnvelope(domain.EnvelopeMessage, m.identity.Fingerprint, msg)
	if err != nil {
		return err
	}
	if err := m.transport.Publish(m.zoneTopic, env); err != nil {
		return err
	}
	m.messages = mergeHistory(m.messages, m.index, []domain.Message{msg})
	return nil
}

func (m *Manager) handleTyping() {
	if m.state != StateActive {
		return
	}
	env, err := domain.NewEnvelope(domain.EnvelopeTyping, m.identity.Fingerprint,
		domain.TypingPayload{Handle: m.identity.Handle})
	if err != nil {
		return
	}
	// Silently dropped during an outage
	_ = m.transport.Publish(m.zoneTopic, env)
}

func (m *Manager) announcePresence() {
	env, err := domain.NewEnvelope(domain.EnvelopePresence, m.identity.Fingerprint, nil)
	if err != nil {
		return
	}
	_ = m.transport.Publish(m.zoneTopic, env)
}

func (m *Manager) requestHistory() {
	env, err := domain.NewEnvelope(domain.EnvelopeHistoryReq, m.identity.Fingerprint, nil)
	if err != nil {
		return
	}
	if err := m.transport.Publish(m.zoneTopic, env); err != nil {
		m.log.Warn("History request failed", "err", err)
	}
}

func (m *Manager) handleTick(cmd tickCmd) {
	if m.state != StateActive {
		return
	}
	switch cmd.kind {
	case tickTTL:
		if m.zone.Expired(cmd.now) {
			m.performExit("expired")
		}
	case tickPresence:
		m.broadcastPresence()
	case tickTypingSweep:
		m.typing.Sweep(cmd.now, m.cfg.TypingExpiry)
	}
}

// broadcastPresence closes the host's observation window: publish the
// distinct member count through both the zone descriptor (feeding
// discovery) and a count_sync on the zone topic (feeding members), then
// start a fresh window.
func (m *Manager) broadcastPresence() {
	m.announcePresence()
	if !m.isHost {
		return
	}

	count := m.window.Flush()
	m.window.Observe(m.identity.Fingerprint)
	m.lastCount = count
	m.zone.MemberCount = count

	if env, err := domain.NewEnvelope(domain.EnvelopeCountSync, m.identity.Fingerprint,
		domain.CountPayload{Count: count}); err == nil {
		_ = m.transport.Publish(m.zoneTopic, env)
	}

	m.discovery.SetHosted(*m.zone)
	if err := m.discovery.Announce(*m.zone); err != nil {
		m.log.Warn("Descriptor heartbeat failed", "zone", m.zone.Name, "err", err)
	}
}

func (m *Manager) handleInbound(cmd inboundCmd) {
	// The generation guard: anything issued under a previous session is
	// dead on arrival, no matter how late it shows up
	if m.state != StateActive || cmd.generation != m.generation {
		return
	}

	env := cmd.env
	switch env.Kind {
	case domain.EnvelopeMessage:
		m.onMessage(env)
	case domain.EnvelopeTyping:
		m.onTyping(env)
	case domain.EnvelopePresence:
		if m.isHost {
			m.window.Observe(env.From)
		}
	case domain.EnvelopeCountSync:
		m.onCountSync(env)
	case domain.EnvelopeHistoryReq:
		m.onHistoryReq(env)
	case domain.EnvelopeHistoryRes:
		m.onHistoryRes(env)
	default:
		// Forward compatibility: unrecognized kinds are ignored
		m.log.Debug("Ignoring unknown envelope kind", "kind", env.Kind)
	}
}

func (m *Manager) onMessage(env domain.Envelope) {
	var msg domain.Message
	if err := env.DecodePayload(&msg); err != nil {
		m.log.Debug("Discarding malformed message", "from", env.From, "err", err)
		return
	}
	m.messages = mergeHistory(m.messages, m.index, []domain.Message{msg})
	if m.isHost {
		m.window.Observe(env.From)
	}
	// A message is proof the sender stopped typing
	m.typing.Clear(msg.Sender.Handle)
}

func (m *Manager) onTyping(env domain.Envelope) {
	if env.From == m.identity.Fingerprint {
		return
	}
	var p domain.TypingPayload
	if err := env.DecodePayload(&p); err != nil {
		return
	}
	m.typing.Touch(p.Handle, time.Now().UTC())
}

func (m *Manager) onCountSync(env domain.Envelope) {
	if m.isHost {
		return
	}
	var p domain.CountPayload
	if err := env.DecodePayload(&p); err != nil {
		return
	}
	m.lastCount = p.Count
}

func (m *Manager) onHistoryReq(env domain.Envelope) {
	if env.From == m.identity.Fingerprint || len(m.messages) == 0 {
		return
	}
	res, err := domain.NewEnvelope(domain.EnvelopeHistoryRes, m.identity.Fingerprint,
		domain.HistoryPayload{Messages: m.messages})
	if err != nil {
		return
	}
	res.To = env.From
	if err := m.transport.Publish(m.zoneTopic, res); err != nil {
		m.log.Warn("History response failed", "to", env.From, "err", err)
	}
}

func (m *Manager) onHistoryRes(env domain.Envelope) {
	// Every subscriber sees the response; only the addressee merges
	if env.To != m.identity.Fingerprint {
		return
	}
	var p domain.HistoryPayload
	if err := env.DecodePayload(&p); err != nil {
		m.log.Debug("Discarding malformed history response", "from", env.From, "err", err)
		return
	}
	m.messages = mergeHistory(m.messages, m.index, p.Messages)
	m.log.Debug("History merged", "from", env.From, "total", len(m.messages))
}

// handleRecovered re-establishes soft state after a transport drop:
// presence so the host counts us again, a history request to fill the
// gap, a discovery sync so the zone list is fresh, and the descriptor
// when we are the host.
func (m *Manager) handleRecovered() {
	if err := m.discovery.RequestSync(); err != nil {
		m.log.Warn("Discovery sync after recovery failed", "err", err)
	}
	if m.state != StateActive {
		return
	}
	m.announcePresence()
	m.requestHistory()
	if m.isHost {
		if err := m.discovery.Announce(*m.zone); err != nil {
			m.log.Warn("Descriptor re-announcement failed", "err", err)
		}
	}
}

func (m *Manager) snapshot() Snapshot {
	snap := Snapshot{
		State:          m.state,
		Identity:       m.identity,
		IsHost:         m.isHost,
		TypingUsers:    m.typing.Handles(),
		MemberCount:    m.lastCount,
		LastExitReason: m.exitReason,
		ConnState:      m.transport.State(),
	}
	if m.zone != nil {
		zone := *m.zone
		snap.Zone = &zone
		snap.Remaining = zone.Remaining(time.Now().UTC())
	}
	snap.Messages = make([]domain.Message, len(m.messages))
	copy(snap.Messages, m.messages)
	return snap
}
