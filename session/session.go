// Package session orchestrates the client's single session: creating,
// joining and leaving zones, and converging chat history, membership
// count and typing state with the other members of the current zone.
//
// One loop goroutine owns all mutable session state. Public API calls,
// ticker fires and transport callbacks never touch that state directly;
// they enqueue commands. Cancellation of in-flight asynchronous work is
// expressed through a generation counter, not goroutine cancellation:
// switching zones bumps the generation and anything tagged with an older
// one is dropped at the point of application.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zonechat/contract"
	"zonechat/discovery"
	"zonechat/domain"
	"zonechat/media"
	"zonechat/runtime/workers"
)

type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

type Config struct {
	SessionDuration     time.Duration
	PresenceInterval    time.Duration
	TypingExpiry        time.Duration
	TypingSweepInterval time.Duration
	TTLTickInterval     time.Duration
	BufferSize          int
}

func (c Config) withDefaults() Config {
	if c.SessionDuration == 0 {
		c.SessionDuration = 2 * time.Hour
	}
	if c.PresenceInterval == 0 {
		c.PresenceInterval = 10 * time.Second
	}
	if c.TypingExpiry == 0 {
		c.TypingExpiry = 4 * time.Second
	}
	if c.TypingSweepInterval == 0 {
		c.TypingSweepInterval = time.Second
	}
	if c.TTLTickInterval == 0 {
		c.TTLTickInterval = time.Second
	}
	if c.BufferSize == 0 {
		c.BufferSize = 64
	}
	return c
}

type Manager struct {
	log       *slog.Logger
	cfg       Config
	transport contract.Transport
	discovery *discovery.Service
	position  contract.PositionProvider
	moderator contract.Moderator

	commands chan command

	// Everything below is owned by the run loop; nothing else reads or
	// writes it.
	identity   domain.ClientIdentity
	state      State
	generation uint64
	zone       *domain.Zone
	zoneTopic  string
	zoneSub    contract.Subscription
	isHost     bool
	messages   []domain.Message
	index      map[string]struct{}
	typing     *typingTracker
	window     *presenceWindow
	lastCount  int
	exitReason string
}

func NewManager(log *slog.Logger, identity domain.ClientIdentity, t contract.Transport,
	d *discovery.Service, position contract.PositionProvider, moderator contract.Moderator,
	cfg Config) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		log:       log,
		cfg:       cfg,
		transport: t,
		discovery: d,
		position:  position,
		moderator: moderator,
		identity:  identity,
		commands:  make(chan command, cfg.BufferSize),
		state:     StateIdle,
		index:     make(map[string]struct{}),
		typing:    newTypingTracker(),
		window:    newPresenceWindow(),
	}
}

// Workers returns the session loop plus every periodic task backing it,
// ready to hand to a supervisor. Each ticker only enqueues.
func (m *Manager) Workers() []contract.Worker {
	return []contract.Worker{
		m,
		workers.NewTicker("session-ttl", m.cfg.TTLTickInterval, func(now time.Time) {
			m.enqueue(tickCmd{kind: tickTTL, now: now})
		}, m.log),
		workers.NewTicker("presence-broadcast", m.cfg.PresenceInterval, func(now time.Time) {
			m.enqueue(tickCmd{kind: tickPresence, now: now})
		}, m.log),
		workers.NewTicker("typing-sweep", m.cfg.TypingSweepInterval, func(now time.Time) {
			m.enqueue(tickCmd{kind: tickTypingSweep, now: now})
		}, m.log),
		&recoveryForwarder{m: m},
	}
}

// enqueue is the non-blocking entry point used by tickers and transport
// callbacks. Dropping under pressure is fine: the broker is at-most-once
// anyway and every periodic signal comes back on the next tick.
func (m *Manager) enqueue(c command) {
	select {
	case m.commands <- c:
	default:
		m.log.Warn("Session command buffer full, dropping", "command", fmt.Sprintf("%T", c))
	}
}

// CreateZone claims a new zone centered on the current position and
// enters it as host. Fails with ErrLocationRequired when no position is
// available and ErrAlreadyActive when a session is running.
func (m *Manager) CreateZone(name string, visibility domain.Visibility, handle, password string) error {
	reply := make(chan error, 1)
	m.commands <- createCmd{name: name, visibility: visibility, handle: handle, password: password, reply: reply}
	return <-reply
}

// JoinZone enters a discovered zone. For private zones the supplied
// password is digested and compared against the descriptor; a mismatch
// fails with ErrAccessDenied and the session stays Idle. There is no
// retry limiting: no server exists to enforce one.
func (m *Manager) JoinZone(zone domain.Zone, handle, password string) error {
	reply := make(chan error, 1)
	m.commands <- joinCmd{zone: zone, handle: handle, password: password, reply: reply}
	return <-reply
}

// Exit leaves the current zone: best-effort leave note, unsubscribe,
// then every trace of the zone is discarded from memory. Idempotent and
// safe to call from both user action and automatic expiry.
func (m *Manager) Exit(reason string) error {
	reply := make(chan error, 1)
	m.commands <- exitCmd{reason: reason, reply: reply}
	return <-reply
}

// SendText moderates and sends a chat message. Unlike typing and
// presence, a failed publish is reported to the caller.
func (m *Manager) SendText(text string) error {
	clean, safe := m.moderator.Moderate(text)
	if !safe {
		m.log.Info("Outbound message censored")
	}
	reply := make(chan error, 1)
	m.commands <- sendCmd{kind: domain.KindText, text: clean, reply: reply}
	return <-reply
}

// SendMedia classifies an opaque encoded blob and sends it as an
// image, audio or video message.
func (m *Manager) SendMedia(blob []byte) error {
	kind, err := media.Classify(blob)
	if err != nil {
		return err
	}
	reply := make(chan error, 1)
	m.commands <- sendCmd{kind: kind, payload: blob, reply: reply}
	return <-reply
}

// Typing signals that the local user is typing. Fire-and-forget: during
// an outage the envelope is simply dropped.
func (m *Manager) Typing() {
	m.enqueue(typingCmd{})
}

// Snapshot is the read model handed to UIs and the debug server.
type Snapshot struct {
	State          State
	Identity       domain.ClientIdentity
	Zone           *domain.Zone
	IsHost         bool
	Messages       []domain.Message
	TypingUsers    []string
	MemberCount    int
	Remaining      time.Duration
	LastExitReason string
	ConnState      contract.ConnState
}

// Snapshot returns a copy of the current session state, taken by the
// loop itself so no reader ever observes a partial transition.
func (m *Manager) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	m.commands <- snapshotCmd{reply: reply}
	return <-reply
}

type recoveryForwarder struct {
	m *Manager
}

// Run forwards transport recovery signals into the session loop so the
// session can re-announce presence and re-request history.
func (w *recoveryForwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.m.transport.Recovered():
			w.m.enqueue(recoveredCmd{})
		}
	}
}
