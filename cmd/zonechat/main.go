package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"zonechat/discovery"
	"zonechat/domain"
	"zonechat/internal"
	"zonechat/moderation"
	"zonechat/runtime/workers"
	"zonechat/session"
	"zonechat/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the client lifecycle, and
// centralizes error reporting so defers always execute before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Identity — regenerated every launch, never persisted
	identity := domain.NewIdentity(config.Handle)
	log.Info("Client identity generated", "handle", identity.Handle, "fingerprint", identity.Fingerprint)

	// 3. Broker transport
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := transport.NewNATS(log, config.NatsURL)
	if err := t.Connect(ctx); err != nil {
		return err
	}
	defer t.Close()

	// 4. Collaborators
	position := staticPosition{pos: domain.Position{Lat: config.Lat, Lng: config.Lng}}
	moderator, err := moderation.NewDefaultModerator(log)
	if err != nil {
		return fmt.Errorf("moderator init: %w", err)
	}

	// 5. Discovery & Session
	disc := discovery.NewService(log, t, position, identity.Fingerprint, config.RadiusKm)
	if err := disc.Start(); err != nil {
		return fmt.Errorf("discovery start: %w", err)
	}
	defer disc.Stop()

	manager := session.NewManager(log, identity, t, disc, position, moderator, session.Config{
		SessionDuration:  config.SessionDuration,
		PresenceInterval: config.PresenceInterval,
		TypingExpiry:     config.TypingExpiry,
		TTLTickInterval:  config.TTLTickInterval,
		BufferSize:       config.BufferSize,
	})

	// 6. Debug server (optional)
	if config.DebugPort > 0 {
		internal.StartDebugServer(config.DebugPort, "/inspect", zoneRows(disc), internal.SelfStats)
		log.Info("Debug server started", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
	}

	// 7. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(manager.Workers()...)
	sup.Add(disc.SweepWorker(config.SweepInterval))
	sup.Add(&replWorker{manager: manager, discovery: disc, out: os.Stdout})

	if err := disc.RequestSync(); err != nil {
		log.Warn("Initial discovery sync failed", "err", err)
	}

	sup.Run(ctx)
	return nil
}

type staticPosition struct {
	pos domain.Position
}

func (s staticPosition) Current() (domain.Position, error) {
	return s.pos, nil
}

func zoneRows(disc *discovery.Service) internal.RowProvider {
	return func() []internal.InspectRow {
		var rows []internal.InspectRow
		for _, zone := range disc.Zones() {
			rows = append(rows, internal.InspectRow{
				Name:    zone.Name,
				Type:    string(zone.Visibility),
				Detail:  fmt.Sprintf("%d members", zone.MemberCount),
				Expires: zone.ExpiresAt.Format("15:04:05"),
			})
		}
		return rows
	}
}
