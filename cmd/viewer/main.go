package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"zonechat/discovery"
	"zonechat/domain"
	"zonechat/internal"
	"zonechat/transport"
)

// Read-only companion: watches the discovery feed and renders the
// nearby zones without ever joining one.
func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Broker & discovery, observer identity
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := transport.NewNATS(logger, config.NatsURL)
	if err := t.Connect(ctx); err != nil {
		log.Fatalf("Broker error: %v", err)
	}
	defer t.Close()

	identity := domain.NewIdentity("viewer")
	self := staticPosition{pos: domain.Position{Lat: config.Lat, Lng: config.Lng}}
	disc := discovery.NewService(logger, t, self, identity.Fingerprint, config.RadiusKm)
	if err := disc.Start(); err != nil {
		log.Fatalf("Discovery error: %v", err)
	}
	defer disc.Stop()

	if err := disc.RequestSync(); err != nil {
		logger.Warn("Initial sync request failed", "err", err)
	}

	// 3. Render loop
	ticker := time.NewTicker(config.SweepInterval)
	defer ticker.Stop()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" zonechat viewer — nearby zones "))
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			disc.Sweep(now.UTC())
			render(disc.Zones(), self.pos, now.UTC())
		}
	}
}

func render(zones []domain.Zone, from domain.Position, now time.Time) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Visibility", "Members", "Distance", "Expires in"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, zone := range zones {
		visibility := string(zone.Visibility)
		if zone.IsPrivate() {
			visibility = color.Yellow.Render(visibility)
		}
		table.Append([]string{
			zone.Name,
			visibility,
			fmt.Sprintf("%d", zone.MemberCount),
			fmt.Sprintf("%.1f km", domain.DistanceKm(from, zone.Center)),
			zone.Remaining(now).Round(time.Second).String(),
		})
	}
	table.Render()
}

// Copy of the client's provider to keep the viewer independent
type staticPosition struct {
	pos domain.Position
}

func (s staticPosition) Current() (domain.Position, error) {
	return s.pos, nil
}
