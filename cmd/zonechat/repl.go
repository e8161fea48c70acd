package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"zonechat/discovery"
	"zonechat/domain"
	"zonechat/session"
)

// replWorker drives the session from stdin. Commands start with a
// slash; anything else is sent as a chat message.
type replWorker struct {
	manager   *session.Manager
	discovery *discovery.Service
	out       io.Writer
}

func (w *replWorker) Run(ctx context.Context) error {
	fmt.Fprintln(w.out, "commands: /list /sync /create <name> [password] /join <n> [password] /exit /quit")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			w.dispatch(line)
		}
	}
}

func (w *replWorker) dispatch(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if !strings.HasPrefix(line, "/") {
		w.manager.Typing()
		if err := w.manager.SendText(line); err != nil {
			fmt.Fprintf(w.out, "send failed: %v\n", err)
		}
		return
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/list":
		w.printZones()
	case "/sync":
		if err := w.discovery.RequestSync(); err != nil {
			fmt.Fprintf(w.out, "sync failed: %v\n", err)
		}
	case "/create":
		w.create(fields[1:])
	case "/join":
		w.join(fields[1:])
	case "/exit":
		if err := w.manager.Exit("user"); err != nil {
			fmt.Fprintf(w.out, "exit failed: %v\n", err)
		}
	case "/quit":
		os.Exit(0)
	default:
		fmt.Fprintf(w.out, "unknown command %s\n", fields[0])
	}
}

func (w *replWorker) printZones() {
	zones := w.discovery.Zones()
	if len(zones) == 0 {
		fmt.Fprintln(w.out, "no zones nearby")
		return
	}
	for i, zone := range zones {
		fmt.Fprintf(w.out, "%d) %s [%s] %d members\n", i+1, zone.Name, zone.Visibility, zone.MemberCount)
	}
}

func (w *replWorker) create(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(w.out, "usage: /create <name> [password]")
		return
	}
	visibility := domain.Public
	password := ""
	if len(args) > 1 {
		visibility = domain.Private
		password = args[1]
	}
	snap := w.manager.Snapshot()
	if err := w.manager.CreateZone(args[0], visibility, snap.Identity.Handle, password); err != nil {
		fmt.Fprintf(w.out, "create failed: %v\n", err)
		return
	}
	fmt.Fprintf(w.out, "zone %q claimed\n", args[0])
}

func (w *replWorker) join(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(w.out, "usage: /join <n> [password]")
		return
	}
	n, err := strconv.Atoi(args[0])
	zones := w.discovery.Zones()
	if err != nil || n < 1 || n > len(zones) {
		fmt.Fprintln(w.out, "no such zone, try /list first")
		return
	}
	password := ""
	if len(args) > 1 {
		password = args[1]
	}
	zone := zones[n-1]
	snap := w.manager.Snapshot()
	if err := w.manager.JoinZone(zone, snap.Identity.Handle, password); err != nil {
		fmt.Fprintf(w.out, "join failed: %v\n", err)
		return
	}
	fmt.Fprintf(w.out, "joined %q, expires %s\n", zone.Name, zone.ExpiresAt.Format("15:04:05"))
}
