package session

import (
	"time"

	"zonechat/domain"
)

// command is the only way anything reaches the session loop: public API
// calls, ticker fires and inbound envelopes all enqueue one.
type command interface {
	isCommand()
}

type createCmd struct {
	name       string
	visibility domain.Visibility
	handle     string
	password   string
	reply      chan error
}

type joinCmd struct {
	zone     domain.Zone
	handle   string
	password string
	reply    chan error
}

type exitCmd struct {
	reason string
	reply  chan error
}

// sendCmd carries the raw content; the loop builds the Message itself so
// the sender identity is read only by its owner.
type sendCmd struct {
	kind    domain.MessageKind
	text    string
	payload []byte
	reply   chan error
}

type typingCmd struct{}

type tickKind int

const (
	tickTTL tickKind = iota
	tickPresence
	tickTypingSweep
)

type tickCmd struct {
	kind tickKind
	now  time.Time
}

// inboundCmd carries an envelope delivered on the zone topic, tagged
// with the generation the subscription was issued under. A stale
// generation means the envelope belongs to a zone we already left.
type inboundCmd struct {
	generation uint64
	env        domain.Envelope
}

type recoveredCmd struct{}

type snapshotCmd struct {
	reply chan Snapshot
}

func (createCmd) isCommand()    {}
func (joinCmd) isCommand()      {}
func (exitCmd) isCommand()      {}
func (sendCmd) isCommand()      {}
func (typingCmd) isCommand()    {}
func (tickCmd) isCommand()      {}
func (inboundCmd) isCommand()   {}
func (recoveredCmd) isCommand() {}
func (snapshotCmd) isCommand()  {}
