//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"zonechat/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ConnState is the observable connection status of the transport.
type ConnState string

const (
	StateConnected    ConnState = "connected"
	StateReconnecting ConnState = "reconnecting"
	StateOffline      ConnState = "offline"
)

// EnvelopeHandler receives every envelope delivered on a subscribed topic.
// Handlers must never block; they enqueue and return.
type EnvelopeHandler func(topic string, env domain.Envelope)

type Subscription interface {
	Unsubscribe() error
}

// Transport owns the single connection to the broker. It knows topics,
// not zones. Publish acknowledges hand-off to the broker only, never
// delivery; after a reconnect the transport restores every prior
// subscription and signals Recovered so owners can re-announce presence
// and re-request history.
type Transport interface {
	Connect(ctx context.Context) error
	Subscribe(topic string, handler EnvelopeHandler) (Subscription, error)
	Publish(topic string, env domain.Envelope) error
	State() ConnState
	Recovered() <-chan struct{}
	Close()
}

// PositionProvider is the geolocation collaborator boundary.
type PositionProvider interface {
	Current() (domain.Position, error)
}

// Moderator is the content moderation collaborator boundary. It returns
// the text to send (possibly censored) and whether the original was safe.
type Moderator interface {
	Moderate(text string) (string, bool)
}
