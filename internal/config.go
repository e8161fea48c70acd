package internal

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	NatsURL string `env:"NATS_URL,default=nats://localhost:4222" validate:"required"`

	Handle   string  `env:"HANDLE,default=anonymous" validate:"required,max=32"`
	Lat      float64 `env:"LAT" validate:"gte=-90,lte=90"`
	Lng      float64 `env:"LNG" validate:"gte=-180,lte=180"`
	RadiusKm float64 `env:"RADIUS_KM,default=10" validate:"gt=0"`

	SessionDuration  time.Duration `env:"SESSION_DURATION,default=2h" validate:"gt=0"`
	PresenceInterval time.Duration `env:"PRESENCE_INTERVAL,default=10s" validate:"gt=0"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL,default=5s" validate:"gt=0"`
	TypingExpiry     time.Duration `env:"TYPING_EXPIRY,default=4s" validate:"gt=0"`
	TTLTickInterval  time.Duration `env:"TTL_TICK_INTERVAL,default=1s" validate:"gt=0"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`

	BufferSize int    `env:"BUFFER_SIZE,default=64" validate:"gt=0"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
	DebugPort  int    `env:"DEBUG_PORT,default=0" validate:"gte=0,lte=65535"`
}

// Validate checks the unmarshaled configuration before anything starts.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
