package internal

import (
	"fmt"
	"time"
)

type Config struct {
	NatsURL              string        `env:"NATS_URL,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,required=true"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,required=true"`
	HealthPort           int           `env:"HEALTH_PORT"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
