// Package internal holds process-level plumbing: environment configuration,
// logger construction and the badger debug inspector.
package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host     string `env:"HOST,required=true"`
	Port     int    `env:"PORT,required=true"`
	AppID    string `env:"APP_ID,required=true"`
	LogLevel string `env:"LOG_LEVEL,required=true"`

	// Empty filepaths select the in-memory store, handy for local runs.
	BadgerFilepath string `env:"BADGER_FILEPATH"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH"`

	// Empty NatsURL selects the in-process queue.
	NatsURL     string `env:"NATS_URL"`
	NatsSubject string `env:"NATS_SUBJECT,default=chat.events"`

	PingInterval      time.Duration `env:"PING_INTERVAL,default=30s"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=1m"`
	PageSize          int           `env:"PAGE_SIZE,default=100"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	JWTSecret         string        `env:"JWT_SECRET"`

	// WatchConversationID turns a join on that id into a watch, for clients
	// that cannot send the watch frame.
	WatchConversationID string `env:"WATCH_CONVERSATION_ID"`

	CensoredWordsPath string `env:"CENSORED_WORDS_PATH"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`

	// DebugPort exposes the badger inspector when non-zero.
	DebugPort int `env:"DEBUG_PORT"`
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
