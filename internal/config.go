package internal

import "time"

// Config holds every environment-driven knob of the server.
// Unmarshalled with Netflix/go-env in cmd/server.
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=5000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`
	AuthCacheSize     int           `env:"AUTH_CACHE_SIZE,default=1024"`

	// ConnectionBufferSize is the per-session outbound queue length,
	// SinkTimeout bounds how long a delivery may wait on a full queue
	// before the event is dropped for that session.
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=500ms"`

	MaxContentLength int  `env:"MAX_CONTENT_LENGTH,default=500"`
	LimitMessages    *int `env:"LIMIT_MESSAGES"`

	CensoredWordsFile string `env:"CENSORED_WORDS_FILE"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`
}
