package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultSTUN      = "stun:stun.l.google.com:19302"
	DefaultOutputDir = "."
	DefaultChunkSize = 16000
	DefaultEncoding  = EncodingJSON

	// MaxChunkSize keeps every chunk inside a single SCTP user message.
	MaxChunkSize = 65535
)

// Description encodings accepted for the manual exchange
const (
	EncodingJSON   = "json"
	EncodingBase64 = "base64"
)

var (
	ErrRelayWithoutTURN = errors.New("cannot force relay mode without TURN server configured")
	ErrInvalidChunkSize = errors.New("invalid chunk size")
	ErrInvalidEncoding  = errors.New("invalid description encoding")
)

// Config holds application configuration
type Config struct {
	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool

	// OutputDir is where received files are written
	OutputDir string

	// ChunkSize is the payload size of each binary file message
	ChunkSize int

	// Chat policies
	ByeClosesChannel  bool
	AnnounceDeparture bool
	Greeting          string

	// KeepAlive is the interval of keep-alive envelopes, zero disables them
	KeepAlive time.Duration

	// Encoding of the printed session description
	Encoding string

	LogFile string
}

// Options for loading config with CLI flag overrides.
// Zero values mean "not set on the command line".
type Options struct {
	STUNServer  string
	TURNServer  string
	TURNUser    string
	TURNPass    string
	ForceRelay  bool
	OutputDir   string
	ChunkSize   int
	ByeCloses   bool
	NoDeparture bool
	KeepAlive   time.Duration
	Greeting    string
	Encoding    string
	LogFile     string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	env := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	cfg := &Config{
		STUNServer: firstNonEmpty(opts.STUNServer, env("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstNonEmpty(opts.TURNServer, env("TURN_SERVER")),
		TURNUser:   firstNonEmpty(opts.TURNUser, env("TURN_USERNAME")),
		TURNPass:   firstNonEmpty(opts.TURNPass, env("TURN_PASSWORD")),
		OutputDir:  firstNonEmpty(opts.OutputDir, env("P2P_OUTPUT_DIR"), DefaultOutputDir),
		Greeting:   firstNonEmpty(opts.Greeting, env("P2P_GREETING")),
		Encoding:   strings.ToLower(firstNonEmpty(opts.Encoding, env("P2P_ENCODING"), DefaultEncoding)),
		LogFile:    firstNonEmpty(opts.LogFile, env("P2P_LOG_FILE")),
	}

	var err error
	if cfg.ForceRelay, err = boolSetting(opts.ForceRelay, env("P2P_FORCE_RELAY"), false); err != nil {
		return nil, fmt.Errorf("P2P_FORCE_RELAY: %w", err)
	}
	if cfg.ByeClosesChannel, err = boolSetting(opts.ByeCloses, env("P2P_BYE_CLOSES"), false); err != nil {
		return nil, fmt.Errorf("P2P_BYE_CLOSES: %w", err)
	}
	if cfg.AnnounceDeparture, err = boolSetting(false, env("P2P_ANNOUNCE_DEPARTURE"), true); err != nil {
		return nil, fmt.Errorf("P2P_ANNOUNCE_DEPARTURE: %w", err)
	}
	if opts.NoDeparture {
		cfg.AnnounceDeparture = false
	}

	cfg.ChunkSize = opts.ChunkSize
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
		if v := env("P2P_CHUNK_SIZE"); v != "" {
			if cfg.ChunkSize, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("P2P_CHUNK_SIZE: %w", ErrInvalidChunkSize)
			}
		}
	}

	cfg.KeepAlive = opts.KeepAlive
	if cfg.KeepAlive == 0 {
		if v := env("P2P_KEEPALIVE"); v != "" {
			if cfg.KeepAlive, err = time.ParseDuration(v); err != nil {
				return nil, fmt.Errorf("P2P_KEEPALIVE: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.ForceRelay && c.GetTURNServers() == nil {
		return ErrRelayWithoutTURN
	}
	if c.ChunkSize <= 0 || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidChunkSize, c.ChunkSize, MaxChunkSize)
	}
	switch c.Encoding {
	case EncodingJSON, EncodingBase64:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEncoding, c.Encoding)
	}
	if c.KeepAlive < 0 {
		return fmt.Errorf("keep-alive interval must not be negative")
	}
	return nil
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
// A bare host is expanded to the usual UDP, TCP and TLS endpoints.
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	host := strings.TrimPrefix(c.TURNServer, "turn:")
	if strings.HasPrefix(c.TURNServer, "turns:") || strings.ContainsAny(host, ":?") {
		return []string{c.TURNServer}
	}
	return []string{
		fmt.Sprintf("turn:%s:3478?transport=udp", host),
		fmt.Sprintf("turn:%s:3478?transport=tcp", host),
		fmt.Sprintf("turns:%s:5349?transport=tcp", host),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func boolSetting(flag bool, env string, def bool) (bool, error) {
	if flag {
		return true, nil
	}
	if env == "" {
		return def, nil
	}
	return strconv.ParseBool(env)
}
