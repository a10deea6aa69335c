// Package config loads the YAML-configured options the connection core and
// CLI front-end need: room id, heartbeat cadence, protocol version,
// transport selection, and the server-info source. Generalizes the
// teacher's internal/config.go (YAML load + zero-value defaulting block).
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidHeartbeatInterval is returned by Validate when the configured
// interval is not strictly positive, per spec.md §4.7.
var ErrInvalidHeartbeatInterval = errors.New("config: heartbeat_interval must be > 0")

// ErrInvalidProtocolVersion is returned by Validate for a protocol_version
// outside the 0..3 range this client understands.
var ErrInvalidProtocolVersion = errors.New("config: protocol_version must be 0, 1, 2, or 3")

// ClientOptions is the full set of knobs a connection needs: room id,
// heartbeat interval, protocol version (C7 of spec.md), plus the transport
// and server-info wiring the expansion adds.
type ClientOptions struct {
	RoomID int64 `yaml:"room_id"`

	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ProtocolVersion   uint16        `yaml:"protocol_version"`

	Transport string `yaml:"transport"` // "tcp" or "websocket"

	// ServerInfoURL, when set, is used to build an HTTPProvider
	// (fmt.Sprintf'd with the room id). When empty, a StaticProvider must
	// be supplied by the caller instead.
	ServerInfoURL string `yaml:"server_info_url"`

	DialTimeout       time.Duration `yaml:"dial_timeout"`
	HandshakeDeadline time.Duration `yaml:"handshake_deadline"`
}

// LoadConfig reads path as YAML into a ClientOptions and fills zero-valued
// fields with defaults, mirroring the teacher's LoadConfig defaulting block
// field by field.
func LoadConfig(path string) (*ClientOptions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read file")
	}
	var c ClientOptions
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrap(err, "config: parse yaml")
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *ClientOptions) {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = 2
	}
	if c.Transport == "" {
		c.Transport = "websocket"
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.HandshakeDeadline == 0 {
		c.HandshakeDeadline = 15 * time.Second
	}
}

// Validate checks the invariants spec.md §4.7 places on ClientOptions.
func (c ClientOptions) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}
	if c.ProtocolVersion > 3 {
		return ErrInvalidProtocolVersion
	}
	return nil
}
