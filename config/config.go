// Package config loads the embeddable server core's runtime configuration:
// the timeout ladder, keep-alive policy, and listener address described in
// §4.5 and §6, following the teacher's YAML-file-plus-defaults convention.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// KeepAlivePolicy controls whether the serve loop ever offers persistent
// connections, per §4.5's keep-alive decision.
type KeepAlivePolicy string

const (
	KeepAlivePolicyAuto  KeepAlivePolicy = "auto"
	KeepAlivePolicyClose KeepAlivePolicy = "close"
)

var AllowedKeepAlivePolicies = []KeepAlivePolicy{KeepAlivePolicyAuto, KeepAlivePolicyClose}

// Default timeout values, chosen generously for an embedded server talking
// to well-behaved clients; operators override via YAML.
const (
	DefaultStartReadRequestTimeout           = 5 * time.Second
	DefaultPersistentStartReadRequestTimeout = 60 * time.Second
	DefaultReadRequestTimeout                = 5 * time.Second
	DefaultWriteTimeout                      = 10 * time.Second
)

// Timeouts is the four-budget ladder from §4.5. A zero Duration means "no
// timeout for this stage".
type Timeouts struct {
	StartReadRequest           time.Duration `yaml:"start_read_request"`
	PersistentStartReadRequest time.Duration `yaml:"persistent_start_read_request"`
	ReadRequest                time.Duration `yaml:"read_request"`
	Write                      time.Duration `yaml:"write"`
}

// Config is the server core's full runtime configuration.
type Config struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`

	Timeouts Timeouts `yaml:"timeouts"`

	KeepAlive KeepAlivePolicy `yaml:"keep_alive"`

	// ShutdownTimeout bounds how long an in-flight handler is given to
	// finish after a shutdown signal before the connection is abandoned
	// (§4.5's "optional shutdown-timeout budget"). Zero means unbounded.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// BufferSize sizes each connection's single fixed working buffer
	// (§3: "never reallocated").
	BufferSize int `yaml:"buffer_size"`

	// EnablePROXY wraps the listener in a PROXY-protocol decoder, the way
	// the teacher does for connections arriving through a load balancer.
	EnablePROXY bool `yaml:"enable_proxy"`

	// TLS, if non-nil, terminates TLS on the listener before connections
	// reach the serve loop.
	TLS *TLSConfig `yaml:"tls"`

	// DrainWait is how long the acceptor waits after closing the listener
	// before it starts closing idle connections.
	DrainWait time.Duration `yaml:"drain_wait"`

	// DrainTimeout bounds how long the acceptor waits for active
	// connections to finish during a drain before giving up.
	DrainTimeout time.Duration `yaml:"drain_timeout"`

	// HealthPort binds the secondary, always-cheap health-check listener,
	// mirroring the teacher's dedicated status port.
	HealthPort uint16 `yaml:"health_port"`

	// NATS, if non-nil, enables the demo SSE broadcast route by connecting
	// to a message bus and republishing one subject's traffic.
	NATS *NATSConfig `yaml:"nats"`

	// ErrorTemplateFile, if set, names an HTML template rendering error
	// pages instead of the default plaintext error body.
	ErrorTemplateFile string `yaml:"error_template_file"`
}

// NATSConfig names a NATS server and subject for the demo broadcast route.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// TLSConfig names an on-disk certificate/key pair to terminate TLS with.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

const DefaultBufferSize = 16 * 1024

// DefaultConfig returns a Config with every field set to this package's
// documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Host: "0.0.0.0",
		Port: 8080,
		Timeouts: Timeouts{
			StartReadRequest:           DefaultStartReadRequestTimeout,
			PersistentStartReadRequest: DefaultPersistentStartReadRequestTimeout,
			ReadRequest:                DefaultReadRequestTimeout,
			Write:                      DefaultWriteTimeout,
		},
		KeepAlive:    KeepAlivePolicyAuto,
		BufferSize:   DefaultBufferSize,
		DrainWait:    DefaultDrainWait,
		DrainTimeout: DefaultDrainTimeout,
		HealthPort:   DefaultHealthPort,
	}
}

const DefaultHealthPort = 8081

const (
	DefaultDrainWait    = 0 * time.Second
	DefaultDrainTimeout = 15 * time.Second
)

// InitConfigFromFile reads and merges a YAML config file over the defaults,
// mirroring the teacher's InitConfigFromFile name and merge-over-defaults
// shape.
func InitConfigFromFile(path string) (*Config, error) {
	c := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := c.Process(); err != nil {
		return nil, err
	}
	return c, nil
}

// Process validates and normalizes a loaded Config, mirroring the teacher's
// post-unmarshal Process() step.
func (c *Config) Process() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("config: buffer_size must be positive, got %d", c.BufferSize)
	}

	switch c.KeepAlive {
	case KeepAlivePolicyAuto, KeepAlivePolicyClose:
	case "":
		c.KeepAlive = KeepAlivePolicyAuto
	default:
		return fmt.Errorf("config: keep_alive must be one of %v, got %q", AllowedKeepAlivePolicies, c.KeepAlive)
	}

	return nil
}

// Addr returns the listener address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
