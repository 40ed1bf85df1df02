package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"docring/internal/hashing"
	"docring/internal/message"
	"docring/internal/taskqueue"
)

// ServerSpec describes one server to place on the ring at startup.
type ServerSpec struct {
	ID            uint32 `toml:"id"`
	CacheCapacity uint32 `toml:"cache_capacity"`
}

// Config holds the load balancer configuration.
type Config struct {
	VirtualNodes   bool         `toml:"virtual_nodes"`
	Hash           string       `toml:"hash"`
	QueueCapacity  int          `toml:"queue_capacity"`
	RejectOverflow bool         `toml:"reject_overflow"`
	LogLevel       string       `toml:"log_level"`
	Servers        []ServerSpec `toml:"servers"`
	// ServerList is a compact "id=cache,..." form appended to Servers.
	ServerList     string       `toml:"server_list"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	return &Config{
		Hash:          "xxhash",
		QueueCapacity: taskqueue.DefaultCapacity,
		LogLevel:      "info",
	}
}

// Load reads a TOML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.expandServerList(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text on top of Default and validates the result.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.expandServerList(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}

func (c *Config) expandServerList() error {
	servers, err := ParseServers(c.ServerList)
	if err != nil {
		return err
	}
	c.Servers = append(c.Servers, servers...)
	c.ServerList = ""
	return nil
}

// ParseServers parses a comma-separated list of servers in the format:
// "id1=cache1,id2=cache2"
func ParseServers(serversStr string) ([]ServerSpec, error) {
	if serversStr == "" {
		return []ServerSpec{}, nil
	}

	parts := strings.Split(serversStr, ",")
	servers := make([]ServerSpec, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid server format: %s (expected id=cache)", part)
		}

		id, err := strconv.ParseUint(strings.TrimSpace(kv[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid server id in %s: %w", part, err)
		}
		capacity, err := strconv.ParseUint(strings.TrimSpace(kv[1]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid cache capacity in %s: %w", part, err)
		}

		servers = append(servers, ServerSpec{
			ID:            uint32(id),
			CacheCapacity: uint32(capacity),
		})
	}

	return servers, nil
}

// Validate checks the configuration for values the balancer would reject.
func (c *Config) Validate() error {
	var errs []error

	if _, err := hashing.ByName(c.Hash); err != nil {
		errs = append(errs, err)
	}
	if c.QueueCapacity < 0 {
		errs = append(errs, fmt.Errorf("queue_capacity must not be negative, got %d", c.QueueCapacity))
	}

	seen := make(map[uint32]bool, len(c.Servers))
	for _, s := range c.Servers {
		if s.ID >= message.ReplicaOffset {
			errs = append(errs, fmt.Errorf("server %d: id must be below %d", s.ID, message.ReplicaOffset))
		}
		if s.CacheCapacity < 1 {
			errs = append(errs, fmt.Errorf("server %d: cache_capacity must be at least 1", s.ID))
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("server %d: duplicate id", s.ID))
		}
		seen[s.ID] = true
	}

	return errors.Join(errs...)
}
