package balancer

import (
	"fmt"
	"os"

	"docring/internal/config"
	"docring/internal/hashing"
	"docring/internal/logging"
)

// NewFromConfig builds a load balancer and adds the configured servers in
// order. A nil logger selects a stderr logger at the configured level.
func NewFromConfig(cfg *config.Config, logger logging.Logger) (*LoadBalancer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	hasher, err := hashing.ByName(cfg.Hash)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel), "")
	}

	lb := New(cfg.VirtualNodes,
		WithHasher(hasher),
		WithLogger(logger),
		WithQueueCapacity(cfg.QueueCapacity),
		WithRejectOverflow(cfg.RejectOverflow),
	)
	for _, s := range cfg.Servers {
		if err := lb.AddServer(s.ID, s.CacheCapacity); err != nil {
			return nil, err
		}
	}
	return lb, nil
}
