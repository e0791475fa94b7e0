package config

import (
	"fmt"
	"net/url"

	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/internal/storage"
)

// Validate checks the configuration for obvious operator mistakes. The churn
// count itself is validated by the churn session so it is rejected with the
// same message regardless of where it came from.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Mainnet, Testnet, Stagenet:
	default:
		return fmt.Errorf("network must be %q, %q or %q", Mainnet, Testnet, Stagenet)
	}

	if err := validateURL("wallet.url", cfg.Wallet.URL); err != nil {
		return err
	}
	if err := validateURL("daemon.url", cfg.Daemon.URL); err != nil {
		return err
	}

	if err := cfg.Settings().Check(); err != nil {
		return fmt.Errorf("churn: %w", err)
	}

	if cfg.Sweep.Priority > 4 {
		return fmt.Errorf("sweep.priority must be in range [0, 4]")
	}
	if cfg.Sweep.RingSize == 0 {
		return fmt.Errorf("sweep.ringsize must be positive")
	}

	switch cfg.Cache.Backend {
	case storage.BackendMemory, storage.BackendBadger:
	default:
		return fmt.Errorf("cache.backend must be %q or %q", storage.BackendMemory, storage.BackendBadger)
	}

	if !klog.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host", field)
	}
	return nil
}
