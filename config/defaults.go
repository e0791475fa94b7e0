package config

import (
	"time"

	"github.com/Klingon-tech/churn/internal/churn"
	"github.com/Klingon-tech/churn/internal/storage"
)

// DefaultRPCTimeout bounds a single RPC round trip.
const DefaultRPCTimeout = 2 * time.Minute

// Sweep policy defaults. Ring size 16 is the current consensus minimum.
const (
	DefaultPriority = 3
	DefaultRingSize = 16
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	s := churn.DefaultSettings()
	return &Config{
		Network: Mainnet,
		Wallet: RPCConfig{
			URL:     "http://127.0.0.1:18082",
			Timeout: DefaultRPCTimeout,
		},
		Daemon: RPCConfig{
			URL:     "http://127.0.0.1:18081",
			Timeout: DefaultRPCTimeout,
		},
		Churn: ChurnConfig{
			Lower:          s.ChurnLower,
			Upper:          s.ChurnUpper,
			WaitLower:      s.WaitLower,
			WaitUpper:      s.WaitUpper,
			QuickLower:     s.QuickLower,
			QuickUpper:     s.QuickUpper,
			AddUnlockFloor: s.AddUnlockFloor,
			UnlockFloor:    s.UnlockFloor,
			Pacing:         s.Pacing,
		},
		Sweep: SweepConfig{
			Priority: DefaultPriority,
			RingSize: DefaultRingSize,
		},
		Cache: CacheConfig{
			Backend: storage.BackendMemory,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Wallet.URL = "http://127.0.0.1:28082"
	cfg.Daemon.URL = "http://127.0.0.1:28081"
	return cfg
}

// DefaultStagenet returns the default configuration for stagenet.
func DefaultStagenet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Stagenet
	cfg.Wallet.URL = "http://127.0.0.1:38082"
	cfg.Daemon.URL = "http://127.0.0.1:38081"
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Stagenet:
		return DefaultStagenet()
	default:
		return DefaultMainnet()
	}
}
