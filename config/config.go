// Package config handles churn configuration.
//
// Settings are layered: built-in defaults for the selected network, then an
// optional config file (key = value or YAML), then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Klingon-tech/churn/internal/churn"
)

// NetworkType selects default RPC ports.
type NetworkType string

const (
	Mainnet  NetworkType = "mainnet"
	Testnet  NetworkType = "testnet"
	Stagenet NetworkType = "stagenet"
)

// Config holds the runtime configuration of one churn invocation.
type Config struct {
	Network NetworkType `conf:"network"`

	// monero-wallet-rpc
	Wallet RPCConfig

	// monerod
	Daemon RPCConfig

	Churn ChurnConfig
	Sweep SweepConfig
	Cache CacheConfig
	Log   LogConfig
}

// RPCConfig points at one RPC server. Keys are wallet.url / daemon.url and
// wallet.timeout / daemon.timeout.
type RPCConfig struct {
	URL     string
	Timeout time.Duration
}

// ChurnConfig holds churn scheduling settings.
type ChurnConfig struct {
	Count    int  `conf:"churn.count"`
	CountSet bool // Count came from a file or flag; otherwise a random count is picked.
	Lower int `conf:"churn.lower"`
	Upper int `conf:"churn.upper"`

	DryRun bool `conf:"churn.dryrun"`
	Quick  bool `conf:"churn.quick"`
	Yes    bool // Skip the live-run confirmation (flag only).

	WaitLower  time.Duration `conf:"churn.wait_lower"`
	WaitUpper  time.Duration `conf:"churn.wait_upper"`
	QuickLower time.Duration `conf:"churn.quick_lower"`
	QuickUpper time.Duration `conf:"churn.quick_upper"`

	AddUnlockFloor bool          `conf:"churn.unlock_floor"`
	UnlockFloor    time.Duration `conf:"churn.unlock_floor_duration"`
	Pacing         time.Duration `conf:"churn.pacing"`
}

// SweepConfig holds the fixed transaction policy for sweep_all.
type SweepConfig struct {
	Priority uint32 `conf:"sweep.priority"`
	RingSize uint32 `conf:"sweep.ringsize"`
}

// CacheConfig selects the session cache backend.
type CacheConfig struct {
	Backend string `conf:"cache.backend"` // memory or badger
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// Settings converts the churn section into the engine's immutable settings.
func (c *Config) Settings() churn.Settings {
	return churn.Settings{
		Churns:         c.Churn.Count,
		ChurnLower:     c.Churn.Lower,
		ChurnUpper:     c.Churn.Upper,
		DryRun:         c.Churn.DryRun || c.Churn.Quick,
		Quick:          c.Churn.Quick,
		WaitLower:      c.Churn.WaitLower,
		WaitUpper:      c.Churn.WaitUpper,
		QuickLower:     c.Churn.QuickLower,
		QuickUpper:     c.Churn.QuickUpper,
		AddUnlockFloor: c.Churn.AddUnlockFloor,
		UnlockFloor:    c.Churn.UnlockFloor,
		Pacing:         c.Churn.Pacing,
	}
}

// DefaultConfigDir returns the platform-specific config directory.
//
//	Linux:   ~/.churn
//	macOS:   ~/Library/Application Support/Churn
//	Windows: %APPDATA%\Churn
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".churn"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Churn")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Churn")
		}
		return filepath.Join(home, "AppData", "Roaming", "Churn")
	default:
		return filepath.Join(home, ".churn")
	}
}

// DefaultConfigFile returns the config file read when --config is not given.
// It is optional; a missing file means defaults.
func DefaultConfigFile() string {
	return filepath.Join(DefaultConfigDir(), "churn.conf")
}
