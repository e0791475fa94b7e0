package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrHelp is returned by Load when --help or --version was handled.
var ErrHelp = errors.New("help requested")

// Version is reported by --version.
const Version = "0.1.0"

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool

	Network string
	Config  string

	WalletRPC string
	DaemonRPC string

	Churns int
	DryRun bool
	Quick  bool
	Yes    bool

	Cache string

	LogLevel string
	LogFile  string
	LogJSON  bool

	Args []string

	SetChurns  bool
	SetLogJSON bool
}

// ParseFlags parses command-line flags for the named program.
func ParseFlags(name string, args []string, output io.Writer) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	fs.StringVar(&f.Network, "network", "", "Network type (mainnet, testnet or stagenet)")
	fs.StringVar(&f.Config, "config", "", "Config file path")

	fs.StringVar(&f.WalletRPC, "wallet-rpc", "", "monero-wallet-rpc URL")
	fs.StringVar(&f.DaemonRPC, "daemon-rpc", "", "monerod RPC URL")

	fs.IntVar(&f.Churns, "churns", 0, "Number of churns")
	fs.IntVar(&f.Churns, "c", 0, "Number of churns (shorthand)")
	fs.BoolVar(&f.DryRun, "dry-run", false, "Run without moving funds")
	fs.BoolVar(&f.DryRun, "d", false, "Run without moving funds (shorthand)")
	fs.BoolVar(&f.Quick, "quick-dry-run", false, "Dry run with waits of a few seconds")
	fs.BoolVar(&f.Quick, "q", false, "Quick dry run (shorthand)")
	fs.BoolVar(&f.Yes, "yes", false, "Do not ask for confirmation before moving funds")
	fs.BoolVar(&f.Yes, "y", false, "Do not ask for confirmation (shorthand)")

	fs.StringVar(&f.Cache, "cache", "", "Session cache backend (memory or badger)")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage(output, name)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	f.SetChurns = isFlagSet(fs, "churns") || isFlagSet(fs, "c")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()

	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}

	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}

	if f.WalletRPC != "" {
		cfg.Wallet.URL = f.WalletRPC
	}
	if f.DaemonRPC != "" {
		cfg.Daemon.URL = f.DaemonRPC
	}

	if f.SetChurns {
		cfg.Churn.Count = f.Churns
		cfg.Churn.CountSet = true
	}
	if f.Quick {
		cfg.Churn.DryRun = true
		cfg.Churn.Quick = true
	} else if f.DryRun {
		cfg.Churn.DryRun = true
	}
	if f.Yes {
		cfg.Churn.Yes = true
	}

	if f.Cache != "" {
		cfg.Cache.Backend = strings.ToLower(f.Cache)
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage(w io.Writer, name string) {
	fmt.Fprintf(w, `%s - churn funds between the accounts of a Monero wallet

Usage:
  %s [options]

Churn Options:
  --churns, -c        Number of churns, 3-10 (default: random in range)
  --dry-run, -d       Simulate the whole session without moving funds
  --quick-dry-run, -q Dry run with waits of a few seconds
  --yes, -y           Do not ask for confirmation before moving funds

Connection Options:
  --network           mainnet (default), testnet or stagenet
  --wallet-rpc        monero-wallet-rpc URL (mainnet: http://127.0.0.1:18082)
  --daemon-rpc        monerod URL (mainnet: http://127.0.0.1:18081)
  --config            Config file, key = value or .yaml (default: %s)
  --cache             Session cache backend: memory (default) or badger

Logging Options:
  --log-level         Log level: debug, info, warn, error (default: info)
  --log-file          Also write JSON logs to this file
  --log-json          Output logs as JSON

Other:
  --help, -h          Show this help message
  --version           Show version information

Examples:
  # Simulate five churns with short waits
  %s --churns=5 --quick-dry-run

  # Churn for real on stagenet
  %s --network=stagenet --churns=4
`, name, name, DefaultConfigFile(), name, name)
}

// Load builds configuration with the following precedence:
// 1. Default values for the network
// 2. Config file
// 3. Command-line flags
func Load(name string, args []string, output io.Writer) (*Config, *Flags, error) {
	flags, err := ParseFlags(name, args, output)
	if err != nil {
		return nil, nil, err
	}

	if flags.Help {
		printUsage(output, name)
		return nil, flags, ErrHelp
	}
	if flags.Version {
		fmt.Fprintf(output, "%s version %s\n", name, Version)
		return nil, flags, ErrHelp
	}

	network := NetworkType(strings.ToLower(flags.Network))
	cfg := Default(network)

	configPath := flags.Config
	if configPath == "" {
		configPath = DefaultConfigFile()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, nil, fmt.Errorf("config file: %w", err)
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	// A network set in the file picks that network's defaults unless the
	// flag already did.
	if fileNet, ok := fileValues["network"]; ok && flags.Network == "" {
		cfg = Default(NetworkType(strings.ToLower(fileNet)))
	}

	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}
