// churn moves every unlocked balance of a Monero wallet through a chain of
// subaddress accounts, waiting between rounds, and finally back to the
// primary account.
//
// Usage:
//
//	churn [--churns=N] [--dry-run | --quick-dry-run] [--yes]
//	churn --help
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Klingon-tech/churn/config"
	"github.com/Klingon-tech/churn/internal/churn"
	"github.com/Klingon-tech/churn/internal/daemonrpc"
	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/internal/rpcclient"
	"github.com/Klingon-tech/churn/internal/storage"
	"github.com/Klingon-tech/churn/internal/walletrpc"
	"github.com/Klingon-tech/churn/pkg/xmr"
	"github.com/lightningnetwork/lnd/clock"
)

func main() {
	cfg, _, err := config.Load("churn", os.Args[1:], os.Stdout)
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fatal("%v", err)
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	start := time.Now()
	klog.WithSession(sessionID(start, os.Getpid()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, cfg)
	if report != nil {
		printSummary(os.Stdout, report, time.Since(start))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			klog.Warn().Msg("Churn session interrupted")
		} else {
			klog.Error().Err(err).Msg("Churn session failed")
		}
		fatal("%v", err)
	}
}

// run wires the clients and runs one session.
func run(ctx context.Context, cfg *config.Config) (*churn.Report, error) {
	settings := cfg.Settings()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if !cfg.Churn.CountSet {
		settings.Churns = churn.RandomChurns(rng, settings.ChurnLower, settings.ChurnUpper)
		klog.Churn.Info().Int("churns", settings.Churns).Msg("Picked random churn count")
	} else if err := churn.ValidateCount(settings.Churns, settings.ChurnLower, settings.ChurnUpper); err != nil {
		return nil, err
	}

	if !settings.DryRun && !cfg.Churn.Yes && isTerminal(os.Stdin) {
		ok, err := confirm(os.Stdin, os.Stderr, fmt.Sprintf(
			"About to move funds through %d accounts of the wallet at %s. Continue? [y/N] ",
			settings.Churns, cfg.Wallet.URL))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("aborted by user")
		}
	}

	cache, err := storage.Open(cfg.Cache.Backend)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	walletRPC := rpcclient.NewWithTimeout(cfg.Wallet.URL, cfg.Wallet.Timeout)
	daemonRPC := rpcclient.NewWithTimeout(cfg.Daemon.URL, cfg.Daemon.Timeout)
	klog.Info().
		Str("wallet", walletRPC.Endpoint()).
		Str("daemon", daemonRPC.Endpoint()).
		Str("network", string(cfg.Network)).
		Bool("dry_run", settings.DryRun).
		Msg("Connecting to wallet and daemon")

	wallet := walletrpc.New(walletRPC,
		walletrpc.SweepPolicy{Priority: cfg.Sweep.Priority, RingSize: cfg.Sweep.RingSize})
	daemon := daemonrpc.New(daemonRPC, cache)

	deriver := churn.NewDeriver(daemon, settings.AddUnlockFloor, settings.UnlockFloor)
	gen := churn.NewGenerator(settings, deriver, rng)
	waiter := newProgressWaiter(clock.NewDefaultClock(), os.Stderr)

	defer klog.Benchmark("churn session")()

	return churn.NewOrchestrator(wallet, gen, waiter, settings).Run(ctx)
}

func printSummary(w io.Writer, r *churn.Report, elapsed time.Duration) {
	mode := "live"
	if r.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "\nChurn summary (%s)\n", mode)
	fmt.Fprintf(w, "  Churns:     %d\n", r.TotalChurns)
	if r.Schedule != nil {
		fmt.Fprintf(w, "  Schedule:   %s, %.2f hours total\n", r.Schedule.Source(), xmr.Hours(r.Schedule.Total()))
	}
	if r.TxHash != "" {
		fmt.Fprintf(w, "  First tx:   %s\n", r.TxHash)
	}
	for _, round := range r.Rounds {
		var moved uint64
		for _, t := range round.Transfers {
			moved += t.Amount
		}
		fmt.Fprintf(w, "  Round %-2d -> account %-2d  %d transfers  %s XMR\n",
			round.Number, round.Destination, len(round.Transfers), xmr.FormatAmountShort(moved))
	}
	if n := len(r.States); n > 0 {
		fmt.Fprintf(w, "  Ended in:   %s after %s\n", r.States[n-1], elapsed.Round(time.Second))
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
