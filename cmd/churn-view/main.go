// churn-view lists the subaddress accounts of a Monero wallet with their
// unlocked, total and locked balances.
//
// Usage:
//
//	churn-view [--network=...] [--wallet-rpc=URL]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/Klingon-tech/churn/config"
	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/internal/rpcclient"
	"github.com/Klingon-tech/churn/internal/walletrpc"
	"github.com/Klingon-tech/churn/pkg/xmr"
)

func main() {
	cfg, _, err := config.Load("churn-view", os.Args[1:], os.Stdout)
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fatal("%v", err)
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wallet := walletrpc.New(
		rpcclient.NewWithTimeout(cfg.Wallet.URL, cfg.Wallet.Timeout),
		walletrpc.SweepPolicy{Priority: cfg.Sweep.Priority, RingSize: cfg.Sweep.RingSize},
	)
	accounts, err := wallet.GetAccounts(ctx)
	if err != nil {
		fatal("get accounts: %v", err)
	}
	printAccounts(os.Stdout, accounts)
}

func printAccounts(w io.Writer, accounts []xmr.Account) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Account\tUnlocked\tTotal\tLocked\tLabel\tAddress")

	var unlocked, total uint64
	for _, a := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.Index,
			xmr.FormatAmount(a.UnlockedBalance),
			xmr.FormatAmount(a.Balance),
			xmr.FormatAmount(a.LockedBalance()),
			a.Label,
			a.BaseAddress)
		unlocked += a.UnlockedBalance
		total += a.Balance
	}
	var locked uint64
	if total > unlocked {
		locked = total - unlocked
	}
	fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t\t\n",
		xmr.FormatAmount(unlocked), xmr.FormatAmount(total), xmr.FormatAmount(locked))
	tw.Flush()
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
