package churn

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/pkg/xmr"
)

// WalletService is the wallet capability the orchestrator drives.
type WalletService interface {
	AccountCreator
	GetAccounts(ctx context.Context) ([]xmr.Account, error)
	SweepAll(ctx context.Context, accountIndex uint32, amount uint64, address string) (*xmr.SweepResult, error)
}

// Transfer is one sweep issued (or simulated) during a round.
type Transfer struct {
	From   uint32
	Amount uint64
	TxHash string
}

// Round records what happened in one churn round.
type Round struct {
	Number      int
	Destination uint32
	Wait        time.Duration
	Transfers   []Transfer
	Skipped     []uint32
}

// Report summarizes a churn session.
type Report struct {
	TotalChurns int
	DryRun      bool
	TxHash      string
	Schedule    *Schedule
	Rounds      []Round
	States      []State
}

// Plan is the fixed shape of a session once scheduling is done.
type Plan struct {
	TotalChurns int
	Accounts    []xmr.Account
	Schedule    *Schedule
}

// Orchestrator runs one churn session. It is not safe for concurrent use.
type Orchestrator struct {
	wallet   WalletService
	gen      *Generator
	waiter   Waiter
	settings Settings
	log      zerolog.Logger

	report *Report
}

// NewOrchestrator wires a session. settings.Churns must already be chosen.
func NewOrchestrator(wallet WalletService, gen *Generator, waiter Waiter, settings Settings) *Orchestrator {
	return &Orchestrator{
		wallet:   wallet,
		gen:      gen,
		waiter:   waiter,
		settings: settings,
		log:      klog.Churn,
	}
}

func (o *Orchestrator) enter(s State) {
	o.report.States = append(o.report.States, s)
	o.log.Debug().Stringer("state", s).Msg("state change")
}

func (o *Orchestrator) fail(state State, err error) (*Report, error) {
	o.enter(StateFailed)
	return o.report, fmt.Errorf("%s: %w", state, err)
}

// Run executes the whole session: validate, provision, first sweep into
// account 1, schedule, then wait/sweep into accounts 2..N-1 and finally
// back into account 0. Any error aborts the session.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	total := o.settings.Churns
	o.report = &Report{TotalChurns: total, DryRun: o.settings.DryRun}

	o.enter(StateValidating)
	if err := ValidateCount(total, o.settings.ChurnLower, o.settings.ChurnUpper); err != nil {
		return o.fail(StateValidating, err)
	}
	if o.settings.DryRun {
		o.log.Warn().Msg("DRY RUN IN PROGRESS: FUNDS WILL NOT BE MOVED")
	}

	o.enter(StateProvisioning)
	plan, err := o.provision(ctx, total)
	if err != nil {
		return o.fail(StateProvisioning, err)
	}

	o.enter(StateFirstSweep)
	txHash, err := o.churn(ctx, 1, 1, 0, plan.Accounts)
	if err != nil {
		return o.fail(StateFirstSweep, err)
	}
	o.report.TxHash = txHash

	o.enter(StateScheduling)
	if txHash != "" {
		o.log.Info().Str("tx_hash", txHash).Msg("Using transaction to derive wait times")
	}
	plan.Schedule, err = o.gen.Generate(ctx, total, txHash)
	if err != nil {
		return o.fail(StateScheduling, err)
	}
	if plan.Schedule.Len() != total-1 {
		return o.fail(StateScheduling, fmt.Errorf("schedule has %d waits, need %d", plan.Schedule.Len(), total-1))
	}
	o.report.Schedule = plan.Schedule
	o.logSchedule(plan.Schedule)

	for n := 2; n < total; n++ {
		if err := o.waitAndChurn(ctx, plan, n, uint32(n), StateSweeping); err != nil {
			return o.fail(StateSweeping, err)
		}
	}

	if err := o.waitAndChurn(ctx, plan, total, 0, StateFinalSweep); err != nil {
		return o.fail(StateFinalSweep, err)
	}

	o.enter(StateDone)
	o.log.Info().
		Int("churns", total).
		Msg("Churns completed successfully (it may take time for the last balance to unlock)")
	return o.report, nil
}

func (o *Orchestrator) provision(ctx context.Context, total int) (*Plan, error) {
	accounts, err := o.wallet.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	o.log.Info().Int("churns", total).Int("accounts", len(accounts)).Msg("Starting churn session")

	created, err := EnsureAccounts(ctx, o.wallet, total, accounts)
	if err != nil {
		return nil, err
	}
	if created {
		accounts, err = o.wallet.GetAccounts(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(accounts) < total {
		return nil, fmt.Errorf("wallet has %d accounts after provisioning, need %d", len(accounts), total)
	}
	return &Plan{TotalChurns: total, Accounts: accounts}, nil
}

// waitAndChurn consumes the next wait, sleeps, re-fetches balances and runs
// round n into dest.
func (o *Orchestrator) waitAndChurn(ctx context.Context, plan *Plan, n int, dest uint32, sweepState State) error {
	w, ok := plan.Schedule.Next()
	if !ok || w.Round != n {
		return fmt.Errorf("no wait scheduled for round %d", n)
	}

	o.enter(StateWaiting)
	o.log.Info().
		Int("round", n).
		Dur("wait", w.Duration).
		Float64("hours", xmr.Hours(w.Duration)).
		Msg("Sleeping before next churn")
	if err := o.waiter.Wait(ctx, w.Duration); err != nil {
		return err
	}

	o.enter(sweepState)
	accounts, err := o.wallet.GetAccounts(ctx)
	if err != nil {
		return err
	}
	_, err = o.churn(ctx, n, dest, w.Duration, accounts)
	return err
}

// churn sweeps every other account's unlocked balance into dest and returns
// the hash of the first sweep it issued.
func (o *Orchestrator) churn(ctx context.Context, n int, dest uint32, wait time.Duration, accounts []xmr.Account) (string, error) {
	if int(dest) >= len(accounts) {
		return "", fmt.Errorf("destination account %d does not exist (%d accounts)", dest, len(accounts))
	}
	destAddr := accounts[dest].BaseAddress
	round := Round{Number: n, Destination: dest, Wait: wait}
	var txHash string

	o.log.Info().Int("round", n).Uint32("destination", dest).Msg("churn round")

	for _, acct := range accounts {
		if acct.Index == dest {
			continue
		}
		if acct.UnlockedBalance == 0 {
			o.log.Info().
				Uint32("from", acct.Index).
				Uint32("to", dest).
				Msg("Nothing to transfer")
			round.Skipped = append(round.Skipped, acct.Index)
			continue
		}

		o.log.Info().
			Uint32("from", acct.Index).
			Uint32("to", dest).
			Str("amount", xmr.FormatAmountShort(acct.UnlockedBalance)).
			Bool("dry_run", o.settings.DryRun).
			Msg("Transferring")

		t := Transfer{From: acct.Index, Amount: acct.UnlockedBalance}
		if !o.settings.DryRun {
			res, err := o.wallet.SweepAll(ctx, acct.Index, acct.UnlockedBalance, destAddr)
			if err != nil {
				return "", fmt.Errorf("sweep account %d to %d: %w", acct.Index, dest, err)
			}
			t.TxHash = res.TxHash()
			if txHash == "" {
				txHash = t.TxHash
			}
			o.log.Info().Str("tx_hash", t.TxHash).Msg("Transaction submitted")
		}
		round.Transfers = append(round.Transfers, t)

		if o.settings.Pacing > 0 {
			if err := o.waiter.Wait(ctx, o.settings.Pacing); err != nil {
				return "", err
			}
		}
	}

	o.report.Rounds = append(o.report.Rounds, round)
	return txHash, nil
}

func (o *Orchestrator) logSchedule(s *Schedule) {
	for _, w := range s.Waits() {
		o.log.Info().
			Int("round", w.Round).
			Dur("wait", w.Duration).
			Float64("hours", xmr.Hours(w.Duration)).
			Msg("Scheduled wait")
	}
	o.log.Info().
		Stringer("source", s.Source()).
		Int("waits", s.Len()).
		Dur("total", s.Total()).
		Float64("hours", xmr.Hours(s.Total())).
		Msg("Wait schedule ready")
}
