package churn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/churn/pkg/xmr"
)

type sweepCall struct {
	From   uint32
	Amount uint64
	To     string
}

// fakeWallet keeps balances in memory. A sweep empties the source account
// and credits the destination as already unlocked, standing in for the
// unlock period the real schedule waits out.
type fakeWallet struct {
	accounts  []xmr.Account
	hashes    []string
	createErr error
	sweepErr  error

	creates     int
	listCalls   int
	sweeps      []sweepCall
	nextHashIdx int
}

func newFakeWallet(balances ...uint64) *fakeWallet {
	w := &fakeWallet{}
	for _, b := range balances {
		w.addAccount(b)
	}
	return w
}

func (w *fakeWallet) addAccount(balance uint64) xmr.Account {
	idx := uint32(len(w.accounts))
	a := xmr.Account{
		Index:           idx,
		BaseAddress:     fmt.Sprintf("addr-%d", idx),
		Balance:         balance,
		UnlockedBalance: balance,
	}
	w.accounts = append(w.accounts, a)
	return a
}

func (w *fakeWallet) GetAccounts(ctx context.Context) ([]xmr.Account, error) {
	w.listCalls++
	out := make([]xmr.Account, len(w.accounts))
	copy(out, w.accounts)
	return out, nil
}

func (w *fakeWallet) CreateAccount(ctx context.Context) (*xmr.NewAccount, error) {
	if w.createErr != nil {
		return nil, w.createErr
	}
	w.creates++
	a := w.addAccount(0)
	return &xmr.NewAccount{Index: a.Index, Address: a.BaseAddress}, nil
}

func (w *fakeWallet) SweepAll(ctx context.Context, from uint32, amount uint64, to string) (*xmr.SweepResult, error) {
	if w.sweepErr != nil {
		return nil, w.sweepErr
	}
	w.sweeps = append(w.sweeps, sweepCall{From: from, Amount: amount, To: to})

	src := &w.accounts[from]
	moved := src.UnlockedBalance
	src.Balance -= moved
	src.UnlockedBalance = 0
	for i := range w.accounts {
		if w.accounts[i].BaseAddress == to {
			w.accounts[i].Balance += moved
			w.accounts[i].UnlockedBalance += moved
		}
	}

	hash := fmt.Sprintf("tx-%d", len(w.sweeps))
	if w.nextHashIdx < len(w.hashes) {
		hash = w.hashes[w.nextHashIdx]
		w.nextHashIdx++
	}
	return &xmr.SweepResult{TxHashes: []string{hash}}, nil
}

// recordingWaiter returns immediately and remembers every duration.
type recordingWaiter struct {
	waits []time.Duration
	err   error
}

func (r *recordingWaiter) Wait(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return r.err
}

// spyDeriver returns fixed waits and records the hashes it was asked for.
type spyDeriver struct {
	waits  []time.Duration
	err    error
	hashes []string
}

func (s *spyDeriver) Derive(ctx context.Context, txHash string) ([]time.Duration, error) {
	s.hashes = append(s.hashes, txHash)
	return s.waits, s.err
}

// fakeDaemon serves a single ring.
type fakeDaemon struct {
	txs        map[string]*xmr.Transaction
	heights    map[uint64]uint64
	timestamps map[uint64]uint64

	outputQueries [][]uint64
	headerCalls   int
}

var errNotFound = errors.New("not found")

func (d *fakeDaemon) GetTransaction(ctx context.Context, hash string) (*xmr.Transaction, error) {
	tx, ok := d.txs[hash]
	if !ok {
		return nil, errNotFound
	}
	return tx, nil
}

func (d *fakeDaemon) GetOutputs(ctx context.Context, indexes []uint64) ([]xmr.Output, error) {
	d.outputQueries = append(d.outputQueries, indexes)
	outs := make([]xmr.Output, len(indexes))
	for i, idx := range indexes {
		h, ok := d.heights[idx]
		if !ok {
			return nil, errNotFound
		}
		outs[i] = xmr.Output{Height: h}
	}
	return outs, nil
}

func (d *fakeDaemon) GetBlockHeader(ctx context.Context, height uint64) (*xmr.BlockHeader, error) {
	d.headerCalls++
	ts, ok := d.timestamps[height]
	if !ok {
		return nil, errNotFound
	}
	return &xmr.BlockHeader{Height: height, Timestamp: ts}, nil
}

func ringTx(offsets ...uint64) *xmr.Transaction {
	return &xmr.Transaction{
		Version: 2,
		Inputs: []xmr.Input{
			{Key: &xmr.KeyInput{KeyOffsets: offsets}},
		},
	}
}

func testSettings(churns int) Settings {
	s := DefaultSettings()
	s.Churns = churns
	s.Pacing = 0
	return s
}
