package churn

import (
	"context"
	"fmt"
	"sort"
	"time"

	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/pkg/xmr"
)

// DaemonService is the part of the daemon the timing deriver reads from.
type DaemonService interface {
	GetTransaction(ctx context.Context, hash string) (*xmr.Transaction, error)
	GetOutputs(ctx context.Context, indexes []uint64) ([]xmr.Output, error)
	GetBlockHeader(ctx context.Context, height uint64) (*xmr.BlockHeader, error)
}

// RingSample is the ring of a transaction's first input resolved down to
// block timestamps.
type RingSample struct {
	KeyOffsets    []uint64
	OutputIndexes []uint64
	Heights       []uint64
	// Timestamps are sorted most recent first.
	Timestamps []uint64
}

// Deriver turns the ring members of a transaction into wait durations.
type Deriver struct {
	daemon   DaemonService
	addFloor bool
	floor    time.Duration
}

// NewDeriver creates a deriver. When addFloor is set, floor is added to every
// derived wait.
func NewDeriver(daemon DaemonService, addFloor bool, floor time.Duration) *Deriver {
	return &Deriver{daemon: daemon, addFloor: addFloor, floor: floor}
}

// Sample fetches txHash and resolves its first ring to block timestamps.
// A transaction without ring inputs yields an empty sample.
func (d *Deriver) Sample(ctx context.Context, txHash string) (*RingSample, error) {
	tx, err := d.daemon.GetTransaction(ctx, txHash)
	if err != nil {
		return nil, err
	}

	s := &RingSample{KeyOffsets: tx.RingOffsets()}
	if len(s.KeyOffsets) == 0 {
		return s, nil
	}
	s.OutputIndexes = AbsoluteIndexes(s.KeyOffsets)

	outs, err := d.daemon.GetOutputs(ctx, s.OutputIndexes)
	if err != nil {
		return nil, err
	}
	if len(outs) != len(s.OutputIndexes) {
		return nil, fmt.Errorf("resolved %d of %d ring members", len(outs), len(s.OutputIndexes))
	}

	s.Heights = make([]uint64, len(outs))
	s.Timestamps = make([]uint64, len(outs))
	for i, out := range outs {
		s.Heights[i] = out.Height
		hdr, err := d.daemon.GetBlockHeader(ctx, out.Height)
		if err != nil {
			return nil, err
		}
		s.Timestamps[i] = hdr.Timestamp
	}
	sort.Slice(s.Timestamps, func(i, j int) bool {
		return s.Timestamps[i] > s.Timestamps[j]
	})
	return s, nil
}

// Derive returns one wait per gap between consecutive ring-member
// timestamps, plus the unlock floor when enabled.
func (d *Deriver) Derive(ctx context.Context, txHash string) ([]time.Duration, error) {
	s, err := d.Sample(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("derive wait times from %s: %w", txHash, err)
	}

	waits := TimestampGaps(s.Timestamps)
	if d.addFloor {
		for i := range waits {
			waits[i] += d.floor
		}
	}

	klog.Schedule.Debug().
		Str("tx_hash", txHash).
		Int("ring_size", len(s.KeyOffsets)).
		Interface("heights", s.Heights).
		Int("waits", len(waits)).
		Msg("Derived wait times from ring members")
	return waits, nil
}

// AbsoluteIndexes converts relative key offsets into global output indexes.
func AbsoluteIndexes(offsets []uint64) []uint64 {
	out := make([]uint64, len(offsets))
	var sum uint64
	for i, off := range offsets {
		sum += off
		out[i] = sum
	}
	return out
}

// TimestampGaps returns ts[i]-ts[i+1] for timestamps sorted in descending
// order.
func TimestampGaps(ts []uint64) []time.Duration {
	if len(ts) < 2 {
		return nil
	}
	gaps := make([]time.Duration, len(ts)-1)
	for i := 0; i < len(ts)-1; i++ {
		gaps[i] = time.Duration(ts[i]-ts[i+1]) * time.Second
	}
	return gaps
}
