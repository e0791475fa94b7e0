// Package walletrpc is a typed client for the monero-wallet-rpc methods the
// churn engine needs.
package walletrpc

import (
	"context"
	"errors"
	"fmt"

	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/internal/rpcclient"
	"github.com/Klingon-tech/churn/pkg/xmr"
)

// ErrEmptySweep is returned when sweep_all succeeds without reporting a
// transaction.
var ErrEmptySweep = errors.New("sweep_all returned no transactions")

// SweepPolicy holds the fixed transaction parameters used for every sweep.
type SweepPolicy struct {
	Priority uint32
	RingSize uint32
}

// Client wraps an RPC transport pointed at monero-wallet-rpc.
type Client struct {
	rpc    *rpcclient.Client
	policy SweepPolicy
}

// New creates a wallet client.
func New(rpc *rpcclient.Client, policy SweepPolicy) *Client {
	return &Client{rpc: rpc, policy: policy}
}

type getAccountsResult struct {
	SubaddressAccounts   []xmr.Account `json:"subaddress_accounts"`
	TotalBalance         uint64        `json:"total_balance"`
	TotalUnlockedBalance uint64        `json:"total_unlocked_balance"`
}

// GetAccounts lists every subaddress account of the open wallet, ordered by
// account index.
func (c *Client) GetAccounts(ctx context.Context) ([]xmr.Account, error) {
	var res getAccountsResult
	if err := c.rpc.Call(ctx, "get_accounts", nil, &res); err != nil {
		return nil, err
	}
	if res.SubaddressAccounts == nil {
		return nil, fmt.Errorf("get_accounts: missing subaddress_accounts")
	}
	for i, a := range res.SubaddressAccounts {
		if int(a.Index) != i {
			return nil, fmt.Errorf("get_accounts: account at position %d has index %d", i, a.Index)
		}
	}
	return res.SubaddressAccounts, nil
}

// CreateAccount appends a new account to the wallet.
func (c *Client) CreateAccount(ctx context.Context) (*xmr.NewAccount, error) {
	var res xmr.NewAccount
	if err := c.rpc.Call(ctx, "create_account", nil, &res); err != nil {
		return nil, err
	}
	if res.Address == "" {
		return nil, fmt.Errorf("create_account: missing address")
	}
	klog.Wallet.Debug().
		Uint32("account_index", res.Index).
		Msg("create_account done")
	return &res, nil
}

type sweepAllParams struct {
	AccountIndex uint32 `json:"account_index"`
	Address      string `json:"address"`
	Priority     uint32 `json:"priority"`
	RingSize     uint32 `json:"ring_size"`
	UnlockTime   uint64 `json:"unlock_time"`
	GetTxKey     bool   `json:"get_tx_key"`
}

// SweepAll sends the whole unlocked balance of accountIndex to address.
// amount is the unlocked balance the caller observed; the wallet decides
// the actual amount.
func (c *Client) SweepAll(ctx context.Context, accountIndex uint32, amount uint64, address string) (*xmr.SweepResult, error) {
	params := sweepAllParams{
		AccountIndex: accountIndex,
		Address:      address,
		Priority:     c.policy.Priority,
		RingSize:     c.policy.RingSize,
		UnlockTime:   0,
		GetTxKey:     true,
	}

	var res xmr.SweepResult
	if err := c.rpc.Call(ctx, "sweep_all", params, &res); err != nil {
		return nil, err
	}
	if len(res.TxHashes) == 0 {
		return nil, ErrEmptySweep
	}

	klog.Wallet.Debug().
		Uint32("account_index", accountIndex).
		Uint64("observed_amount", amount).
		Strs("tx_hashes", res.TxHashes).
		Msg("sweep_all submitted")
	return &res, nil
}
