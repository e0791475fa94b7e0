// Package xmr holds the wallet and chain data types shared by the RPC
// clients and the churn engine.
package xmr

// Account is a snapshot of one subaddress account.
type Account struct {
	Index           uint32 `json:"account_index"`
	BaseAddress     string `json:"base_address"`
	Balance         uint64 `json:"balance"`
	UnlockedBalance uint64 `json:"unlocked_balance"`
	Label           string `json:"label,omitempty"`
	Tag             string `json:"tag,omitempty"`
}

// LockedBalance is the part of the balance not yet spendable.
func (a Account) LockedBalance() uint64 {
	if a.UnlockedBalance > a.Balance {
		return 0
	}
	return a.Balance - a.UnlockedBalance
}

// NewAccount is the result of creating an account.
type NewAccount struct {
	Index   uint32 `json:"account_index"`
	Address string `json:"address"`
}

// SweepResult is what the wallet reports after a sweep_all.
type SweepResult struct {
	TxHashes []string `json:"tx_hash_list"`
	Amounts  []uint64 `json:"amount_list"`
	Fees     []uint64 `json:"fee_list"`
}

// TxHash returns the first transaction hash of the sweep, or "" if the
// wallet reported none.
func (r *SweepResult) TxHash() string {
	if r == nil || len(r.TxHashes) == 0 {
		return ""
	}
	return r.TxHashes[0]
}
