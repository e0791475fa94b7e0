package xmr

// Transaction is the subset of a decoded transaction the churn engine reads.
type Transaction struct {
	Version int     `json:"version"`
	Inputs  []Input `json:"vin"`
}

// Input is one transaction input. Coinbase inputs carry Gen instead of Key.
type Input struct {
	Key *KeyInput `json:"key,omitempty"`
	Gen *GenInput `json:"gen,omitempty"`
}

// KeyInput is a ring-signature input. KeyOffsets are relative: each entry is
// the distance from the previous ring member's global output index.
type KeyInput struct {
	Amount     uint64   `json:"amount"`
	KeyOffsets []uint64 `json:"key_offsets"`
	KeyImage   string   `json:"k_image"`
}

// GenInput is a coinbase input.
type GenInput struct {
	Height uint64 `json:"height"`
}

// RingOffsets returns the key offsets of the first ring-signature input,
// or nil if the transaction has none.
func (tx *Transaction) RingOffsets() []uint64 {
	for _, in := range tx.Inputs {
		if in.Key != nil {
			return in.Key.KeyOffsets
		}
	}
	return nil
}

// Output is a global output as returned by the daemon's /get_outs.
type Output struct {
	Height   uint64 `json:"height"`
	Key      string `json:"key"`
	Mask     string `json:"mask"`
	TxID     string `json:"txid"`
	Unlocked bool   `json:"unlocked"`
}

// BlockHeader is the subset of a block header the churn engine reads.
type BlockHeader struct {
	Height    uint64 `json:"height"`
	Hash      string `json:"hash"`
	Timestamp uint64 `json:"timestamp"`
}
