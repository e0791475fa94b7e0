// Package daemonrpc is a typed client for the monerod endpoints used to
// reconstruct ring-member timing.
package daemonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/internal/rpcclient"
	"github.com/Klingon-tech/churn/internal/storage"
	"github.com/Klingon-tech/churn/pkg/xmr"
)

// statusOK is the status string monerod returns on success.
const statusOK = "OK"

// ErrMalformed marks a response that decoded but is missing required data.
var ErrMalformed = errors.New("malformed daemon response")

// StatusError is returned when monerod answers with a non-OK status.
type StatusError struct {
	Method string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: daemon status %q", e.Method, e.Status)
}

// Client wraps an RPC transport pointed at monerod. Block headers and output
// heights are cached for the lifetime of the client.
type Client struct {
	rpc     *rpcclient.Client
	headers storage.DB
	outputs storage.DB
}

// New creates a daemon client. A nil cache gets an in-memory one.
func New(rpc *rpcclient.Client, cache storage.DB) *Client {
	if cache == nil {
		cache = storage.NewMemory()
	}
	return &Client{
		rpc:     rpc,
		headers: storage.NewPrefixDB(cache, []byte("hdr/")),
		outputs: storage.NewPrefixDB(cache, []byte("out/")),
	}
}

func checkStatus(method, status string) error {
	if status != statusOK {
		return &StatusError{Method: method, Status: status}
	}
	return nil
}

type getTransactionsRequest struct {
	TxHashes     []string `json:"txs_hashes"`
	DecodeAsJSON bool     `json:"decode_as_json"`
}

type getTransactionsResponse struct {
	Status    string   `json:"status"`
	TxsAsJSON []string `json:"txs_as_json"`
	MissedTx  []string `json:"missed_tx"`
}

// GetTransaction fetches and decodes a single transaction by hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*xmr.Transaction, error) {
	req := getTransactionsRequest{TxHashes: []string{hash}, DecodeAsJSON: true}

	var resp getTransactionsResponse
	if err := c.rpc.Post(ctx, "get_transactions", req, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("get_transactions", resp.Status); err != nil {
		return nil, err
	}
	if len(resp.TxsAsJSON) == 0 {
		if len(resp.MissedTx) > 0 {
			return nil, fmt.Errorf("get_transactions: transaction %s not found", hash)
		}
		return nil, fmt.Errorf("get_transactions: %w: no txs_as_json", ErrMalformed)
	}

	var tx xmr.Transaction
	if err := json.Unmarshal([]byte(resp.TxsAsJSON[0]), &tx); err != nil {
		return nil, fmt.Errorf("get_transactions: decode transaction %s: %w", hash, err)
	}
	return &tx, nil
}

type outputRef struct {
	Amount uint64 `json:"amount"`
	Index  uint64 `json:"index"`
}

type getOutsRequest struct {
	Outputs []outputRef `json:"outputs"`
	GetTxID bool        `json:"get_txid"`
}

type getOutsResponse struct {
	Status string       `json:"status"`
	Outs   []xmr.Output `json:"outs"`
}

// GetOutputs resolves global output indexes (RingCT, amount 0) to outputs.
// The result is in the same order as indexes.
func (c *Client) GetOutputs(ctx context.Context, indexes []uint64) ([]xmr.Output, error) {
	outs := make([]xmr.Output, len(indexes))
	var missing []int

	for i, idx := range indexes {
		ok, err := c.cached(c.outputs, idx, &outs[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return outs, nil
	}

	req := getOutsRequest{GetTxID: true}
	for _, i := range missing {
		req.Outputs = append(req.Outputs, outputRef{Amount: 0, Index: indexes[i]})
	}

	var resp getOutsResponse
	if err := c.rpc.Post(ctx, "get_outs", req, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("get_outs", resp.Status); err != nil {
		return nil, err
	}
	if len(resp.Outs) != len(missing) {
		return nil, fmt.Errorf("get_outs: %w: asked for %d outputs, got %d",
			ErrMalformed, len(missing), len(resp.Outs))
	}

	for j, i := range missing {
		outs[i] = resp.Outs[j]
		if err := c.store(c.outputs, indexes[i], resp.Outs[j]); err != nil {
			return nil, err
		}
	}
	return outs, nil
}

type heightParams struct {
	Height uint64 `json:"height"`
}

type getBlockHeaderResult struct {
	Status      string           `json:"status"`
	BlockHeader *xmr.BlockHeader `json:"block_header"`
}

// GetBlockHeader fetches the header of the block at height.
func (c *Client) GetBlockHeader(ctx context.Context, height uint64) (*xmr.BlockHeader, error) {
	var hdr xmr.BlockHeader
	ok, err := c.cached(c.headers, height, &hdr)
	if err != nil {
		return nil, err
	}
	if ok {
		return &hdr, nil
	}

	var res getBlockHeaderResult
	if err := c.rpc.Call(ctx, "get_block_header_by_height", heightParams{Height: height}, &res); err != nil {
		return nil, err
	}
	if err := checkStatus("get_block_header_by_height", res.Status); err != nil {
		return nil, err
	}
	if res.BlockHeader == nil || res.BlockHeader.Timestamp == 0 {
		return nil, fmt.Errorf("get_block_header_by_height %d: %w: missing block_header.timestamp",
			height, ErrMalformed)
	}

	if err := c.store(c.headers, height, res.BlockHeader); err != nil {
		return nil, err
	}
	return res.BlockHeader, nil
}

func cacheKey(n uint64) []byte {
	return []byte(strconv.FormatUint(n, 10))
}

// cached loads key n from db into v. It reports whether the key was present.
func (c *Client) cached(db storage.DB, n uint64, v interface{}) (bool, error) {
	data, err := db.Get(cacheKey(n))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("cache decode: %w", err)
	}
	klog.Storage.Debug().Uint64("key", n).Msg("cache hit")
	return true, nil
}

func (c *Client) store(db storage.DB, n uint64, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := db.Put(cacheKey(n), data); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
