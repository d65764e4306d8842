package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/edfixyz/mosaic/internal/codec"
)

// RemoteClient talks to a ledger client service over HTTP. The service owns
// the key material and proving machinery; this adapter only marshals calls.
// One RemoteClient is bound to a single (owner secret, network) pair and is
// therefore held exclusively by one session.
type RemoteClient struct {
	base    string
	secret  string // hex-encoded owner secret
	network Network
	http    *http.Client
}

var _ Client = (*RemoteClient)(nil)

// NewRemoteClient builds an adapter against the ledger client service at
// base, acting for the given owner secret on the given network.
func NewRemoteClient(base string, network Network, ownerSecret [32]byte, httpClient *http.Client) *RemoteClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteClient{
		base:    strings.TrimRight(base, "/"),
		secret:  hex.EncodeToString(ownerSecret[:]),
		network: network,
		http:    httpClient,
	}
}

type remoteError struct {
	Error string `json:"error"`
}

// call posts a JSON body to /v1/<method> and decodes the reply into out.
func (c *RemoteClient) call(ctx context.Context, method string, params map[string]any, out any) error {
	body := map[string]any{
		"secret":  c.secret,
		"network": c.network,
	}
	for k, v := range params {
		body[k] = v
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/"+method, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger client %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: ledger client %s", ErrAccountNotFound, method)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote remoteError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &remote) == nil && remote.Error != "" {
			return fmt.Errorf("ledger client %s: %s", method, remote.Error)
		}
		return fmt.Errorf("ledger client %s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (c *RemoteClient) SyncState(ctx context.Context) (SyncSummary, error) {
	var summary SyncSummary
	if err := c.call(ctx, "sync_state", nil, &summary); err != nil {
		return SyncSummary{}, err
	}
	return summary, nil
}

func (c *RemoteClient) NewWallet(ctx context.Context) (string, error) {
	var out struct {
		AccountID string `json:"account_id"`
	}
	if err := c.call(ctx, "new_wallet", nil, &out); err != nil {
		return "", err
	}
	return out.AccountID, nil
}

func (c *RemoteClient) NewFaucet(ctx context.Context, symbol string, decimals uint8, maxSupply uint64) (string, error) {
	var out struct {
		AccountID string `json:"account_id"`
	}
	params := map[string]any{
		"symbol":     symbol,
		"decimals":   decimals,
		"max_supply": maxSupply,
	}
	if err := c.call(ctx, "new_faucet", params, &out); err != nil {
		return "", err
	}
	return out.AccountID, nil
}

func (c *RemoteClient) GetAccount(ctx context.Context, accountID string) (*AccountRecord, error) {
	var record AccountRecord
	if err := c.call(ctx, "get_account", map[string]any{"account_id": accountID}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RemoteClient) ImportAccount(ctx context.Context, accountID string) error {
	return c.call(ctx, "import_account", map[string]any{"account_id": accountID}, nil)
}

func (c *RemoteClient) StorageSlot(ctx context.Context, accountID string, slot uint8) (codec.Word, error) {
	var out struct {
		Value codec.Word `json:"value"`
	}
	params := map[string]any{"account_id": accountID, "slot": slot}
	if err := c.call(ctx, "storage_slot", params, &out); err != nil {
		return codec.Word{}, err
	}
	return out.Value, nil
}

func (c *RemoteClient) StorageMapItem(ctx context.Context, accountID string, slot uint8, key codec.Word) (codec.Word, error) {
	var out struct {
		Value codec.Word `json:"value"`
	}
	params := map[string]any{"account_id": accountID, "slot": slot, "key": key}
	if err := c.call(ctx, "storage_map_item", params, &out); err != nil {
		return codec.Word{}, err
	}
	return out.Value, nil
}

func (c *RemoteClient) BuildNote(ctx context.Context, accountID string, draft NoteDraft) (Note, error) {
	var note Note
	params := map[string]any{"account_id": accountID, "draft": draft}
	if err := c.call(ctx, "build_note", params, &note); err != nil {
		return Note{}, err
	}
	return note, nil
}

func (c *RemoteClient) ConsumeNote(ctx context.Context, accountID string, note Note) (string, error) {
	var out struct {
		TransactionID string `json:"transaction_id"`
	}
	params := map[string]any{"account_id": accountID, "note": note}
	if err := c.call(ctx, "consume_note", params, &out); err != nil {
		return "", err
	}
	return out.TransactionID, nil
}

func (c *RemoteClient) FundAccount(ctx context.Context, faucetID, targetID string, amount uint64) (string, error) {
	var out struct {
		TransactionID string `json:"transaction_id"`
	}
	params := map[string]any{
		"faucet_id": faucetID,
		"target_id": targetID,
		"amount":    amount,
	}
	if err := c.call(ctx, "fund_account", params, &out); err != nil {
		return "", err
	}
	return out.TransactionID, nil
}

// Close is a no-op; the remote service owns the underlying resources.
func (c *RemoteClient) Close() error { return nil }
