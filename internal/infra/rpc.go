package infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"drift_go/internal/chain"
)

// RPCClient talks to the signing/RPC sidecar that owns wallet keys,
// blockhash handling, and ledger connectivity. This layer only decides
// WHAT to submit; signing and confirmation mechanics live behind this
// boundary.
type RPCClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRPCClient creates a client for the configured endpoint.
func NewRPCClient(cfg *Config) *RPCClient {
	return &RPCClient{
		baseURL: cfg.Chain.RPCURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "rpc_client"),
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type wireMeta struct {
	Address  string `json:"address"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

type wireInstruction struct {
	ProgramID string     `json:"program_id"`
	Accounts  []wireMeta `json:"accounts"`
	Data      string     `json:"data"` // base64
}

type submitParams struct {
	Instructions []wireInstruction `json:"instructions"`
	Signers      []string          `json:"signers"`
}

// Submit packs the instructions into one transaction and blocks until
// the sidecar reports confirmation or failure. The call is
// atomic-or-nothing; no retry happens here.
func (c *RPCClient) Submit(ctx context.Context, ixs []chain.Instruction, signers []chain.Address) (chain.Signature, error) {
	params := submitParams{
		Instructions: make([]wireInstruction, 0, len(ixs)),
		Signers:      make([]string, 0, len(signers)),
	}
	for _, ix := range ixs {
		wi := wireInstruction{
			ProgramID: ix.ProgramID.String(),
			Data:      base64.StdEncoding.EncodeToString(ix.Data),
		}
		for _, a := range ix.Accounts {
			wi.Accounts = append(wi.Accounts, wireMeta{
				Address:  a.Address.String(),
				Signer:   a.Signer,
				Writable: a.Writable,
			})
		}
		params.Instructions = append(params.Instructions, wi)
	}
	for _, s := range signers {
		params.Signers = append(params.Signers, s.String())
	}

	raw, err := c.call(ctx, "submitTransaction", params)
	if err != nil {
		return "", err
	}
	var sig string
	if err := json.Unmarshal(raw, &sig); err != nil {
		return "", fmt.Errorf("parse submit response: %w", err)
	}
	c.logger.Info("transaction confirmed", slog.String("signature", sig))
	return chain.Signature(sig), nil
}

type accountResult struct {
	Exists bool   `json:"exists"`
	Data   string `json:"data"` // base64
}

// Fetch reads the current raw account state. Missing accounts report
// exists=false, not an error.
func (c *RPCClient) Fetch(ctx context.Context, addr chain.Address) ([]byte, bool, error) {
	raw, err := c.call(ctx, "getAccount", map[string]string{"address": addr.String()})
	if err != nil {
		return nil, false, err
	}
	var res accountResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("parse account response: %w", err)
	}
	if !res.Exists {
		return nil, false, nil
	}
	data, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return nil, false, fmt.Errorf("decode account data: %w", err)
	}
	return data, true, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status=%d body=%s", method, resp.StatusCode, string(respBody))
	}

	var parsed rpcResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, parsed.Error
	}
	return parsed.Result, nil
}
