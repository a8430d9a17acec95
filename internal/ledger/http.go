package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPCaller is a Caller backed by the wallet/node gateway HTTP API.
type HTTPCaller struct {
	BaseURL string
	APIKey  string
	// Client serves reads and submissions. WaitClient serves receipt
	// waits and carries no timeout: finality latency is bounded by the
	// ledger, not by us.
	Client     *http.Client
	WaitClient *http.Client
}

type readRequest struct {
	Function string `json:"function"`
	Args     []any  `json:"args"`
}

type readResponse struct {
	Result json.RawMessage `json:"result"`
}

type submitRequest struct {
	From     string `json:"from"`
	Function string `json:"function"`
	Args     []any  `json:"args"`
	Value    string `json:"value,omitempty"`
}

type submitResponse struct {
	Hash TxHash `json:"hash"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Read executes a query and decodes the typed result into out.
func (c *HTTPCaller) Read(ctx context.Context, call Call, out any) error {
	body, err := json.Marshal(readRequest{Function: call.Function, Args: args(call)})
	if err != nil {
		return &QueryError{Function: call.Function, Err: err}
	}
	url := fmt.Sprintf("%s/v1/contracts/%s/call", c.base(), call.Contract)

	raw, err := c.post(ctx, c.client(), url, body)
	if err != nil {
		return &QueryError{Function: call.Function, Err: err}
	}
	var resp readResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &QueryError{Function: call.Function, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return &QueryError{Function: call.Function, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return nil
}

// Submit sends a mutation intent and returns the pending-transaction hash.
// Rejections (signer refusal, insufficient balance, paused contract) come
// back as MutationError with the gateway's reason.
func (c *HTTPCaller) Submit(ctx context.Context, call Call) (TxHash, error) {
	req := submitRequest{From: call.From, Function: call.Function, Args: args(call)}
	if call.Value != nil && call.Value.Sign() > 0 {
		req.Value = call.Value.String()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", &MutationError{Function: call.Function, Reason: err.Error()}
	}
	url := fmt.Sprintf("%s/v1/contracts/%s/transactions", c.base(), call.Contract)

	raw, err := c.post(ctx, c.client(), url, body)
	if err != nil {
		return "", &MutationError{Function: call.Function, Reason: err.Error()}
	}
	var resp submitResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Hash == "" {
		return "", &MutationError{Function: call.Function, Reason: "gateway returned no transaction hash"}
	}
	return resp.Hash, nil
}

// WaitForReceipt blocks until the gateway reports finality for hash. The
// wait request carries no client timeout; cancellation comes from ctx only.
func (c *HTTPCaller) WaitForReceipt(ctx context.Context, hash TxHash) (*Receipt, error) {
	url := fmt.Sprintf("%s/v1/transactions/%s/receipt?wait=true", c.base(), hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &MutationError{Hash: hash, Reason: err.Error()}
	}
	c.setHeaders(req)

	wc := c.WaitClient
	if wc == nil {
		wc = &http.Client{}
	}
	resp, err := wc.Do(req)
	if err != nil {
		return nil, &MutationError{Hash: hash, Reason: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &MutationError{Hash: hash, Reason: gatewayReason(resp.StatusCode, raw)}
	}
	var rcpt Receipt
	if err := json.Unmarshal(raw, &rcpt); err != nil {
		return nil, &MutationError{Hash: hash, Reason: fmt.Sprintf("decode receipt: %v", err)}
	}
	if rcpt.Hash == "" {
		rcpt.Hash = hash
	}
	return &rcpt, nil
}

func (c *HTTPCaller) post(ctx context.Context, client *http.Client, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s", gatewayReason(resp.StatusCode, raw))
	}
	return raw, nil
}

func (c *HTTPCaller) setHeaders(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}

func (c *HTTPCaller) client() *http.Client {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	return c.Client
}

func (c *HTTPCaller) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// gatewayReason extracts the gateway's error message, falling back to the
// raw body so revert reasons always reach the user verbatim.
func gatewayReason(status int, raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != "" {
		return er.Error
	}
	if len(raw) > 0 {
		return fmt.Sprintf("gateway status %d: %s", status, strings.TrimSpace(string(raw)))
	}
	return fmt.Sprintf("gateway status %d", status)
}

func args(call Call) []any {
	if call.Args == nil {
		return []any{}
	}
	return call.Args
}
