package kaiawallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/da1suk8/donation-demo/pkg/errors"
)

const (
	preparePath = "/api/v1/k/prepare"
	resultPath  = "/api/v1/k/result/"
)

// Client talks to the custodial wallet's asynchronous operation API.
// Every operation is a prepare call returning a request key, an
// out-of-band approval in the wallet app, and result polling.
type Client struct {
	apiURL      string
	bappName    string
	chainID     string
	maxAttempts int
	interval    time.Duration
	httpClient  *http.Client
}

type Option func(*Client)

// WithPolling overrides the poll budget and interval.
func WithPolling(maxAttempts int, interval time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.interval = interval
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(apiURL, bappName string, chainID int, opts ...Option) *Client {
	c := &Client{
		apiURL:      apiURL,
		bappName:    bappName,
		chainID:     strconv.Itoa(chainID),
		maxAttempts: 30,
		interval:    2 * time.Second,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PrepareAuth creates a wallet authentication request and returns its
// request key.
func (c *Client) PrepareAuth(ctx context.Context) (string, error) {
	return c.prepare(ctx, &prepareRequest{
		Type:    RequestTypeAuth,
		ChainID: c.chainID,
		Bapp:    bapp{Name: c.bappName},
	})
}

// PrepareSendKaia creates a value transfer request. The amount is the
// user-facing decimal string; the wallet converts it itself.
func (c *Client) PrepareSendKaia(ctx context.Context, to, amount string) (string, error) {
	return c.prepare(ctx, &prepareRequest{
		Type:    RequestTypeSendKaia,
		ChainID: c.chainID,
		Bapp:    bapp{Name: c.bappName},
		Transaction: &transaction{
			To:     to,
			Amount: amount,
		},
	})
}

// PrepareExecuteContract creates a contract call request. abi is the
// JSON ABI of the single method being called, params its JSON-encoded
// argument list and valueHex the attached value as a hex quantity.
func (c *Client) PrepareExecuteContract(ctx context.Context, to, abi, params, valueHex string) (string, error) {
	return c.prepare(ctx, &prepareRequest{
		Type:    RequestTypeExecuteContract,
		ChainID: c.chainID,
		Bapp:    bapp{Name: c.bappName},
		Transaction: &transaction{
			To:     to,
			Abi:    abi,
			Params: params,
			Value:  valueHex,
		},
	})
}

func (c *Client) prepare(ctx context.Context, req *prepareRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.WrapAndReport(err, "marshal prepare request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+preparePath, bytes.NewReader(body))
	if err != nil {
		return "", errors.WrapAndReport(err, "build prepare request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", errors.WrapAndReport(err, "post wallet prepare request")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WrapAndReport(err, "read wallet prepare response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.ErrorfAndReport("wallet prepare status %v: %v", resp.StatusCode, string(data))
	}
	var prepared prepareResponse
	if err := json.Unmarshal(data, &prepared); err != nil {
		return "", errors.WrapAndReport(err, "unmarshal wallet prepare response")
	}
	if prepared.RequestKey == "" {
		return "", errors.NewWithReport("wallet prepare response missing request key")
	}
	return prepared.RequestKey, nil
}

// Result fetches the current status of the pending operation.
func (c *Client) Result(ctx context.Context, requestKey string) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+resultPath+requestKey, nil)
	if err != nil {
		return nil, errors.WrapAndReport(err, "build result request")
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "fetch wallet result")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read wallet result response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("wallet result status %v: %v", resp.StatusCode, string(data))
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "unmarshal wallet result response")
	}
	return &result, nil
}

// DeepLink builds the app link that opens the wallet on the pending
// request.
func (c *Client) DeepLink(requestKey string) string {
	return fmt.Sprintf("kaikas://wallet/api?request_key=%v", requestKey)
}
