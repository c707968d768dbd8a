package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

// Client calls the market API, signing every POST with the wallet key
type Client struct {
	baseURL    string
	signer     solana.PrivateKey
	httpClient *http.Client
	now        func() time.Time
}

// APIError is a non-2xx response from the market API
type APIError struct {
	Status int    `json:"-"`
	Code   int    `json:"code,omitempty"`
	Name   string `json:"name,omitempty"`
	Msg    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%d %s (%d): %s", e.Status, e.Name, e.Code, e.Msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Msg)
}

// NewClient creates a client for baseURL, e.g. "http://localhost:8080"
func NewClient(baseURL string, signer solana.PrivateKey) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				IdleConnTimeout:       10 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		now: time.Now,
	}
}

// WithHTTPClient replaces the transport, e.g. with an httptest server client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Signer returns the wallet address requests are signed with
func (c *Client) Signer() string {
	return c.signer.PublicKey().String()
}

// Post sends body as JSON to path and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	ts := c.now().Unix()
	signature, err := ntsolana.SignMessage(c.signer, ntsolana.RequestMessage(http.MethodPost, req.URL.Path, ts, data))
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	req.Header.Set("X-Signer", c.Signer())
	req.Header.Set("X-Signature", signature)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))

	return c.do(req, out)
}

// Get fetches path and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Msg == "" {
			apiErr.Msg = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
