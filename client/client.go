// Package client talks to a farmbot-server over REST and the sync websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"farmbot-server/fbos"
)

// RpcIDHeader carries the request id the server echoes as the auto-sync label.
const RpcIDHeader = "X-Farmbot-Rpc-Id"

// APIError is a non 2xx answer.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, strings.TrimSpace(e.Body))
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tokens", "", body, &resp); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// OsUpdate returns the update button state of the logged in device.
func (c *Client) OsUpdate(ctx context.Context) (fbos.ButtonProps, error) {
	var resp struct {
		Data fbos.ButtonProps `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/device/os_update", "", nil, &resp)
	return resp.Data, err
}

// CheckUpdates asks the bot to look for a FarmBot OS update, returns queued or sent.
func (c *Client) CheckUpdates(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/device/check_updates", "", nil, &resp)
	return resp.Status, err
}

func (c *Client) do(ctx context.Context, method, path, label string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if label != "" {
		req.Header.Set(RpcIDHeader, label)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
