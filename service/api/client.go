// Package api is the request/response client for the backend's REST
// collaborators. Every method is a thin call-and-decode wrapper; the
// sync core consumes the chat subset through the chat.API interface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"matchakit/config"
	"matchakit/tools/errs"
)

type Client struct {
	base  string
	token string
	hc    *http.Client
}

func New(cfg config.Config) *Client {
	return &Client{
		base:  strings.TrimRight(cfg.APIBase, "/"),
		token: cfg.Token,
		hc:    &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// SetToken swaps the bearer credential, e.g. after Login.
func (c *Client) SetToken(token string) { c.token = token }

// errBody is how the backend reports failures: {"error": "..."}.
type errBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var eb errBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		msg := eb.Error
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return errs.NewCodeError(errs.CodeCall, msg).
			WithDetailf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}
