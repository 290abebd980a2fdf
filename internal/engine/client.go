// Package engine talks to the external move-suggestion service used for
// the automated-opponent seat. Suggestions are plain text and are always
// re-validated by the rules engine before being applied.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var movePattern = regexp.MustCompile(`[a-h][1-8][a-h][1-8][qrbn]?`)

type SuggestRequest struct {
	Fen     string `json:"fen"`
	History string `json:"history"`
}

type SuggestResponse struct {
	Move string `json:"move"`
}

type Client struct {
	url  string
	http *fasthttp.Client

	timeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:     strings.TrimSpace(url),
		http:    &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SuggestMove asks the service for a move given the board placement and
// comma-joined move history. The reply is scanned for the first
// source-destination token; anything else the service says is ignored.
func (c *Client) SuggestMove(ctx context.Context, fenPlacement, movesHistory string) (string, error) {
	if c.url == "" {
		return "", fmt.Errorf("engine url not configured")
	}

	payload, err := json.Marshal(SuggestRequest{Fen: fenPlacement, History: movesHistory})
	if err != nil {
		return "", fmt.Errorf("marshal suggest request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.url)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("suggest request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("suggest request: status %d", resp.StatusCode())
	}

	var out SuggestResponse
	body := resp.Body()
	if err := json.Unmarshal(body, &out); err != nil {
		// Some backends answer free text instead of the JSON shape.
		// A body that does parse is trusted: its move field alone is
		// the suggestion, even when empty.
		out.Move = string(body)
	}

	move := ExtractMove(out.Move)
	if move == "" {
		return "", fmt.Errorf("no move in suggestion %q", strings.TrimSpace(out.Move))
	}
	return move, nil
}

// ExtractMove pulls the first move token out of free text, lowercased.
func ExtractMove(text string) string {
	return movePattern.FindString(strings.ToLower(text))
}
