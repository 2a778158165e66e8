package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultTopK    = 3
	defaultTimeout = 30 * time.Second
)

// Client posts questions to an answer API and decodes the JSON reply.
type Client struct {
	endpoint   string
	topK       int
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithTopK(k int) ClientOption {
	return func(c *Client) {
		if k > 0 {
			c.topK = k
		}
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		topK:       defaultTopK,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask sends one question and returns the answer with its sources. Every
// failure mode, network, status or body shape, comes back as an error whose
// message is suitable for showing to the user.
func (c *Client) Ask(ctx context.Context, question string) (string, []Source, error) {
	body, err := json.Marshal(Request{Question: question, TopK: c.topK})
	if err != nil {
		return "", nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("endpoint", c.endpoint).Int("topK", c.topK).Msg("Sending question")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("Answer request transport failure")
		return "", nil, fmt.Errorf("Failed to get response")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, fmt.Errorf("API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, fmt.Errorf("invalid response from server")
	}
	if out.Answer == nil {
		return "", nil, fmt.Errorf("invalid response from server")
	}

	sources := out.Sources
	if sources == nil {
		sources = []Source{}
	}
	return *out.Answer, sources, nil
}
