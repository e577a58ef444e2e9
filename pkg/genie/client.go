package genie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultPollInterval    = time.Second
	defaultMaxPollInterval = 10 * time.Second
	defaultWaitTimeout     = 20 * time.Minute
	maxResponseSizeBytes   = 4 << 20
)

var ErrWaitTimeout = errors.New("timed out waiting for genie message")

type Config struct {
	Host            string        `envconfig:"HOST" split_words:"true" required:"true"`
	Token           string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout         time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" split_words:"true" default:"1s"`
	MaxPollInterval time.Duration `envconfig:"MAX_POLL_INTERVAL" split_words:"true" default:"10s"`
	WaitTimeout     time.Duration `envconfig:"WAIT_TIMEOUT" split_words:"true" default:"20m"`
	RequestsPerSec  float64       `envconfig:"REQUESTS_PER_SEC" split_words:"true" default:"5"`
	Burst           int           `envconfig:"BURST" split_words:"true" default:"1"`
}

// Option customizes Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// Client talks to the Genie conversation API of one Databricks workspace.
// It is safe for concurrent use.
type Client struct {
	baseURL         string
	token           string
	httpClient      *http.Client
	limiter         *rate.Limiter
	pollInterval    time.Duration
	maxPollInterval time.Duration
	waitTimeout     time.Duration
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	host := strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	if host == "" {
		return nil, errors.New("databricks host is required")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if _, err := url.ParseRequestURI(host); err != nil {
		return nil, fmt.Errorf("invalid databricks host: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("databricks token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		baseURL:         host,
		token:           token,
		httpClient:      &http.Client{Timeout: timeout},
		limiter:         newLimiter(cfg.RequestsPerSec, cfg.Burst),
		pollInterval:    positiveOr(cfg.PollInterval, defaultPollInterval),
		maxPollInterval: positiveOr(cfg.MaxPollInterval, defaultMaxPollInterval),
		waitTimeout:     positiveOr(cfg.WaitTimeout, defaultWaitTimeout),
	}
	if c.maxPollInterval < c.pollInterval {
		c.maxPollInterval = c.pollInterval
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// StartConversationAndWait opens a conversation in the given space and blocks
// until Genie finishes answering, the wait timeout elapses, or ctx is done.
func (c *Client) StartConversationAndWait(ctx context.Context, spaceID string, content string) (*Message, error) {
	spaceID = strings.TrimSpace(spaceID)
	if spaceID == "" {
		return nil, errors.New("genie space id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	var started startConversationResponse
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/start-conversation", url.PathEscape(spaceID))
	if err := c.do(ctx, http.MethodPost, path, startConversationRequest{Content: content}, &started); err != nil {
		return nil, err
	}
	if started.ConversationID == "" || started.MessageID == "" {
		return nil, errors.New("genie start-conversation returned no conversation or message id")
	}

	zerolog.Ctx(ctx).Debug().
		Str("space_id", spaceID).
		Str("conversation_id", started.ConversationID).
		Str("message_id", started.MessageID).
		Msg("genie conversation started")

	if started.Message != nil && started.Message.Status.IsTerminal() {
		return finish(started.Message)
	}
	return c.waitForMessage(ctx, spaceID, started.ConversationID, started.MessageID)
}

// GetMessage fetches the current state of one message.
func (c *Client) GetMessage(ctx context.Context, spaceID, conversationID, messageID string) (*Message, error) {
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/messages/%s",
		url.PathEscape(spaceID), url.PathEscape(conversationID), url.PathEscape(messageID))

	var msg Message
	if err := c.do(ctx, http.MethodGet, path, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) waitForMessage(ctx context.Context, spaceID, conversationID, messageID string) (*Message, error) {
	interval := c.pollInterval
	for {
		msg, err := c.GetMessage(ctx, spaceID, conversationID, messageID)
		if err != nil {
			return nil, err
		}
		if msg.Status.IsTerminal() {
			return finish(msg)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: message=%s last_status=%s", ErrWaitTimeout, messageID, msg.Status)
			}
			return nil, ctx.Err()
		case <-timer.C:
		}

		interval += c.pollInterval
		if interval > c.maxPollInterval {
			interval = c.maxPollInterval
		}
	}
}

func finish(msg *Message) (*Message, error) {
	if msg.Status == StatusCompleted {
		return msg, nil
	}
	reason := ""
	if msg.Error != nil {
		reason = msg.Error.Error
	}
	return nil, &MessageError{MessageID: msg.ID, Status: msg.Status, Reason: reason}
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("genie rate limiter: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal genie request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build genie request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute genie request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read genie response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode genie response: %w", err)
	}
	return nil
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func positiveOr(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
