package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
)

// ErrMissingBaseURL indicates that the client has nowhere to send actions.
var ErrMissingBaseURL = errors.New("onebot: base url is required")

// Options configures a OneBot v11 HTTP action client.
type Options struct {
	BaseURL        string
	AccessToken    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client invokes OneBot actions over HTTP.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *infra.Logger
}

// APIError is returned when the implementation answers with a failed status.
type APIError struct {
	Action  string
	RetCode int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("onebot: %s failed (retcode %d): %s", e.Action, e.RetCode, e.Message)
}

type actionResponse struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Wording string          `json:"wording"`
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: strings.TrimSpace(opts.AccessToken),
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// SendGroupMessage posts plain text to a group.
func (c *Client) SendGroupMessage(ctx context.Context, group int64, text string) error {
	return c.call(ctx, "send_group_msg", map[string]any{
		"group_id":    group,
		"message":     text,
		"auto_escape": true,
	}, nil)
}

// ApproveJoin accepts a pending join request.
func (c *Client) ApproveJoin(ctx context.Context, req domain.JoinRequest) error {
	return c.call(ctx, "set_group_add_request", map[string]any{
		"flag":     req.Flag,
		"sub_type": req.SubType,
		"approve":  true,
	}, nil)
}

// RejectJoin declines a pending join request with a reason shown to the applicant.
func (c *Client) RejectJoin(ctx context.Context, req domain.JoinRequest, reason string) error {
	return c.call(ctx, "set_group_add_request", map[string]any{
		"flag":     req.Flag,
		"sub_type": req.SubType,
		"approve":  false,
		"reason":   reason,
	}, nil)
}

// Level returns the account level of a user. Implementations differ on the
// field name, so both level and qqLevel are accepted.
func (c *Client) Level(ctx context.Context, member int64) (int, error) {
	var info struct {
		Level   json.Number `json:"level"`
		QQLevel json.Number `json:"qqLevel"`
	}
	if err := c.call(ctx, "get_stranger_info", map[string]any{
		"user_id":  member,
		"no_cache": true,
	}, &info); err != nil {
		return 0, err
	}
	raw := info.Level
	if raw == "" {
		raw = info.QQLevel
	}
	if raw == "" {
		return 0, fmt.Errorf("onebot: get_stranger_info: level missing for %d", member)
	}
	level, err := strconv.Atoi(raw.String())
	if err != nil {
		return 0, fmt.Errorf("onebot: get_stranger_info: parse level: %w", err)
	}
	return level, nil
}

func (c *Client) call(ctx context.Context, action string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("onebot: encode %s: %w", action, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+action, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("onebot: build %s: %w", action, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("onebot: %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("onebot: read %s: %w", action, err)
	}
	c.logger.Debug().
		Str("action", action).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("onebot: action")
	if resp.StatusCode >= 300 {
		return fmt.Errorf("onebot: %s status %d: %s", action, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded actionResponse
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("onebot: decode %s: %w", action, err)
	}
	if decoded.RetCode != 0 || (decoded.Status != "" && decoded.Status != "ok" && decoded.Status != "async") {
		msg := decoded.Wording
		if msg == "" {
			msg = decoded.Message
		}
		return &APIError{Action: action, RetCode: decoded.RetCode, Message: msg}
	}
	if out != nil && len(decoded.Data) > 0 && string(decoded.Data) != "null" {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return fmt.Errorf("onebot: decode %s data: %w", action, err)
		}
	}
	return nil
}

var (
	_ domain.Messenger            = (*Client)(nil)
	_ domain.JoinRequestResponder = (*Client)(nil)
	_ domain.MemberInfo           = (*Client)(nil)
)
