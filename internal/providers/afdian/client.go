package afdian

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
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

// ErrMissingToken indicates that the client was configured without credentials.
var ErrMissingToken = errors.New("afdian: user id and token are required")

const statusOK = 200

// Options configures an AFDian open API client for one author account.
type Options struct {
	UserID         string
	Token          string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	Now            func() time.Time
}

// Client performs signed calls to the AFDian open API on behalf of one author.
type Client struct {
	userID     string
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	now        func() time.Time
}

// PlatformError is returned when the API answers with a non-success code,
// which usually means the order does not belong to this author.
type PlatformError struct {
	Code    int
	Message string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("afdian: platform error %d: %s", e.Code, e.Message)
}

// Is lets callers match platform rejections against domain.ErrAccountMismatch.
func (e *PlatformError) Is(target error) bool {
	return target == domain.ErrAccountMismatch
}

type signedRequest struct {
	UserID string `json:"user_id"`
	Params string `json:"params"`
	TS     int64  `json:"ts"`
	Sign   string `json:"sign"`
}

type queryOrderParams struct {
	OutTradeNo string `json:"out_trade_no"`
}

type queryOrderResponse struct {
	EC   int    `json:"ec"`
	EM   string `json:"em"`
	Data struct {
		List []struct {
			OutTradeNo  string `json:"out_trade_no"`
			UserID      string `json:"user_id"`
			TotalAmount string `json:"total_amount"`
			Status      int    `json:"status"`
		} `json:"list"`
		TotalCount int `json:"total_count"`
		TotalPage  int `json:"total_page"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	userID := strings.TrimSpace(opts.UserID)
	token := strings.TrimSpace(opts.Token)
	if userID == "" || token == "" {
		return nil, ErrMissingToken
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://afdian.com"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		userID:     userID,
		token:      token,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		now:        now,
	}, nil
}

// AccountID returns the author account this client signs for.
func (c *Client) AccountID() string {
	return c.userID
}

// QueryOrderByTradeNo looks up orders with the given out_trade_no. An empty
// slice with a nil error is an authoritative "no such order".
func (c *Client) QueryOrderByTradeNo(ctx context.Context, tradeNo string) ([]domain.DonorOrder, error) {
	tradeNo = strings.TrimSpace(tradeNo)
	if tradeNo == "" {
		return nil, errors.New("afdian: trade number is required")
	}
	var decoded queryOrderResponse
	if err := c.call(ctx, "/api/open/query-order", queryOrderParams{OutTradeNo: tradeNo}, &decoded); err != nil {
		return nil, err
	}
	if decoded.EC != statusOK {
		return nil, &PlatformError{Code: decoded.EC, Message: decoded.EM}
	}
	orders := make([]domain.DonorOrder, 0, len(decoded.Data.List))
	for _, item := range decoded.Data.List {
		orders = append(orders, domain.DonorOrder{
			TradeNo: item.OutTradeNo,
			DonorID: item.UserID,
			Amount:  item.TotalAmount,
			Status:  item.Status,
		})
	}
	c.logger.Debug().
		Str("account_id", c.userID).
		Int("count", len(orders)).
		Msg("afdian: query order")
	return orders, nil
}

func (c *Client) call(ctx context.Context, path string, params any, out any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("afdian: encode params: %w", err)
	}
	ts := c.now().Unix()
	payload := signedRequest{
		UserID: c.userID,
		Params: string(paramsJSON),
		TS:     ts,
		Sign:   sign(c.token, c.userID, string(paramsJSON), ts),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("afdian: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("afdian: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("afdian: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("afdian: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("afdian: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("afdian: decode response: %w", err)
	}
	return nil
}

// sign computes md5(token + "params" + params + "ts" + ts + "user_id" + userID).
func sign(token, userID, params string, ts int64) string {
	sum := md5.Sum([]byte(token + "params" + params + "ts" + strconv.FormatInt(ts, 10) + "user_id" + userID))
	return hex.EncodeToString(sum[:])
}

var _ domain.OrderQuerier = (*Client)(nil)
