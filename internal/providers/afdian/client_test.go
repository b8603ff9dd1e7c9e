package afdian

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"afdaudit/internal/domain"
)

func TestSignMatchesPlatformRecipe(t *testing.T) {
	got := sign("token", "uid", `{"out_trade_no":"1"}`, 1700000000)
	if len(got) != 32 {
		t.Fatalf("sign length = %d, want 32", len(got))
	}
	if got != sign("token", "uid", `{"out_trade_no":"1"}`, 1700000000) {
		t.Fatal("sign is not deterministic")
	}
	if got == sign("token", "uid", `{"out_trade_no":"2"}`, 1700000000) {
		t.Fatal("sign ignores params")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Options{UserID: "uid"}); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
	if _, err := NewClient(Options{Token: "tok"}); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
}

func TestQueryOrderPayloadAndDecode(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/api/open/query-order", map[string]any{
		"ec": 200,
		"em": "ok",
		"data": map[string]any{
			"list": []map[string]any{{
				"out_trade_no": "202501010000",
				"user_id":      "donor-1",
				"total_amount": "5.00",
				"status":       2,
			}},
		},
	})
	now := time.Unix(1700000000, 0)
	client := newTestClient(t, transport, now)

	orders, err := client.QueryOrderByTradeNo(context.Background(), " 202501010000 ")
	if err != nil {
		t.Fatalf("QueryOrderByTradeNo error: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	want := domain.DonorOrder{TradeNo: "202501010000", DonorID: "donor-1", Amount: "5.00", Status: 2}
	if orders[0] != want {
		t.Fatalf("order = %+v, want %+v", orders[0], want)
	}

	var payload signedRequest
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.UserID != "author-1" {
		t.Fatalf("user_id = %q, want author-1", payload.UserID)
	}
	if payload.Params != `{"out_trade_no":"202501010000"}` {
		t.Fatalf("params = %q", payload.Params)
	}
	if payload.TS != now.Unix() {
		t.Fatalf("ts = %d, want %d", payload.TS, now.Unix())
	}
	if payload.Sign != sign("secret", "author-1", payload.Params, payload.TS) {
		t.Fatalf("sign = %q does not match payload", payload.Sign)
	}
}

func TestQueryOrderEmptyListIsAuthoritative(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/api/open/query-order", map[string]any{
		"ec":   200,
		"data": map[string]any{"list": []any{}},
	})
	client := newTestClient(t, transport, time.Now())

	orders, err := client.QueryOrderByTradeNo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("QueryOrderByTradeNo error: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("orders = %d, want 0", len(orders))
	}
}

func TestQueryOrderPlatformErrorMatchesAccountMismatch(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/api/open/query-order", map[string]any{"ec": 400005, "em": "sign validation failed"})
	client := newTestClient(t, transport, time.Now())

	_, err := client.QueryOrderByTradeNo(context.Background(), "x")
	if !errors.Is(err, domain.ErrAccountMismatch) {
		t.Fatalf("err = %v, want ErrAccountMismatch", err)
	}
	var perr *PlatformError
	if !errors.As(err, &perr) || perr.Code != 400005 {
		t.Fatalf("err = %#v, want PlatformError code 400005", err)
	}
}

func TestQueryOrderHTTPFailureIsTransient(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.responses["/api/open/query-order"] = responseStub{status: http.StatusBadGateway, body: []byte("upstream down")}
	client := newTestClient(t, transport, time.Now())

	_, err := client.QueryOrderByTradeNo(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrAccountMismatch) {
		t.Fatalf("err = %v, must not match ErrAccountMismatch", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v, want status code in message", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := newTestClient(t, transport, time.Now())
	reg := NewRegistry(client, nil)

	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	s, ok := reg.Session("author-1")
	if !ok || s.AccountID() != "author-1" {
		t.Fatalf("Session = %v, %v", s, ok)
	}
	if _, ok := reg.Session("author-2"); ok {
		t.Fatal("unexpected session for author-2")
	}
}

func newTestClient(t *testing.T, transport http.RoundTripper, now time.Time) *Client {
	t.Helper()
	client, err := NewClient(Options{
		UserID:     "author-1",
		Token:      "secret",
		BaseURL:    "https://afdian.test/",
		HTTPClient: &http.Client{Transport: transport},
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client
}

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	if stub, ok := c.responses[req.URL.Path]; ok {
		return stub.toResponse(), nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		header[k] = append([]string(nil), values...)
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(string(s.body))),
	}
}
