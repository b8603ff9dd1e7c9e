package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"afdaudit/internal/domain"
)

type recordedCall struct {
	path   string
	auth   string
	params map[string]any
}

type actionTransport struct {
	responses map[string]string
	calls     []recordedCall
}

func (a *actionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	req.Body.Close()
	var params map[string]any
	_ = json.Unmarshal(body, &params)
	a.calls = append(a.calls, recordedCall{path: req.URL.Path, auth: req.Header.Get("Authorization"), params: params})
	payload, ok := a.responses[req.URL.Path]
	if !ok {
		payload = `{"status":"ok","retcode":0,"data":null}`
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(payload)),
	}, nil
}

func newTestClient(t *testing.T, transport *actionTransport) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:     "http://127.0.0.1:5700/",
		AccessToken: "tok",
		HTTPClient:  &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrMissingBaseURL) {
		t.Fatalf("err = %v, want ErrMissingBaseURL", err)
	}
}

func TestSendGroupMessage(t *testing.T) {
	tr := &actionTransport{}
	c := newTestClient(t, tr)
	if err := c.SendGroupMessage(context.Background(), 123, "hello"); err != nil {
		t.Fatalf("SendGroupMessage error: %v", err)
	}
	if len(tr.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(tr.calls))
	}
	call := tr.calls[0]
	if call.path != "/send_group_msg" {
		t.Fatalf("path = %q, want /send_group_msg", call.path)
	}
	if call.auth != "Bearer tok" {
		t.Fatalf("auth = %q, want Bearer tok", call.auth)
	}
	if call.params["message"] != "hello" || call.params["group_id"] != float64(123) {
		t.Fatalf("params = %#v", call.params)
	}
}

func TestApproveAndRejectJoin(t *testing.T) {
	tr := &actionTransport{}
	c := newTestClient(t, tr)
	req := domain.JoinRequest{GroupID: 1, UserID: 2, SubType: "add", Flag: "flag-1"}

	if err := c.ApproveJoin(context.Background(), req); err != nil {
		t.Fatalf("ApproveJoin error: %v", err)
	}
	if err := c.RejectJoin(context.Background(), req, "no order"); err != nil {
		t.Fatalf("RejectJoin error: %v", err)
	}
	if len(tr.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(tr.calls))
	}
	approve, reject := tr.calls[0].params, tr.calls[1].params
	if approve["approve"] != true || approve["flag"] != "flag-1" || approve["sub_type"] != "add" {
		t.Fatalf("approve params = %#v", approve)
	}
	if reject["approve"] != false || reject["reason"] != "no order" {
		t.Fatalf("reject params = %#v", reject)
	}
}

func TestLevelReadsEitherField(t *testing.T) {
	tr := &actionTransport{responses: map[string]string{
		"/get_stranger_info": `{"status":"ok","retcode":0,"data":{"user_id":2,"qqLevel":37}}`,
	}}
	c := newTestClient(t, tr)
	level, err := c.Level(context.Background(), 2)
	if err != nil {
		t.Fatalf("Level error: %v", err)
	}
	if level != 37 {
		t.Fatalf("level = %d, want 37", level)
	}

	tr.responses["/get_stranger_info"] = `{"status":"ok","retcode":0,"data":{"level":12}}`
	level, err = c.Level(context.Background(), 2)
	if err != nil || level != 12 {
		t.Fatalf("Level = %d, %v; want 12", level, err)
	}
}

func TestLevelMissingIsError(t *testing.T) {
	tr := &actionTransport{responses: map[string]string{
		"/get_stranger_info": `{"status":"ok","retcode":0,"data":{"user_id":2}}`,
	}}
	if _, err := newTestClient(t, tr).Level(context.Background(), 2); err == nil {
		t.Fatal("expected error when level is absent")
	}
}

func TestFailedRetcodeIsAPIError(t *testing.T) {
	tr := &actionTransport{responses: map[string]string{
		"/send_group_msg": `{"status":"failed","retcode":1200,"wording":"bot muted"}`,
	}}
	err := newTestClient(t, tr).SendGroupMessage(context.Background(), 1, "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.RetCode != 1200 || apiErr.Message != "bot muted" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestParseEventJoinRequest(t *testing.T) {
	body := []byte(`{"time":1,"self_id":9,"post_type":"request","request_type":"group","sub_type":"add",
		"group_id":100,"user_id":200,"comment":"202501010000","flag":"f-1"}`)
	ev, err := ParseEvent(body)
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	if !ev.IsGroupJoinRequest() || ev.IsGroupMessage() {
		t.Fatalf("event classification wrong: %+v", ev)
	}
	req := ev.JoinRequest()
	if req.GroupID != 100 || req.UserID != 200 || req.Flag != "f-1" || req.SubType != "add" {
		t.Fatalf("join request = %+v", req)
	}
}

func TestParseEventRejectsGarbage(t *testing.T) {
	if _, err := ParseEvent([]byte(`{}`)); err == nil {
		t.Fatal("expected error for missing post_type")
	}
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestGroupManagerRoles(t *testing.T) {
	for role, want := range map[string]bool{RoleOwner: true, RoleAdmin: true, RoleMember: false, "": false} {
		ev := Event{Sender: Sender{Role: role}}
		if got := ev.IsGroupManager(); got != want {
			t.Fatalf("IsGroupManager(%q) = %v, want %v", role, got, want)
		}
	}
}
