package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("", false)
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "http://127.0.0.1:8000" {
		t.Fatalf("default url = %q", u.String())
	}

	u, err = parseBaseURL("example.com", true)
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "https://example.com:8000" {
		t.Fatalf("secure bare host = %q", u.String())
	}

	u, err = parseBaseURL("wss://example.com/ws?tab=1#frag", false)
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != "https://example.com" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, false)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.baseDelay = time.Millisecond
	c.maxDelay = 5 * time.Millisecond
	return c
}

func TestClient_EndpointsAndBodies(t *testing.T) {
	t.Parallel()

	bodies := map[string]map[string]any{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies[r.URL.Path] = body

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/reservations/create":
			_, _ = w.Write([]byte(`{"success":true,"data":{"reservation":{"id":7,"wa_id":"123","date":"2024-01-01","time_slot":"10:00"}}}`))
		case "/api/reservations/modify":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":7,"wa_id":"123","date":"2024-01-02","time_slot":"11:00"}}`))
		default:
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	if err := c.SendMessage(ctx, "123", "hello"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if got := bodies["/api/message/send"]; got["wa_id"] != "123" || got["message"] != "hello" {
		t.Fatalf("send body = %#v", got)
	}

	res, err := c.CreateReservation(ctx, ReservationRequest{WaID: "123", Date: "2024-01-01", TimeSlot: "10:00"})
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if res.ID != 7 || res.TimeSlot != "10:00" {
		t.Fatalf("created = %#v", res)
	}
	if _, ok := bodies["/api/reservations/create"]["id"]; ok {
		t.Fatalf("create body should omit zero id: %#v", bodies["/api/reservations/create"])
	}

	res, err = c.ModifyReservation(ctx, ReservationRequest{ID: 7, Date: "2024-01-02", TimeSlot: "11:00"})
	if err != nil {
		t.Fatalf("ModifyReservation returned error: %v", err)
	}
	if res.Date != "2024-01-02" {
		t.Fatalf("modified = %#v", res)
	}

	if err := c.CancelReservation(ctx, 7); err != nil {
		t.Fatalf("CancelReservation returned error: %v", err)
	}
	if err := c.ReinstateReservation(ctx, 7); err != nil {
		t.Fatalf("ReinstateReservation returned error: %v", err)
	}
	if got := bodies["/api/reservations/cancel"]["id"]; got != float64(7) {
		t.Fatalf("cancel id = %#v", got)
	}
	if _, ok := bodies["/api/reservations/reinstate"]; !ok {
		t.Fatalf("reinstate not called")
	}
}

func TestClient_SuccessFalseIsAPIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"slot taken"}`))
	})

	_, err := c.CreateReservation(context.Background(), ReservationRequest{WaID: "1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Message != "slot taken" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	if err := c.SendMessage(context.Background(), "1", "x"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"bad wa_id"}`))
	})

	err := c.SendMessage(context.Background(), "1", "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "bad wa_id" {
		t.Fatalf("err = %#v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestClient_ValidatesArguments(t *testing.T) {
	c, err := NewClient("", false)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if err := c.SendMessage(ctx, "", "x"); err == nil {
		t.Fatalf("expected error for empty wa_id")
	}
	if err := c.CancelReservation(ctx, 0); err == nil {
		t.Fatalf("expected error for zero id")
	}
	if _, err := c.ModifyReservation(ctx, ReservationRequest{}); err == nil {
		t.Fatalf("expected error for modify without id")
	}

	var nilClient *Client
	if err := nilClient.SendMessage(ctx, "1", "x"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestRetryDelay_CapsAndHonoursRetryAfter(t *testing.T) {
	c := &Client{baseDelay: 100 * time.Millisecond, maxDelay: time.Second}
	tests := []struct {
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{1, "", 100 * time.Millisecond},
		{2, "", 200 * time.Millisecond},
		{4, "", 800 * time.Millisecond},
		{5, "", time.Second},
		{1, "3", time.Second},
		{1, "nonsense", 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := c.retryDelay(tt.attempt, tt.retryAfter); got != tt.want {
			t.Fatalf("retryDelay(%d, %q) = %v, want %v", tt.attempt, tt.retryAfter, got, tt.want)
		}
	}
}
