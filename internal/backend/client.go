package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/frontdesk/internal/protocol"
)

// Fallback is the part of the REST API the realtime engine relies on when
// the socket cannot deliver. *Client implements it.
type Fallback interface {
	SendMessage(ctx context.Context, waID protocol.WaID, message string) error
	CreateReservation(ctx context.Context, req ReservationRequest) (protocol.Reservation, error)
	ModifyReservation(ctx context.Context, req ReservationRequest) (protocol.Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
	ReinstateReservation(ctx context.Context, id int64) error
}

var _ Fallback = (*Client)(nil)

// Client talks to the reservation server's HTTP API.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

const (
	defaultServer    = "127.0.0.1:8000"
	defaultUserAgent = "frontdesk/0.1"
	requestTimeout   = 10 * time.Second
	defaultRetries   = 2
)

// NewClient builds a Client for server, a host[:port] or URL. secure selects
// https when server carries no scheme.
func NewClient(server string, secure bool) (*Client, error) {
	base, err := parseBaseURL(server, secure)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent:  defaultUserAgent,
		maxRetries: defaultRetries,
		baseDelay:  200 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}, nil
}

// BaseURL returns the resolved server address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SendMessage posts a chat message.
func (c *Client) SendMessage(ctx context.Context, waID protocol.WaID, message string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if waID == "" {
		return fmt.Errorf("wa_id required")
	}
	return c.post(ctx, "/api/message/send", sendMessageRequest{WaID: waID, Message: message}, nil)
}

// CreateReservation books a slot and returns the stored reservation.
func (c *Client) CreateReservation(ctx context.Context, req ReservationRequest) (protocol.Reservation, error) {
	if c == nil {
		return protocol.Reservation{}, fmt.Errorf("client is nil")
	}
	var out protocol.Reservation
	if err := c.post(ctx, "/api/reservations/create", req, &out); err != nil {
		return protocol.Reservation{}, err
	}
	return out, nil
}

// ModifyReservation changes the fields set in req on reservation req.ID.
func (c *Client) ModifyReservation(ctx context.Context, req ReservationRequest) (protocol.Reservation, error) {
	if c == nil {
		return protocol.Reservation{}, fmt.Errorf("client is nil")
	}
	if req.ID <= 0 {
		return protocol.Reservation{}, fmt.Errorf("reservation id required")
	}
	var out protocol.Reservation
	if err := c.post(ctx, "/api/reservations/modify", req, &out); err != nil {
		return protocol.Reservation{}, err
	}
	return out, nil
}

// CancelReservation marks a reservation cancelled.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return fmt.Errorf("reservation id required")
	}
	return c.post(ctx, "/api/reservations/cancel", idRequest{ID: id}, nil)
}

// ReinstateReservation reverses a cancellation.
func (c *Client) ReinstateReservation(ctx context.Context, id int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return fmt.Errorf("reservation id required")
	}
	return c.post(ctx, "/api/reservations/reinstate", idRequest{ID: id}, nil)
}

func (c *Client) post(ctx context.Context, path string, body any, dest *protocol.Reservation) error {
	var env envelope
	if err := c.doJSON(ctx, http.MethodPost, path, body, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{Path: path, Message: env.Message}
	}
	if dest == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	var wrapped struct {
		Reservation *protocol.Reservation `json:"reservation"`
	}
	if err := json.Unmarshal(env.Data, &wrapped); err == nil && wrapped.Reservation != nil {
		*dest = *wrapped.Reservation
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

// doJSON sends body as JSON and decodes the response into out. 429 and 5xx
// answers and transport errors are retried with exponential backoff.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("execute request: %w", err)
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("read response: %w", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(payload) == 0 {
				return nil
			}
			if err := json.Unmarshal(payload, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.maxRetries {
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		var env envelope
		_ = json.Unmarshal(payload, &env)
		return &APIError{Status: resp.StatusCode, Path: path, Message: env.Message}
	}
}

func (c *Client) retryDelay(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
		if d := time.Duration(secs) * time.Second; d < c.maxDelay {
			return d
		}
		return c.maxDelay
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return delay
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseBaseURL(server string, secure bool) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	bare := !strings.Contains(trimmed, "://")
	if bare {
		scheme := "http://"
		if secure {
			scheme = "https://"
		}
		trimmed = scheme + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	if bare && u.Port() == "" && u.Hostname() != "" {
		u.Host = net.JoinHostPort(u.Hostname(), "8000")
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
