package realtime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"nhooyr.io/websocket"
)

const (
	defaultWSPort    = "8000"
	defaultReadLimit = 4 * 1024 * 1024
)

// Socket is one live connection to the server.
type Socket interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(reason string) error
}

// Dialer opens sockets.
type Dialer interface {
	Dial(ctx context.Context, url string) (Socket, error)
}

// WebSocketDialer dials with nhooyr.io/websocket.
type WebSocketDialer struct {
	HTTPHeader http.Header
	ReadLimit  int64
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, rawURL string) (Socket, error) {
	conn, _, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{ //nolint:bodyclose // websocket.Dial closes the response body internally
		HTTPHeader: d.HTTPHeader,
	})
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	limit := d.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	conn.SetReadLimit(limit)
	return &wsSocket{conn: conn}, nil
}

// wsConn is the subset of *websocket.Conn used by wsSocket.
type wsConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

type wsSocket struct {
	conn wsConn
}

func (s *wsSocket) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ != websocket.MessageText {
			continue
		}
		return data, nil
	}
}

func (s *wsSocket) Write(ctx context.Context, data []byte) error {
	return s.conn.Write(ctx, websocket.MessageText, data)
}

func (s *wsSocket) Close(reason string) error {
	return s.conn.Close(websocket.StatusNormalClosure, reason)
}

// BuildURL returns the socket endpoint for server. A bare host gets the
// default port 8000; the tab id is passed as a query parameter.
func BuildURL(server string, secure bool, tabID string) (string, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = "127.0.0.1"
	}
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	if strings.Contains(trimmed, "://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("parse server %q: %w", server, err)
		}
		switch u.Scheme {
		case "https", "wss":
			scheme = "wss"
		case "http", "ws":
			scheme = "ws"
		}
		trimmed = u.Host
	}
	host := trimmed
	if _, _, err := net.SplitHostPort(trimmed); err != nil {
		host = net.JoinHostPort(strings.Trim(trimmed, "[]"), defaultWSPort)
	}
	u := url.URL{Scheme: scheme, Host: host, Path: "/ws"}
	if tabID != "" {
		u.RawQuery = url.Values{"tab": []string{tabID}}.Encode()
	}
	return u.String(), nil
}
