package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// WebSocketPath is where the gateway accepts players.
const WebSocketPath = "/play"

type wsConn struct {
	c      *websocket.Conn
	remote string
}

func newWSConn(c *websocket.Conn, remote string, maxLine int) Conn {
	// one text message per line; allow the terminator a client may send
	c.SetReadLimit(int64(normMax(maxLine) + 2))
	return &wsConn{c: c, remote: remote}
}

// DialWebSocket connects to a gateway URL such as ws://host:port/play.
func DialWebSocket(ctx context.Context, url string, maxLine int) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newWSConn(c, url, maxLine), nil
}

func (w *wsConn) ReadLine(ctx context.Context) (string, error) {
	_, data, err := w.c.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) == websocket.StatusMessageTooBig {
			return "", ErrLineTooLong
		}
		return "", err
	}
	return trimLine(string(data)), nil
}

func (w *wsConn) WriteLine(ctx context.Context, line string) error {
	return w.c.Write(ctx, websocket.MessageText, []byte(line))
}

func (w *wsConn) Close() error { return w.c.Close(websocket.StatusNormalClosure, "bye") }

func (w *wsConn) RemoteAddr() string { return w.remote }

func (w *wsConn) Kind() string { return "ws" }

// Handler serves one connection until it ends.
type Handler func(ctx context.Context, c Conn)

// NewWebSocketHandler upgrades requests on WebSocketPath and hands each
// connection to h for the lifetime of the request.
func NewWebSocketHandler(maxLine int, h Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			CompressionMode:    websocket.CompressionNoContextTakeover,
			InsecureSkipVerify: true,
		})
		if err != nil {
			return
		}
		h(r.Context(), newWSConn(c, r.RemoteAddr, maxLine))
	})
	return mux
}
