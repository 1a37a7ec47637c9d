package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// State is the presence connection state. Disconnected is reachable from any
// state; there is no retry, so once dropped the snapshot stays as-is.
type State string

const (
	StateConnecting   State = "connecting"
	StateSubscribed   State = "subscribed"
	StateReceiving    State = "receiving"
	StateDisconnected State = "disconnected"
)

// Subscribe opcode for the presence socket protocol.
const opSubscribe = 2

type subscribeFrame struct {
	Op int           `json:"op"`
	D  subscribeData `json:"d"`
}

type subscribeData struct {
	SubscribeToID string `json:"subscribe_to_id"`
}

type eventFrame struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d"`
}

// Inbound event types carrying presence payloads.
const (
	eventInitState      = "INIT_STATE"
	eventPresenceUpdate = "PRESENCE_UPDATE"
)

type restEnvelope struct {
	Success bool `json:"success"`
	Data    Data `json:"data"`
}

// Client subscribes to the presence service for one user id.
type Client struct {
	socketURL   string
	restBaseURL string
	userID      string
	logger      *zap.Logger
	httpClient  *http.Client

	mu       sync.RWMutex
	state    State
	snapshot Snapshot

	conn      *websocket.Conn
	connMu    sync.Mutex
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewClient creates a presence client for the given user id.
func NewClient(socketURL, restBaseURL, userID string, logger *zap.Logger) *Client {
	return &Client{
		socketURL:   socketURL,
		restBaseURL: restBaseURL,
		userID:      userID,
		logger:      logger,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		state:       StateConnecting,
		snapshot:    SnapshotOf(Data{}),
		closeChan:   make(chan struct{}),
	}
}

// FetchOnce performs the one-shot REST fallback fetch and, on success,
// applies the result to the snapshot.
func (c *Client) FetchOnce(ctx context.Context) (Snapshot, error) {
	url := fmt.Sprintf("%s/v1/users/%s", c.restBaseURL, c.userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return c.Snapshot(), fmt.Errorf("failed to create presence request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.Snapshot(), fmt.Errorf("presence fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.Snapshot(), fmt.Errorf("presence service returned status %d", resp.StatusCode)
	}

	var envelope restEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return c.Snapshot(), fmt.Errorf("failed to decode presence response: %w", err)
	}
	if !envelope.Success {
		return c.Snapshot(), fmt.Errorf("presence service reported failure")
	}

	c.apply(envelope.Data, false)
	return c.Snapshot(), nil
}

// Start connects: one fallback REST fetch rendered immediately (errors
// degrade silently), then the socket subscription. The receive loop runs
// until the socket drops, Close is called, or ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	if _, err := c.FetchOnce(ctx); err != nil {
		c.logger.Debug("presence fallback fetch failed", zap.Error(err))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.socketURL, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("failed to dial presence socket: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if err := conn.WriteJSON(subscribeFrame{
		Op: opSubscribe,
		D:  subscribeData{SubscribeToID: c.userID},
	}); err != nil {
		c.Close()
		return fmt.Errorf("failed to send subscribe frame: %w", err)
	}
	c.setState(StateSubscribed)

	go c.receiveLoop(ctx)

	return nil
}

// receiveLoop processes inbound presence frames until the connection drops.
func (c *Client) receiveLoop(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.closeChan:
		}
	}()

	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			// Dropped socket: no retry, presence stays at the last
			// rendered snapshot.
			c.logger.Debug("presence socket closed", zap.Error(err))
			c.Close()
			return
		}

		var frame eventFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.logger.Warn("failed to unmarshal presence frame", zap.Error(err))
			continue
		}

		if frame.T != eventInitState && frame.T != eventPresenceUpdate {
			continue
		}

		var data Data
		if err := json.Unmarshal(frame.D, &data); err != nil {
			c.logger.Warn("failed to unmarshal presence payload",
				zap.String("event", frame.T),
				zap.Error(err),
			)
			continue
		}

		c.apply(data, true)
	}
}

// apply updates the snapshot; fromSocket advances the state machine to
// Receiving.
func (c *Client) apply(data Data, fromSocket bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = SnapshotOf(data)
	if fromSocket && c.state != StateDisconnected {
		c.state = StateReceiving
	}
}

// Snapshot returns the last rendered presence.
func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshot
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Close terminates the socket. No unsubscribe frame is sent; teardown is the
// unsubscribe.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)

		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		c.setState(StateDisconnected)
	})
}
