package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/testutil"
)

func newTestClient(t *testing.T, mock *testutil.MockPresenceServer, userID string) *Client {
	t.Helper()
	return NewClient(mock.SocketURL(), mock.RESTBaseURL(), userID, zap.NewNop())
}

// waitSubscribed blocks until the mock has recorded the subscribe frame, so a
// following Push is guaranteed to reach the client.
func waitSubscribed(t *testing.T, mock *testutil.MockPresenceServer) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(mock.Subscribes()) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFetchOnce(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	defer mock.Close()

	mock.RESTPayload = map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"discord_status": "idle",
			"activities": []interface{}{
				map[string]interface{}{"type": 0, "name": "Hades"},
			},
		},
	}

	client := newTestClient(t, mock, "123456789")

	snap, err := client.FetchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, "🎮 Playing Hades", snap.ActivityLine)
	assert.Equal(t, 1, mock.RESTCalls())

	// The fetched result becomes the current snapshot.
	assert.Equal(t, snap, client.Snapshot())
}

func TestFetchOnceFailureKeepsSnapshot(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	defer mock.Close()

	mock.RESTPayload = map[string]interface{}{"success": false}

	client := newTestClient(t, mock, "123456789")
	before := client.Snapshot()

	_, err := client.FetchOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, before, client.Snapshot())
}

func TestStartSubscribesAndReceives(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(t, mock, "555000111")
	require.NoError(t, client.Start(ctx))
	defer client.Close()

	assert.Equal(t, StateSubscribed, client.State())

	// The subscribe frame names the watched user.
	require.Eventually(t, func() bool {
		subs := mock.Subscribes()
		return len(subs) == 1 && subs[0] == "555000111"
	}, 2*time.Second, 10*time.Millisecond)

	mock.Push("INIT_STATE", map[string]interface{}{
		"discord_status": "dnd",
		"activities": []interface{}{
			map[string]interface{}{"type": 4, "name": "Custom Status", "state": "do not disturb"},
		},
	})

	require.Eventually(t, func() bool {
		return client.State() == StateReceiving
	}, 2*time.Second, 10*time.Millisecond)

	snap := client.Snapshot()
	assert.Equal(t, StatusDnd, snap.Status)
	assert.Equal(t, "#f04747", snap.StatusColor)
	assert.Equal(t, "do not disturb", snap.ActivityLine)
}

func TestPresenceUpdateReplacesSnapshot(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(t, mock, "555000111")
	require.NoError(t, client.Start(ctx))
	defer client.Close()
	waitSubscribed(t, mock)

	mock.Push("INIT_STATE", map[string]interface{}{"discord_status": "online"})
	require.Eventually(t, func() bool {
		return client.Snapshot().Status == StatusOnline
	}, 2*time.Second, 10*time.Millisecond)

	mock.Push("PRESENCE_UPDATE", map[string]interface{}{"discord_status": "idle"})
	require.Eventually(t, func() bool {
		return client.Snapshot().Status == StatusIdle
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnknownEventIgnored(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(t, mock, "555000111")
	require.NoError(t, client.Start(ctx))
	defer client.Close()
	waitSubscribed(t, mock)

	mock.Push("INIT_STATE", map[string]interface{}{"discord_status": "online"})
	require.Eventually(t, func() bool {
		return client.Snapshot().Status == StatusOnline
	}, 2*time.Second, 10*time.Millisecond)

	mock.Push("SOMETHING_ELSE", map[string]interface{}{"discord_status": "dnd"})

	// Give the unknown frame time to arrive; the snapshot must not change.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StatusOnline, client.Snapshot().Status)
}

func TestDroppedSocketKeepsLastSnapshot(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newTestClient(t, mock, "555000111")
	require.NoError(t, client.Start(ctx))
	defer client.Close()
	waitSubscribed(t, mock)

	mock.Push("INIT_STATE", map[string]interface{}{"discord_status": "idle"})
	require.Eventually(t, func() bool {
		return client.State() == StateReceiving
	}, 2*time.Second, 10*time.Millisecond)

	mock.CloseConnections()

	require.Eventually(t, func() bool {
		return client.State() == StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)

	// No reconnect attempt; the last rendered presence survives the drop.
	assert.Equal(t, StatusIdle, client.Snapshot().Status)
}

func TestContextCancelClosesClient(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())

	client := newTestClient(t, mock, "555000111")
	require.NoError(t, client.Start(ctx))

	cancel()

	require.Eventually(t, func() bool {
		return client.State() == StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartDialFailure(t *testing.T) {
	mock := testutil.NewMockPresenceServer()
	restBase := mock.RESTBaseURL()
	mock.Close()

	client := NewClient("ws://127.0.0.1:1/socket", restBase, "555000111", zap.NewNop())

	err := client.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, client.State())
}
