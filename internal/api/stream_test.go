package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/churnguard/internal/models"
)

func streamTestHub(t *testing.T) (*StreamHub, *websocket.Conn) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	hub := NewStreamHub(log)
	t.Cleanup(hub.Close)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Registration happens in the handler goroutine after the handshake
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	return hub, conn
}

// TestStreamHubConcurrentBroadcasts tests that simultaneous broadcasters,
// such as the optimize handler and a scheduled run finishing together, can
// share one subscriber connection.
func TestStreamHubConcurrentBroadcasts(t *testing.T) {
	hub, conn := streamTestHub(t)

	const broadcasters = 16
	run := &models.PolicyRun{ID: uuid.New(), OptimalThreshold: 0.162}

	var wg sync.WaitGroup
	wg.Add(broadcasters)
	for i := 0; i < broadcasters; i++ {
		go func() {
			defer wg.Done()
			hub.BroadcastRun(run)
		}()
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < broadcasters; i++ {
		var event StreamEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, "policy_run", event.Type)
		require.NotNil(t, event.Run)
		assert.Equal(t, run.ID, event.Run.ID)
	}

	assert.Equal(t, 1, hub.ClientCount())
}

// TestStreamHubRemovesClosedClients tests that a departed subscriber is
// unregistered and later broadcasts do not block.
func TestStreamHubRemovesClosedClients(t *testing.T) {
	hub, conn := streamTestHub(t)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)

	hub.BroadcastRun(&models.PolicyRun{ID: uuid.New()})
	assert.Equal(t, 0, hub.ClientCount())
}
