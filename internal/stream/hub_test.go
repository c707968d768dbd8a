package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws/events", hub.ServeWS)
	server := httptest.NewServer(r)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	all, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer all.Close()
	filtered, _, err := websocket.DefaultDialer.Dial(wsURL+"?queue=other", nil)
	require.NoError(t, err)
	defer filtered.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	t.Run("Broadcast", func(t *testing.T) {
		require.NoError(t, hub.Publish("nft_market_events", map[string]string{"type": "listed"}))

		require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg map[string]string
		require.NoError(t, all.ReadJSON(&msg))
		assert.Equal(t, "listed", msg["type"])
	})

	t.Run("Queue Filter", func(t *testing.T) {
		require.NoError(t, hub.Publish("other", map[string]string{"type": "sold"}))

		require.NoError(t, filtered.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg map[string]string
		require.NoError(t, filtered.ReadJSON(&msg))
		assert.Equal(t, "sold", msg["type"], "the filtered client skips other queues")
	})

	t.Run("Unmarshalable Message", func(t *testing.T) {
		assert.Error(t, hub.Publish("nft_market_events", make(chan int)))
	})

	t.Run("Shutdown Disconnects Clients", func(t *testing.T) {
		cancel()
		require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	})
}
