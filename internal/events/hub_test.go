package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
)

func dialHub(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Subscribers() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StreamsNotifications(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server, "")
	waitSubscribers(t, hub, 1)

	state := address.Pubkey{1}
	sent := &domain.Notification{
		ID:       "n1",
		Kind:     domain.KindPremiumReceived,
		State:    state,
		TokenURI: "ipfs://x",
		Slot:     4,
	}
	require.NoError(t, hub.Publish(context.Background(), sent))

	var got domain.Notification
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, *sent, got)
}

func TestHub_FiltersByState(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	wanted := address.Pubkey{1}
	other := address.Pubkey{2}

	conn := dialHub(t, server, "?state="+wanted.String())
	waitSubscribers(t, hub, 1)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, &domain.Notification{ID: "skip", Kind: domain.KindFundsReceived, State: other}))
	require.NoError(t, hub.Publish(ctx, &domain.Notification{ID: "keep", Kind: domain.KindFundsReceived, State: wanted}))

	var got domain.Notification
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "keep", got.ID)
}

func TestHub_InvalidFilter(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?state=not-base58!"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHub_UnsubscribeOnClose(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server, "")
	waitSubscribers(t, hub, 1)

	require.NoError(t, conn.Close())
	waitSubscribers(t, hub, 0)
}

func dialWithOrigin(server *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{origin}})
}

func TestHub_OriginCheck(t *testing.T) {
	tests := []struct {
		name    string
		opts    []HubOption
		origin  string
		allowed bool
	}{
		{"foreign origin rejected by default", nil, "https://evil.example", false},
		{"listed origin", []HubOption{WithAllowedOrigins("https://Blog.example/")}, "https://blog.example", true},
		{"unlisted origin", []HubOption{WithAllowedOrigins("https://blog.example")}, "https://evil.example", false},
		{"wildcard", []HubOption{WithAllowedOrigins("*")}, "https://anything.example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(nil, tt.opts...)
			server := httptest.NewServer(hub)
			defer server.Close()

			conn, resp, err := dialWithOrigin(server, tt.origin)
			if tt.allowed {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestHub_SameHostOriginAccepted(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	conn, _, err := dialWithOrigin(server, server.URL)
	require.NoError(t, err)
	conn.Close()
}
