package preview

import (
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestFramesTopologyThenFrame(t *testing.T) {
	s := New(4, 2)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	conn := dial(t, srv)

	var topo topologyPayload
	require.NoError(t, conn.ReadJSON(&topo))
	assert.Equal(t, "topology", topo.Type)
	assert.Equal(t, 4, topo.W)
	assert.Equal(t, 2, topo.H)

	rgb := make([]byte, 4*2*3)
	rgb[0] = 255
	s.Broadcast(rgb)

	var frame framePayload
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, uint64(1), frame.Frame)
	decoded, err := base64.StdEncoding.DecodeString(frame.RGB)
	require.NoError(t, err)
	assert.Equal(t, rgb, decoded)
}

func TestBroadcastDuringConnect(t *testing.T) {
	s := New(2, 2)
	s.throttle = 0
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	// Hammer the broadcast path while clients connect; the per-connection
	// write lock keeps the topology write and frame writes from racing.
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		rgb := make([]byte, 2*2*3)
		for {
			select {
			case <-stop:
				return
			default:
				s.Broadcast(rgb)
			}
		}
	}()

	for i := 0; i < 20; i++ {
		conn := dial(t, srv)
		var topo topologyPayload
		require.NoError(t, conn.ReadJSON(&topo))
		assert.Equal(t, "topology", topo.Type)
		conn.Close()
	}
	close(stop)
	<-done
}

func TestBroadcastWithoutClients(t *testing.T) {
	s := New(2, 2)
	// Must not block or panic.
	s.Broadcast(make([]byte, 12))
	s.Broadcast(make([]byte, 12))
}

func TestHealth(t *testing.T) {
	s := New(2, 2)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "clients")
	assert.Contains(t, body, "frames")
}
