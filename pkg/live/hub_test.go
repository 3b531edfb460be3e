package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vango-admin/pkg/toast"
)

func TestPublishReachesOnlyThatSession(t *testing.T) {
	h := NewHub()
	a1, cancelA1 := h.Subscribe("a")
	a2, cancelA2 := h.Subscribe("a")
	b, cancelB := h.Subscribe("b")
	defer cancelA1()
	defer cancelA2()
	defer cancelB()

	n := h.Publish("a", Event{Name: "ping"})
	assert.Equal(t, 2, n)
	assert.Equal(t, "ping", (<-a1).Name)
	assert.Equal(t, "ping", (<-a2).Name)

	select {
	case ev := <-b:
		t.Fatalf("session b got %v", ev)
	default:
	}

	assert.Equal(t, 3, h.Broadcast(Event{Name: "all"}))
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub(WithBuffer(1))
	ch, cancel := h.Subscribe("a")
	defer cancel()

	assert.Equal(t, 1, h.Publish("a", Event{Name: "first"}))
	assert.Equal(t, 0, h.Publish("a", Event{Name: "second"}))
	assert.Equal(t, "first", (<-ch).Name)
}

func TestUnsubscribeAndClose(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("a")
	assert.Equal(t, 1, h.Subscribers("a"))

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers("a"))
	_, ok := <-ch
	assert.False(t, ok)

	other, _ := h.Subscribe("b")
	h.Close()
	_, ok = <-other
	assert.False(t, ok)

	late, _ := h.Subscribe("c")
	_, ok = <-late
	assert.False(t, ok)
}

func TestEmitterPublishesToasts(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("a")
	defer cancel()

	toast.Success(h.Emitter("a"), "saved")
	ev := <-ch
	assert.Equal(t, toast.EventName, ev.Name)
	assert.Equal(t, toast.Toast{Level: toast.TypeSuccess, Message: "saved"}, ev.Data)
}

func TestServeWSStreamsEvents(t *testing.T) {
	h := NewHub(WithPingInterval(time.Second))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r, r.URL.Query().Get("sid"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?sid=s1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Subscribers("s1") == 1 }, time.Second, 5*time.Millisecond)
	h.Publish("s1", Event{Name: EventLogout})

	var got Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventLogout, got.Name)

	h.Close()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestServeWSRejectsCrossOrigin(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r, "s1")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSameOriginCheck(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://console.local/ws", nil)
	assert.True(t, SameOriginCheck(r))

	r.Header.Set("Origin", "http://console.local")
	assert.True(t, SameOriginCheck(r))

	r.Header.Set("Origin", "http://other.local")
	assert.False(t, SameOriginCheck(r))
}
