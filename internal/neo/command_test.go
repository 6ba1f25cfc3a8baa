package neo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loggedInClient returns a client authenticated against srv with controller
// ctrl-a registered.
func loggedInClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	client := newTestClient(srvURL)
	require.NoError(t, client.Login(context.Background()))
	return client
}

func commandStub(t *testing.T, calls *atomic.Int32, onPayload func(CommandPayload)) http.HandlerFunc {
	access := signedToken(t, jwtlib.MapClaims{
		"usr":   "user-1",
		"ctrv2": []string{"ctrl-a,full-identity"},
	})
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			writeTokens(t, w, access, "refresh-1")
		case "/esp32/multi-transmit":
			calls.Add(1)
			var payload CommandPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			if onPayload != nil {
				onPayload(payload)
			}
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}
}

func TestSendCommand(t *testing.T) {
	var calls atomic.Int32
	var got CommandPayload
	srv := httptest.NewServer(commandStub(t, &calls, func(p CommandPayload) { got = p }))
	defer srv.Close()

	client := loggedInClient(t, srv.URL)
	ok := client.SendCommand(context.Background(), "ctrl-a", "109.055-03", CmdOpen)

	assert.True(t, ok)
	require.Equal(t, int32(1), calls.Load())

	entries, found := got["ctrl-a,full-identity"]
	require.True(t, found, "payload must be keyed by the full identity string")
	require.Len(t, entries, 1)
	assert.Equal(t, "109.055", entries[0].Token)
	assert.Equal(t, "03", entries[0].Channel)
	assert.Equal(t, CmdOpen, entries[0].Command)
	assert.Equal(t, "no", entries[0].Motor)
	assert.True(t, isSevenDigits(entries[0].Hash), "hash %q", entries[0].Hash)
}

func TestSendCommandUnknownControllerSkipsNetwork(t *testing.T) {
	var transportCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transportCalls.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ok := client.SendCommand(context.Background(), "unregistered", "109.055-03", CmdOpen)

	assert.False(t, ok)
	assert.Equal(t, int32(0), transportCalls.Load(), "no network call for an unresolvable controller")
}

func TestSendCommandMalformedBlindCode(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(commandStub(t, &calls, nil))
	defer srv.Close()

	client := loggedInClient(t, srv.URL)
	ok := client.SendCommand(context.Background(), "ctrl-a", "badcode", CmdOpen)

	assert.False(t, ok)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSendCommandReportsFailure(t *testing.T) {
	access := signedToken(t, jwtlib.MapClaims{
		"usr":   "user-1",
		"ctrv2": []string{"ctrl-a,full-identity"},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			writeTokens(t, w, access, "refresh-1")
			return
		}
		http.Error(w, "transmit failed", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := loggedInClient(t, srv.URL)
	assert.False(t, client.SendCommand(context.Background(), "ctrl-a", "109.055-03", CmdClose))
}

func TestSendRoomCommand(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(commandStub(t, &calls, nil))
	defer srv.Close()

	client := loggedInClient(t, srv.URL)
	group := RoomGroup{
		ControllerID: "ctrl-a",
		BlindCodes:   []string{"109.055-01", "109.055-02", "109.055-03"},
	}
	ok := client.SendRoomCommand(context.Background(), group, CmdClose)

	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load(), "a batch is N independent sends")
}

func TestSendRoomCommandPartialFailure(t *testing.T) {
	access := signedToken(t, jwtlib.MapClaims{
		"usr":   "user-1",
		"ctrv2": []string{"ctrl-a,full-identity"},
	})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			writeTokens(t, w, access, "refresh-1")
			return
		}
		// Fail the second send only; the rest must still go out.
		if calls.Add(1) == 2 {
			http.Error(w, "radio glitch", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := loggedInClient(t, srv.URL)
	group := RoomGroup{
		ControllerID: "ctrl-a",
		BlindCodes:   []string{"109.055-01", "109.055-02", "109.055-03"},
	}
	ok := client.SendRoomCommand(context.Background(), group, CmdOpen)

	assert.False(t, ok)
	assert.Equal(t, int32(3), calls.Load(), "one failure does not stop the batch")
}

func TestSetScheduleState(t *testing.T) {
	access := signedToken(t, jwtlib.MapClaims{"usr": "user-1"})
	var got map[string]bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			writeTokens(t, w, access, "refresh-1")
		case "/location/user-1/schedules/sched-9":
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := loggedInClient(t, srv.URL)
	ok := client.SetScheduleState(context.Background(), "sched-9", true)

	assert.True(t, ok)
	assert.Equal(t, map[string]bool{"enabled": true}, got)
}

func TestSetScheduleStateReportsFailure(t *testing.T) {
	access := signedToken(t, jwtlib.MapClaims{"usr": "user-1"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			writeTokens(t, w, access, "refresh-1")
			return
		}
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := loggedInClient(t, srv.URL)
	assert.False(t, client.SetScheduleState(context.Background(), "sched-9", false))
}
