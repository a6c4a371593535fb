package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

func TestNewHTTPStore_EmptyBase(t *testing.T) {
	_, err := NewHTTPStore("  ")
	require.Error(t, err)
}

func TestHTTPStore_FetchRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/room/r1", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"r1","status":"AGUARDANDO","chatHistory":[],"patient":{"name":"Ana","age":9,"restrictions":["escola"]}}`)
	}))
	defer srv.Close()

	s, err := NewHTTPStore(srv.URL + "/")
	require.NoError(t, err)

	room, err := s.FetchRoom(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, domain.RoomID("r1"), room.ID)
	require.Equal(t, domain.StatusAwaiting, room.Status)
	require.Equal(t, "Ana", room.Patient.Name)
	require.Equal(t, 9, room.Patient.Age)
	require.Equal(t, []string{"escola"}, room.Patient.Restrictions)
}

func TestHTTPStore_FetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s, err := NewHTTPStore(srv.URL)
	require.NoError(t, err)
	_, err = s.FetchRoom(context.Background(), "nope")
	require.ErrorIs(t, err, core.ErrRoomNotFound)
}

func TestHTTPStore_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	}))
	defer srv.Close()

	s, err := NewHTTPStore(srv.URL)
	require.NoError(t, err)
	_, err = s.FetchRoom(context.Background(), "r1")
	require.Error(t, err)
	require.False(t, errors.Is(err, core.ErrRoomNotFound))

	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.HTTPStatusCode())
	require.Contains(t, se.Body, "upstream down")
}

func TestHTTPStore_PatchSendsOnlySetFields(t *testing.T) {
	var got map[string]json.RawMessage
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s, err := NewHTTPStore(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	require.NoError(t, s.PatchRoom(context.Background(), "r1", domain.StatusPatch(domain.StatusChatStarted)))
	require.Equal(t, 1, calls)
	require.JSONEq(t, `"CHAT_INICIADO"`, string(got["status"]))
	_, hasHistory := got["chatHistory"]
	require.False(t, hasHistory)

	// empty patch does not hit the network
	require.NoError(t, s.PatchRoom(context.Background(), "r1", domain.RoomPatch{}))
	require.Equal(t, 1, calls)
}
