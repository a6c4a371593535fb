// Package roomstore implements core.RoomStore against the remote room owner.
package roomstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// HTTPStatusError captures non-2xx responses of the room store.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("roomstore: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// HTTPStore talks to a REST room store exposing GET/PATCH /room/:id.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*HTTPStore)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *HTTPStore) {
		s.httpClient = httpClient
	}
}

func NewHTTPStore(baseURL string, opts ...Option) (*HTTPStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("roomstore: base url must not be empty")
	}
	s := &HTTPStore{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *HTTPStore) roomURL(id domain.RoomID) string {
	return s.baseURL + "/room/" + url.PathEscape(string(id))
}

func (s *HTTPStore) FetchRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	u := s.roomURL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("roomstore: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	raw, err := s.do(req, u)
	if err != nil {
		var se *HTTPStatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("roomstore: fetch %s: %w", id, core.ErrRoomNotFound)
		}
		return nil, fmt.Errorf("roomstore: fetch %s: %w", id, err)
	}

	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("roomstore: decode room %s: %w", id, err)
	}
	if room.ID == "" {
		room.ID = id
	}
	return &room, nil
}

func (s *HTTPStore) PatchRoom(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) error {
	if patch.Empty() {
		return nil
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("roomstore: marshal patch: %w", err)
	}
	u := s.roomURL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("roomstore: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := s.do(req, u); err != nil {
		var se *HTTPStatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return fmt.Errorf("roomstore: patch %s: %w", id, core.ErrRoomNotFound)
		}
		return fmt.Errorf("roomstore: patch %s: %w", id, err)
	}
	return nil
}

func (s *HTTPStore) do(req *http.Request, u string) ([]byte, error) {
	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        u,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
