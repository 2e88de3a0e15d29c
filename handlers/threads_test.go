package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kova98/threadfeed.api/feed"
	"github.com/kova98/threadfeed.api/models"
)

type stubReply struct {
	done chan struct{}
	body []byte
}

func (r *stubReply) Done() <-chan struct{} { return r.done }
func (r *stubReply) Err() error { return nil }
func (r *stubReply) Body() []byte { return r.body }

type stubSession struct {
	mu      sync.Mutex
	replies []*stubReply
	gets    int
}

func (s *stubSession) OnAuthenticated(fn func()) {}

func (s *stubSession) Get(url string) feed.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	reply := &stubReply{done: make(chan struct{})}
	s.replies = append(s.replies, reply)
	return reply
}

func (s *stubSession) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// populatedList builds a running thread list holding the given titles.
func populatedList(t *testing.T, titles ...string) (*feed.ThreadList, *stubSession) {
	t.Helper()

	session := &stubSession{}
	loop := feed.NewLoop()
	threads := feed.NewThreadList(loop, session, "https://oauth.reddit.com/hot")

	inserted := make(chan struct{}, 1)
	threads.OnRowsInserted(func(first, last int) { inserted <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)

	if len(titles) == 0 {
		return threads, session
	}

	children := make([]map[string]any, 0, len(titles))
	for _, title := range titles {
		children = append(children, map[string]any{
			"kind": "t3",
			"data": map[string]any{"title": title, "author": "alice", "subreddit": "golang"},
		})
	}
	body, err := json.Marshal(map[string]any{
		"kind": "Listing",
		"data": map[string]any{"children": children},
	})
	require.NoError(t, err)

	threads.RequestUpdate()
	session.mu.Lock()
	reply := session.replies[0]
	session.mu.Unlock()
	reply.body = body
	close(reply.done)

	select {
	case <-inserted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out populating thread list")
	}

	return threads, session
}

func always(v bool) func() bool {
	return func() bool { return v }
}

func TestGetThreadsEmpty(t *testing.T) {
	threads, _ := populatedList(t)
	h := NewThreadHandler(threads, nil, always(false))

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	res := h.GetThreads(httptest.NewRecorder(), req)

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.(models.GetThreadsResponse)
	assert.Equal(t, 0, body.Total)
	assert.Empty(t, body.Threads)
	assert.Equal(t, 1, body.Page)
}

func TestGetThreadsPaging(t *testing.T) {
	titles := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		titles = append(titles, fmt.Sprintf("thread %d", i))
	}
	threads, _ := populatedList(t, titles...)
	h := NewThreadHandler(threads, nil, always(true))

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	res := h.GetThreads(httptest.NewRecorder(), req)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.(models.GetThreadsResponse)
	assert.Equal(t, 25, body.Total)
	require.Len(t, body.Threads, 20)
	assert.Equal(t, 0, body.Threads[0].Row)
	assert.Equal(t, "thread 0", body.Threads[0].Title)
	assert.Equal(t, "alice", body.Threads[0].Author)

	req = httptest.NewRequest(http.MethodGet, "/threads?page=2", nil)
	res = h.GetThreads(httptest.NewRecorder(), req)
	body = res.Body.(models.GetThreadsResponse)
	require.Len(t, body.Threads, 5)
	assert.Equal(t, 20, body.Threads[0].Row)
	assert.Equal(t, "thread 20", body.Threads[0].Title)
	assert.Equal(t, 2, body.Page)
}

func TestGetArchiveDisabled(t *testing.T) {
	threads, _ := populatedList(t)
	h := NewThreadHandler(threads, nil, always(true))

	req := httptest.NewRequest(http.MethodGet, "/threads/archive", nil)
	res := h.GetArchive(httptest.NewRecorder(), req)

	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestRefreshRequiresSession(t *testing.T) {
	threads, session := populatedList(t)
	h := NewThreadHandler(threads, nil, always(false))

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	res := h.Refresh(httptest.NewRecorder(), req)

	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, 0, session.getCount())
}

func TestRefreshTriggersFetch(t *testing.T) {
	threads, session := populatedList(t)
	h := NewThreadHandler(threads, nil, always(true))

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	res := h.Refresh(httptest.NewRecorder(), req)

	assert.Equal(t, http.StatusAccepted, res.Code)
	assert.Equal(t, 1, session.getCount())
}

func TestGetStatus(t *testing.T) {
	threads, _ := populatedList(t, "only one")
	h := NewThreadHandler(threads, nil, always(true))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	res := h.GetStatus(httptest.NewRecorder(), req)

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.(models.StatusResponse)
	assert.True(t, body.Authenticated)
	assert.Equal(t, 1, body.Rows)
	assert.Equal(t, 1, body.Columns)
}
