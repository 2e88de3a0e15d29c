package feed

import (
	"sync"

	"github.com/kova98/threadfeed.api/metrics"
	"github.com/kova98/threadfeed.api/models"
)

// Role selects what a cell query returns. Only RoleDisplay yields a
// value; any other role is answered with an absent value.
type Role int

const (
	RoleDisplay Role = iota
)

// Reply is the completion handle a session hands back for an async GET.
// Err and Body are valid once Done is closed.
type Reply interface {
	Done() <-chan struct{}
	Err() error
	Body() []byte
}

// Session is the authenticated-request capability the thread list
// consumes. OnAuthenticated callbacks fire after every successful grant.
type Session interface {
	OnAuthenticated(fn func())
	Get(url string) Reply
}

// ThreadList maintains the ordered, append-only collection of threads
// fetched from the listing endpoint and notifies listeners of inserted
// row ranges. Rows are never reordered or removed, and re-fetching the
// same listing appends again: the list does not de-duplicate.
//
// Listeners run on the dispatch loop, after the whole batch they describe
// has been applied. Register them before the loop starts.
type ThreadList struct {
	loop       *Loop
	session    Session
	listingURL string

	mu      sync.RWMutex
	records []models.Thread

	inserted   []func(first, last int)
	errored    []func(msg string)
	subscribed []func(url string)
}

// NewThreadList builds a thread list over session. A nil session yields
// an inert instance whose RequestUpdate is a no-op. With a session, every
// authenticated event triggers one RequestUpdate; a session that grants
// more than once therefore appends more than one batch.
func NewThreadList(loop *Loop, session Session, listingURL string) *ThreadList {
	t := &ThreadList{
		loop:       loop,
		session:    session,
		listingURL: listingURL,
	}
	if session != nil {
		session.OnAuthenticated(func() {
			t.RequestUpdate()
		})
	}
	return t
}

func (t *ThreadList) OnRowsInserted(fn func(first, last int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inserted = append(t.inserted, fn)
}

func (t *ThreadList) OnError(fn func(msg string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errored = append(t.errored, fn)
}

// RequestUpdate issues one async GET to the listing endpoint and returns
// immediately. Without a session it does nothing. The completion is
// handled on the loop: a transport or envelope error leaves the list
// untouched and notifies error listeners, an empty children array is a
// silent no-op, and a non-empty batch is appended atomically followed by
// exactly one RowsInserted notification covering the new range.
func (t *ThreadList) RequestUpdate() {
	if t.session == nil {
		return
	}
	metrics.ListingFetches.Inc()
	reply := t.session.Get(t.listingURL)
	go func() {
		<-reply.Done()
		t.loop.Post(func() { t.finishUpdate(reply) })
	}()
}

func (t *ThreadList) finishUpdate(reply Reply) {
	if err := reply.Err(); err != nil {
		t.notifyError(err.Error())
		return
	}

	listing, err := models.ParseListing(reply.Body())
	if err != nil {
		t.notifyError(err.Error())
		return
	}

	if len(listing.Children) == 0 {
		return
	}

	t.mu.Lock()
	first := len(t.records)
	t.records = append(t.records, listing.Children...)
	last := len(t.records) - 1
	listeners := make([]func(first, last int), len(t.inserted))
	copy(listeners, t.inserted)
	t.mu.Unlock()

	metrics.RowsInserted.Add(float64(last - first + 1))
	for _, fn := range listeners {
		fn(first, last)
	}
}

func (t *ThreadList) notifyError(msg string) {
	metrics.FetchErrors.Inc()
	t.mu.RLock()
	listeners := make([]func(msg string), len(t.errored))
	copy(listeners, t.errored)
	t.mu.RUnlock()

	for _, fn := range listeners {
		fn(msg)
	}
}

// RowCount returns the current number of threads.
func (t *ThreadList) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// ColumnCount is 1 once the list holds any thread, 0 before that. The
// single column's existence is what signals "has data" to a tabular view.
func (t *ThreadList) ColumnCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.records) == 0 {
		return 0
	}
	return 1
}

// CellValue answers a cell query. For RoleDisplay and a row inside
// [0, RowCount) it returns the thread's title and true; any other role or
// row returns an absent value instead of failing.
func (t *ThreadList) CellValue(row int, role Role) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if role != RoleDisplay || row < 0 || row >= len(t.records) {
		return "", false
	}
	return t.records[row].Link.Title, true
}

// Snapshot copies out up to limit threads starting at offset.
func (t *ThreadList) Snapshot(offset, limit int) []models.Thread {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if offset < 0 || offset >= len(t.records) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(t.records) {
		end = len(t.records)
	}
	out := make([]models.Thread, end-offset)
	copy(out, t.records[offset:end])
	return out
}
