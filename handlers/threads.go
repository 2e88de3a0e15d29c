package handlers

import (
	"net/http"
	"strconv"

	"github.com/kova98/threadfeed.api/data/repos"
	"github.com/kova98/threadfeed.api/feed"
	"github.com/kova98/threadfeed.api/models"
)

type ThreadHandler struct {
	threads       *feed.ThreadList
	repo          *repos.ThreadRepo // nil when archiving is disabled
	authenticated func() bool
}

func NewThreadHandler(threads *feed.ThreadList, repo *repos.ThreadRepo, authenticated func() bool) *ThreadHandler {
	return &ThreadHandler{
		threads:       threads,
		repo:          repo,
		authenticated: authenticated,
	}
}

// GetThreads pages over the in-memory thread list in row order.
func (h *ThreadHandler) GetThreads(w http.ResponseWriter, r *http.Request) Result {
	page, perPage := pagination(r)
	offset := (page - 1) * perPage

	rows := h.threads.Snapshot(offset, perPage)

	res := models.GetThreadsResponse{
		Threads: make([]models.ThreadResponse, 0, len(rows)),
		Total:   h.threads.RowCount(),
		Page:    page,
		PerPage: perPage,
	}

	for i, thread := range rows {
		res.Threads = append(res.Threads, models.ThreadResponse{
			Row:       offset + i,
			Kind:      thread.Kind,
			Title:     thread.Link.Title,
			Author:    thread.Link.Author,
			Subreddit: thread.Link.Subreddit,
			Permalink: thread.Link.Permalink,
			Score:     thread.Link.Score,
		})
	}

	return Ok(res)
}

// GetArchive pages over the persisted archive, newest first.
func (h *ThreadHandler) GetArchive(w http.ResponseWriter, r *http.Request) Result {
	if h.repo == nil {
		return ServiceUnavailable("Archive is not enabled")
	}

	page, perPage := pagination(r)
	offset := (page - 1) * perPage

	threads, total, err := h.repo.GetThreads(perPage, offset)
	if err != nil {
		return InternalError(err, "get archived threads")
	}

	res := models.GetArchiveResponse{
		Threads: make([]models.ArchivedThreadResponse, 0, len(threads)),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}

	for _, t := range threads {
		res.Threads = append(res.Threads, models.ArchivedThreadResponse{
			ID:         t.ID,
			ThingID:    t.ThingID,
			Title:      t.Title,
			Author:     t.Author,
			Subreddit:  t.Subreddit,
			Permalink:  t.Permalink,
			Language:   t.Language,
			Score:      t.Score,
			InsertedAt: t.InsertedAt,
		})
	}

	return Ok(res)
}

// Refresh triggers one listing fetch. The fetch completes asynchronously;
// its outcome shows up in /threads and the metrics.
func (h *ThreadHandler) Refresh(w http.ResponseWriter, r *http.Request) Result {
	if !h.authenticated() {
		return ServiceUnavailable("Reddit session is not authenticated yet")
	}
	h.threads.RequestUpdate()
	return Accepted()
}

func (h *ThreadHandler) GetStatus(w http.ResponseWriter, r *http.Request) Result {
	return Ok(models.StatusResponse{
		Authenticated: h.authenticated(),
		Rows:          h.threads.RowCount(),
		Columns:       h.threads.ColumnCount(),
	})
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	return page, 20
}
