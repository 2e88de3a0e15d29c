package models

import "time"

type ThreadResponse struct {
	Row       int    `json:"row"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Subreddit string `json:"subreddit"`
	Permalink string `json:"permalink"`
	Score     int    `json:"score"`
}

type GetThreadsResponse struct {
	Threads []ThreadResponse `json:"threads"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"perPage"`
}

type ArchivedThreadResponse struct {
	ID         int64     `json:"id"`
	ThingID    string    `json:"thingId"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Subreddit  string    `json:"subreddit"`
	Permalink  string    `json:"permalink"`
	Language   string    `json:"language"`
	Score      int       `json:"score"`
	InsertedAt time.Time `json:"insertedAt"`
}

type GetArchiveResponse struct {
	Threads []ArchivedThreadResponse `json:"threads"`
	Total   int                      `json:"total"`
	Page    int                      `json:"page"`
	PerPage int                      `json:"perPage"`
}

type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
	Rows          int  `json:"rows"`
	Columns       int  `json:"columns"`
}
