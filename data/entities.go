package data

import (
	"encoding/json"
	"time"
)

type Thread struct {
	ID         int64           `db:"id"`
	ThingID    string          `db:"thing_id"`
	Title      string          `db:"title"`
	Author     string          `db:"author"`
	Subreddit  string          `db:"subreddit"`
	Permalink  string          `db:"permalink"`
	Language   string          `db:"language"`
	Score      int             `db:"score"`
	CreatedUTC float64         `db:"created_utc"`
	RawData    json.RawMessage `db:"raw"`
	Hash       string          `db:"hash"`
	InsertedAt time.Time       `db:"inserted_at"`
}
