package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kova98/threadfeed.api/data"
)

type ThreadRepo struct {
	db *sqlx.DB
}

func NewThreadRepo(db *sqlx.DB) *ThreadRepo {
	return &ThreadRepo{db}
}

// CreateThreads inserts a batch, silently skipping threads already
// archived. The hash column carries the content identity, so the same
// thread fetched twice lands once.
func (r *ThreadRepo) CreateThreads(threads []data.Thread) error {
	if len(threads) == 0 {
		return nil
	}

	query := `
		INSERT INTO threads (thing_id, title, author, subreddit, permalink, language, score, created_utc, raw, hash, inserted_at)
		VALUES (:thing_id, :title, :author, :subreddit, :permalink, :language, :score, :created_utc, :raw, :hash, now())
		ON CONFLICT (hash) DO NOTHING`

	_, err := r.db.NamedExec(query, threads)
	if err != nil {
		return fmt.Errorf("create threads: %w", err)
	}

	return nil
}

func (r *ThreadRepo) GetThreads(limit, offset int) ([]data.Thread, int, error) {
	var threads []data.Thread
	query := `
		SELECT id, thing_id, title, author, subreddit, permalink, language, score, created_utc, raw, hash, inserted_at
		FROM threads
		ORDER BY inserted_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	err := r.db.Select(&threads, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get threads: %w", err)
	}

	var total int
	err = r.db.Get(&total, "SELECT COUNT(*) FROM threads")
	if err != nil {
		return nil, 0, fmt.Errorf("count threads: %w", err)
	}

	return threads, total, nil
}
