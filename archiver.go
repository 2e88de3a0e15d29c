package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pemistahl/lingua-go"
	"github.com/pkg/errors"

	"github.com/kova98/threadfeed.api/data"
	"github.com/kova98/threadfeed.api/data/repos"
	"github.com/kova98/threadfeed.api/feed"
	"github.com/kova98/threadfeed.api/models"
)

// Archiver persists every inserted batch to Postgres, tagging titles with
// a detected language. The in-memory list keeps duplicates on re-fetch;
// the archive folds them by content hash.
type Archiver struct {
	threads  *feed.ThreadList
	repo     *repos.ThreadRepo
	detector lingua.LanguageDetector
}

func NewArchiver(threads *feed.ThreadList, repo *repos.ThreadRepo) *Archiver {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.German,
			lingua.Spanish,
			lingua.French,
			lingua.Portuguese,
			lingua.Russian,
			lingua.Japanese,
		).
		Build()

	a := &Archiver{
		threads:  threads,
		repo:     repo,
		detector: detector,
	}

	threads.OnRowsInserted(func(first, last int) {
		// Snapshot on the dispatch loop, persist off it.
		rows := threads.Snapshot(first, last-first+1)
		go a.persist(rows)
	})

	return a
}

func (a *Archiver) persist(rows []models.Thread) {
	entities := make([]data.Thread, 0, len(rows))
	for _, thread := range rows {
		entities = append(entities, data.Thread{
			ThingID:    thread.Link.ID,
			Title:      thread.Link.Title,
			Author:     thread.Link.Author,
			Subreddit:  thread.Link.Subreddit,
			Permalink:  thread.Link.Permalink,
			Language:   a.detectLanguage(thread.Link.Title),
			Score:      thread.Link.Score,
			CreatedUTC: thread.Link.CreatedUTC,
			RawData:    thread.Raw,
			Hash:       threadHash(thread),
		})
	}

	if err := a.repo.CreateThreads(entities); err != nil {
		slog.Error("archive threads:", "error", errors.Wrap(err, "persist batch"))
		return
	}

	slog.Debug("archived threads", "count", len(entities))
}

func (a *Archiver) detectLanguage(title string) string {
	if title == "" {
		return ""
	}
	language, ok := a.detector.DetectLanguageOf(title)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}

func threadHash(thread models.Thread) string {
	input := fmt.Sprintf("%s:%s:%s:%s", thread.Kind, thread.Link.ID, thread.Link.Permalink, thread.Link.Title)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
