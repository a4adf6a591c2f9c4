package pagination

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for cursor progress.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktok_pages_fetched_total",
		Help: "Total non-empty pages fetched by collection",
	}, []string{"collection"})

	cursorExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktok_cursor_exhausted_total",
		Help: "Total cursors that reached the end of their collection",
	}, []string{"collection"})
)

const (
	// StartCursor is the cursor of the first page.
	StartCursor = "0"

	// CursorExhausted is reported as the next cursor when the origin payload
	// carries no items at all.
	CursorExhausted = "-1"

	// DefaultPageSize is the page size used when none is given. The origin caps
	// pages near 100 items.
	DefaultPageSize = 30
)

// Done is returned by Next once the collection is exhausted.
var Done = errors.New("no more pages")

// Batch is one page of records plus the cursor for the following page.
// NextCursor is meaningless once Items is empty.
type Batch[T any] struct {
	Items      []T
	NextCursor string
}

// FetchFunc fetches the page of count records starting at cursor.
type FetchFunc[T any] func(ctx context.Context, count int, cursor string) (Batch[T], error)

// Cursor is a lazy sequence of pages. It is safe for concurrent use. Next calls
// are serialized so at most one fetch is in flight; Cursor and Exhausted do not
// wait for an in-flight fetch and report the state before it.
type Cursor[T any] struct {
	fetchMu sync.Mutex // held for the whole of Next

	mu         sync.Mutex // guards cursor, done and err
	fetch      FetchFunc[T]
	pageSize   int
	cursor     string
	collection string
	done       bool
	err        error
}

// New creates a cursor over fetch. A non-positive pageSize uses DefaultPageSize
// and an empty startCursor uses StartCursor. collection labels logs and metrics.
func New[T any](collection string, fetch FetchFunc[T], pageSize int, startCursor string) *Cursor[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if startCursor == "" {
		startCursor = StartCursor
	}
	return &Cursor[T]{
		fetch:      fetch,
		pageSize:   pageSize,
		cursor:     startCursor,
		collection: collection,
	}
}

// Next fetches and returns the next non-empty page. It returns Done once a page
// comes back empty, and keeps returning Done afterwards. A fetch error ends the
// sequence; later calls return the same error without fetching.
func (c *Cursor[T]) Next(ctx context.Context) ([]T, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	c.mu.Lock()
	cursor, done, prevErr := c.cursor, c.done, c.err
	c.mu.Unlock()

	if prevErr != nil {
		return nil, prevErr
	}
	if done {
		return nil, Done
	}

	batch, err := c.fetch(ctx, c.pageSize, cursor)
	if err != nil {
		log.Debug().
			Err(err).
			Str("collection", c.collection).
			Str("cursor", cursor).
			Msg("Page fetch failed, cursor closed")
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		return nil, err
	}

	if len(batch.Items) == 0 {
		log.Debug().
			Str("collection", c.collection).
			Str("cursor", cursor).
			Msg("Empty page, cursor exhausted")
		cursorExhaustedTotal.WithLabelValues(c.collection).Inc()
		c.mu.Lock()
		c.done = true
		c.mu.Unlock()
		return nil, Done
	}

	log.Debug().
		Str("collection", c.collection).
		Str("cursor", cursor).
		Str("next_cursor", batch.NextCursor).
		Int("items", len(batch.Items)).
		Msg("Page fetched")
	pagesFetchedTotal.WithLabelValues(c.collection).Inc()

	c.mu.Lock()
	c.cursor = batch.NextCursor
	c.mu.Unlock()
	return batch.Items, nil
}

// All returns the remaining pages as a range-over-func sequence. A failed
// fetch is yielded once as the final element. Breaking out of the loop leaves
// the cursor where it stopped, so a later Next or All resumes from there.
func (c *Cursor[T]) All(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for {
			items, err := c.Next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items, nil) {
				return
			}
		}
	}
}

// Cursor returns the cursor the next fetch will use.
func (c *Cursor[T]) Cursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// PageSize returns the number of records requested per page.
func (c *Cursor[T]) PageSize() int {
	return c.pageSize
}

// Exhausted reports whether Next has returned Done.
func (c *Cursor[T]) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
