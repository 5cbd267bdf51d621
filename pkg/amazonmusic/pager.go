package amazonmusic

import (
	"context"
	"fmt"
	"iter"
)

// PageFunc fetches the page that starts at cursor. An empty cursor asks for
// the first page. It returns the page's items and the cursor of the next
// page, or "" when there is none.
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// Pager iterates over a server-chunked result set. It consumes a local
// batch and fetches the next page only when the batch is exhausted and a
// continuation cursor is present.
//
// Items come out in exactly the order the pages return them. A Pager is
// not restartable: the cursor is consumed as iteration advances. Any fetch
// error stops iteration and is reported by Err.
//
//	pager := client.AlbumsInLibrary()
//	for pager.Next(ctx) {
//	    fmt.Println(pager.Item().Name)
//	}
//	if err := pager.Err(); err != nil {
//	    log.Fatal(err)
//	}
type Pager[T any] struct {
	fetch  PageFunc[T]
	buf    []T
	cursor string
	primed bool // whether the first page has been loaded
	item   T
	err    error
}

// NewPager returns a Pager whose first page is fetched on the first call
// to Next.
func NewPager[T any](fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// newSeededPager returns a Pager that starts with an already fetched batch.
func newSeededPager[T any](initial []T, cursor string, fetch PageFunc[T]) *Pager[T] {
	buf := make([]T, len(initial))
	copy(buf, initial)
	return &Pager[T]{fetch: fetch, buf: buf, cursor: cursor, primed: true}
}

// Next advances to the next item, fetching a page if needed. It returns
// false when the result set is exhausted or a fetch failed.
func (p *Pager[T]) Next(ctx context.Context) bool {
	if p.err != nil {
		return false
	}

	for len(p.buf) == 0 {
		if p.primed && p.cursor == "" {
			return false
		}

		items, next, err := p.fetch(ctx, p.cursor)
		if err != nil {
			p.err = err
			return false
		}
		if p.primed && len(items) == 0 && next == p.cursor {
			p.err = fmt.Errorf("amazonmusic: page cursor %q did not advance", next)
			return false
		}

		p.primed = true
		p.cursor = next
		p.buf = append(p.buf, items...)
	}

	var zero T
	p.item = p.buf[0]
	p.buf[0] = zero
	p.buf = p.buf[1:]
	return true
}

// Item returns the current item.
func (p *Pager[T]) Item() T {
	return p.item
}

// Err returns the error that stopped iteration, if any.
func (p *Pager[T]) Err() error {
	return p.err
}

// All returns an iterator over the remaining items. A fetch error is
// yielded once as the final pair.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.Next(ctx) {
			if !yield(p.Item(), nil) {
				return
			}
		}
		if err := p.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains the pager into a slice, stopping after limit items when
// limit is positive.
func (p *Pager[T]) Collect(ctx context.Context, limit int) ([]T, error) {
	var out []T
	for (limit <= 0 || len(out) < limit) && p.Next(ctx) {
		out = append(out, p.Item())
	}
	return out, p.Err()
}
