// Package pagination turns a page-fetching function into a lazy, pull-based
// sequence of result batches driven by an opaque cursor token.
//
// TikTok listing endpoints return one page plus the cursor for the next page.
// A Cursor calls its FetchFunc exactly once per Next, with the cursor returned
// by the previous page, and stops after the first empty page.
//
// Example usage:
//
//	cur := pagination.New("trending", fetchTrending, 30, pagination.StartCursor)
//	for {
//		videos, err := cur.Next(ctx)
//		if errors.Is(err, pagination.Done) {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		process(videos)
//	}
//
// Or with range-over-func:
//
//	for videos, err := range cur.All(ctx) {
//		if err != nil {
//			return err
//		}
//		process(videos)
//	}
//
// The cursor:
//   - Never prefetches; the next request happens only when the caller asks
//   - Allows at most one request in flight
//   - Never skips or repeats a cursor value
//   - Stays exhausted after Done, and stays failed after a fetch error
package pagination
