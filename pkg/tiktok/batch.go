package tiktok

import (
	"context"

	"github.com/tikstock/tiktok-go/pkg/pagination"
)

// Collection names used in logs and metrics.
const (
	CollectionTrending = "trending"
	CollectionUploaded = "uploaded"
	CollectionLiked    = "liked"
	CollectionAudioTop = "audio_top"
	CollectionTagTop   = "tag_top"
)

// fetchItemList fetches one page of a standard listing (items, maxCursor).
func (c *Client) fetchItemList(ctx context.Context, rawURL string) (pagination.Batch[VideoInfo], error) {
	var raw rawItemList
	if err := c.fetcher.FetchJSON(ctx, rawURL, &raw); err != nil {
		return pagination.Batch[VideoInfo]{}, err
	}

	if raw.Items == nil {
		return pagination.Batch[VideoInfo]{NextCursor: pagination.CursorExhausted}, nil
	}

	videos := make([]VideoInfo, 0, len(*raw.Items))
	for i := range *raw.Items {
		videos = append(videos, videoInfoFromItem(&(*raw.Items)[i]))
	}
	return pagination.Batch[VideoInfo]{Items: videos, NextCursor: string(raw.MaxCursor)}, nil
}

// fetchTopList fetches one page of a top-videos listing (body.itemListData,
// body.maxCursor).
func (c *Client) fetchTopList(ctx context.Context, rawURL string) (pagination.Batch[VideoInfo], error) {
	var raw rawTopList
	if err := c.fetcher.FetchJSON(ctx, rawURL, &raw); err != nil {
		return pagination.Batch[VideoInfo]{}, err
	}

	if raw.Body == nil || raw.Body.ItemListData == nil {
		return pagination.Batch[VideoInfo]{NextCursor: pagination.CursorExhausted}, nil
	}

	items := *raw.Body.ItemListData
	videos := make([]VideoInfo, 0, len(items))
	for i := range items {
		videos = append(videos, videoInfoFromTopItem(&items[i]))
	}
	return pagination.Batch[VideoInfo]{Items: videos, NextCursor: string(raw.Body.MaxCursor)}, nil
}

func (c *Client) trendingBatch(ctx context.Context, count int, cursor string) (pagination.Batch[VideoInfo], error) {
	return c.fetchItemList(ctx, c.urls.trending(count, cursor))
}

func (c *Client) uploadedBatch(user User) pagination.FetchFunc[VideoInfo] {
	return func(ctx context.Context, count int, cursor string) (pagination.Batch[VideoInfo], error) {
		u, err := c.urls.uploaded(user, count, cursor)
		if err != nil {
			return pagination.Batch[VideoInfo]{}, err
		}
		return c.fetchItemList(ctx, u)
	}
}

func (c *Client) likedBatch(user User) pagination.FetchFunc[VideoInfo] {
	return func(ctx context.Context, count int, cursor string) (pagination.Batch[VideoInfo], error) {
		u, err := c.urls.liked(user, count, cursor)
		if err != nil {
			return pagination.Batch[VideoInfo]{}, err
		}
		return c.fetchItemList(ctx, u)
	}
}

func (c *Client) audioTopBatch(audio Audio) pagination.FetchFunc[VideoInfo] {
	return func(ctx context.Context, count int, cursor string) (pagination.Batch[VideoInfo], error) {
		u, err := c.urls.audioTop(audio, count, cursor)
		if err != nil {
			return pagination.Batch[VideoInfo]{}, err
		}
		return c.fetchTopList(ctx, u)
	}
}

func (c *Client) tagTopBatch(tag Tag) pagination.FetchFunc[VideoInfo] {
	return func(ctx context.Context, count int, cursor string) (pagination.Batch[VideoInfo], error) {
		u, err := c.urls.tagTop(tag, count, cursor)
		if err != nil {
			return pagination.Batch[VideoInfo]{}, err
		}
		return c.fetchTopList(ctx, u)
	}
}
