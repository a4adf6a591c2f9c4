// Package tiktok is the public API of the library: typed lookups for users,
// videos, audio tracks and tags, and lazy cursors over video collections.
package tiktok

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tikstock/tiktok-go/pkg/client"
	"github.com/tikstock/tiktok-go/pkg/logging"
	"github.com/tikstock/tiktok-go/pkg/pagination"
	"github.com/tikstock/tiktok-go/pkg/signer"
)

// Config holds the facade configuration.
type Config struct {
	// SignatureService is the URL of a remote signing service. When set, every
	// request is signed remotely; otherwise a local browser signer is started.
	SignatureService string

	// Signer overrides both signing paths when set.
	Signer signer.Signer

	// Browser configures the local browser signer.
	Browser signer.BrowserConfig

	// BaseURL is the API origin. Defaults to DefaultBaseURL.
	BaseURL string

	// UserAgent and Referer override the request header template.
	UserAgent string
	Referer   string

	// RequestTimeout bounds every origin and signing request.
	RequestTimeout time.Duration

	// Redis enables the response cache when set.
	Redis    *redis.Client
	CacheTTL time.Duration

	// MaxConcurrency bounds VideoInfos fan-out.
	MaxConcurrency int
}

// DefaultConfig returns a configuration that signs with a local browser.
func DefaultConfig() Config {
	return Config{
		Browser:        signer.DefaultBrowserConfig(),
		BaseURL:        DefaultBaseURL,
		UserAgent:      client.DefaultUserAgent,
		Referer:        client.DefaultReferer,
		RequestTimeout: 30 * time.Second,
		CacheTTL:       60 * time.Second,
		MaxConcurrency: 5,
	}
}

// Client is the TikTok API facade. It owns the signer it created and must be
// closed.
type Client struct {
	fetcher        *client.Client
	signer         *signer.Adapter
	urls           endpoints
	maxConcurrency int
	logger         zerolog.Logger

	closeOnce sync.Once
	closers   []func() error
	closeErr  error
}

// New selects and initializes the signer, then builds the facade. It fails
// fast with ErrSignatureUnavailable when no signature service is configured
// and no local browser signer can be started.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.MaxConcurrency < 0 {
		return nil, fmt.Errorf("max_concurrency must be >= 0 (got %d)", cfg.MaxConcurrency)
	}
	if cfg.RequestTimeout < 0 {
		return nil, fmt.Errorf("request_timeout must be >= 0 (got %s)", cfg.RequestTimeout)
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 5
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	c := &Client{
		urls:           newEndpoints(cfg.BaseURL),
		maxConcurrency: cfg.MaxConcurrency,
		logger:         logging.NewLogger("tiktok"),
	}

	s, err := c.newSigner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.signer = signer.NewAdapter(s, logging.NewLogger("signer"))

	fetcher, err := client.New(client.Config{
		Signer:    c.signer,
		UserAgent: cfg.UserAgent,
		Referer:   cfg.Referer,
		Timeout:   cfg.RequestTimeout,
		Redis:     cfg.Redis,
		CacheTTL:  cfg.CacheTTL,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create content fetcher: %w", err)
	}
	c.fetcher = fetcher
	c.closers = append(c.closers, fetcher.Close)

	c.logger.Info().
		Str("mode", c.signer.Mode()).
		Bool("cache", cfg.Redis != nil).
		Msg("TikTok client ready")

	return c, nil
}

// newSigner picks exactly one signing path.
func (c *Client) newSigner(ctx context.Context, cfg Config) (signer.Signer, error) {
	switch {
	case cfg.Signer != nil:
		return cfg.Signer, nil

	case cfg.SignatureService != "":
		remote, err := signer.NewRemoteSigner(cfg.SignatureService, &http.Client{Timeout: cfg.RequestTimeout})
		if err != nil {
			return nil, fmt.Errorf("signature service: %w", err)
		}
		return remote, nil

	default:
		browser := signer.NewBrowserSigner(cfg.Browser, logging.NewLogger("browser-signer"))
		if err := browser.Init(ctx); err != nil {
			browser.Close()
			return nil, fmt.Errorf("no signature service configured and the local signer failed to start: %w", err)
		}
		c.closers = append(c.closers, browser.Close)
		return browser, nil
	}
}

// Close releases the signer and idle connections. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		for i := len(c.closers) - 1; i >= 0; i-- {
			if err := c.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// SignerMode reports which signing path is active.
func (c *Client) SignerMode() string {
	return c.signer.Mode()
}

// statusCarrier is implemented by every raw detail payload.
type statusCarrier interface {
	status() int
}

func (s rawStatus) status() int {
	return s.StatusCode
}

// lookup fetches a detail payload and translates recognized status codes.
func (c *Client) lookup(ctx context.Context, resource, rawURL string, raw statusCarrier, codes map[int]error) error {
	if err := c.fetcher.FetchJSON(ctx, rawURL, raw); err != nil {
		return err
	}
	if err := statusError(resource, raw.status(), codes); err != nil {
		c.logger.Debug().
			Str("resource", resource).
			Int("status_code", raw.status()).
			Msg("Lookup rejected by origin")
		return err
	}
	return nil
}

func missingPayload(resource, field string, status int) error {
	return fmt.Errorf("%w: %s payload has no %s (status %d)", client.ErrMalformedResponse, resource, field, status)
}

// TrendingVideos returns a cursor over the trending feed.
func (c *Client) TrendingVideos(opts SearchOptions) *pagination.Cursor[VideoInfo] {
	return pagination.New(CollectionTrending, c.trendingBatch, opts.Count, opts.StartCursor)
}

// UserByName fetches the user with the given username.
func (c *Client) UserByName(ctx context.Context, username string) (User, error) {
	info, err := c.UserInfo(ctx, Username(username))
	if err != nil {
		return User{}, err
	}
	return info.User, nil
}

// UserByID returns a User with only its ID set. No request is made.
func (c *Client) UserByID(id string) User {
	return User{ID: id}
}

// UserInfo fetches a user profile by User (its Username) or by Username.
func (c *Client) UserInfo(ctx context.Context, identifier UserIdentifier) (UserInfo, error) {
	u, err := c.urls.userDetail(identifier)
	if err != nil {
		return UserInfo{}, err
	}

	var raw rawUserDetail
	if err := c.lookup(ctx, "user", u, &raw, map[int]error{
		StatusIllegalIdentifier: ErrIllegalIdentifier,
		StatusResourceNotFound:  ErrResourceNotFound,
	}); err != nil {
		return UserInfo{}, err
	}
	if raw.UserInfo == nil {
		return UserInfo{}, missingPayload("user", "userInfo", raw.StatusCode)
	}

	return userInfoFromRaw(&raw), nil
}

// UploadedVideos returns a cursor over the videos uploaded by user.
func (c *Client) UploadedVideos(user User, opts SearchOptions) (*pagination.Cursor[VideoInfo], error) {
	if user.ID == "" {
		return nil, illegalArgument("passed User must have an id set")
	}
	return pagination.New(CollectionUploaded, c.uploadedBatch(user), opts.Count, opts.StartCursor), nil
}

// LikedVideos returns a cursor over the videos liked by user.
func (c *Client) LikedVideos(user User, opts SearchOptions) (*pagination.Cursor[VideoInfo], error) {
	if user.ID == "" {
		return nil, illegalArgument("passed User must have an id set")
	}
	return pagination.New(CollectionLiked, c.likedBatch(user), opts.Count, opts.StartCursor), nil
}

// VideoByID returns a Video with the given ID. No request is made.
func (c *Client) VideoByID(id string) Video {
	return Video{ID: id}
}

// VideoInfo fetches a video.
func (c *Client) VideoInfo(ctx context.Context, video Video) (VideoInfo, error) {
	u, err := c.urls.videoDetail(video)
	if err != nil {
		return VideoInfo{}, err
	}

	var raw rawItemDetail
	if err := c.lookup(ctx, "video", u, &raw, map[int]error{
		StatusIllegalIdentifier: ErrIllegalIdentifier,
		StatusResourceNotFound:  ErrResourceNotFound,
		StatusVideoNotFound:     ErrResourceNotFound,
	}); err != nil {
		return VideoInfo{}, err
	}
	if raw.ItemInfo == nil || raw.ItemInfo.ItemStruct == nil {
		return VideoInfo{}, missingPayload("video", "itemInfo.itemStruct", raw.StatusCode)
	}

	return videoInfoFromItem(raw.ItemInfo.ItemStruct), nil
}

// VideoInfos fetches several videos concurrently, at most MaxConcurrency at a
// time. Results are in input order. The first failure cancels the rest.
func (c *Client) VideoInfos(ctx context.Context, videos ...Video) ([]VideoInfo, error) {
	for i, v := range videos {
		if v.ID == "" {
			return nil, illegalArgument("video %d must have an id set", i)
		}
	}

	out := make([]VideoInfo, len(videos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)

	for i, v := range videos {
		g.Go(func() error {
			info, err := c.VideoInfo(gctx, v)
			if err != nil {
				return fmt.Errorf("video %s: %w", v.ID, err)
			}
			out[i] = info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// AudioByID returns an Audio with the given ID. No request is made.
func (c *Client) AudioByID(id string) Audio {
	return Audio{ID: id}
}

// AudioInfo fetches an audio track.
func (c *Client) AudioInfo(ctx context.Context, audio Audio) (AudioInfo, error) {
	u, err := c.urls.audioDetail(audio)
	if err != nil {
		return AudioInfo{}, err
	}

	var raw rawMusicDetail
	if err := c.lookup(ctx, "audio", u, &raw, map[int]error{
		StatusIllegalIdentifier: ErrIllegalIdentifier,
		StatusResourceNotFound:  ErrResourceNotFound,
	}); err != nil {
		return AudioInfo{}, err
	}
	if raw.MusicInfo == nil {
		return AudioInfo{}, missingPayload("audio", "musicInfo", raw.StatusCode)
	}

	return audioInfoFromRaw(&raw), nil
}

// AudioTopVideos returns a cursor over the top videos using audio.
func (c *Client) AudioTopVideos(audio Audio, opts SearchOptions) (*pagination.Cursor[VideoInfo], error) {
	if audio.ID == "" {
		return nil, illegalArgument("passed Audio must have an id set")
	}
	return pagination.New(CollectionAudioTop, c.audioTopBatch(audio), opts.Count, opts.StartCursor), nil
}

// Tag fetches the tag with the given name, filling in its ID.
func (c *Client) Tag(ctx context.Context, name string) (Tag, error) {
	info, err := c.TagInfo(ctx, TagName(name))
	if err != nil {
		return Tag{}, err
	}
	return info.Tag, nil
}

// TagInfo fetches a tag by Tag (its Title) or by TagName.
func (c *Client) TagInfo(ctx context.Context, identifier TagIdentifier) (TagInfo, error) {
	u, err := c.urls.tagDetail(identifier)
	if err != nil {
		return TagInfo{}, err
	}

	var raw rawChallengeDetail
	if err := c.lookup(ctx, "tag", u, &raw, map[int]error{
		StatusResourceNotFound: ErrResourceNotFound,
	}); err != nil {
		return TagInfo{}, err
	}
	if raw.ChallengeInfo == nil {
		return TagInfo{}, missingPayload("tag", "challengeInfo", raw.StatusCode)
	}

	return tagInfoFromRaw(&raw), nil
}

// TagTopVideos returns a cursor over the top videos of tag.
func (c *Client) TagTopVideos(tag Tag, opts SearchOptions) (*pagination.Cursor[VideoInfo], error) {
	if tag.ID == "" {
		return nil, illegalArgument("passed Tag must have an id set")
	}
	return pagination.New(CollectionTagTop, c.tagTopBatch(tag), opts.Count, opts.StartCursor), nil
}
