// Package api serves the TikTok facade over a small JSON REST interface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tikstock/tiktok-go/pkg/metrics"
	"github.com/tikstock/tiktok-go/pkg/pagination"
	"github.com/tikstock/tiktok-go/pkg/tiktok"
)

// Service is the part of *tiktok.Client the handlers use.
type Service interface {
	TrendingVideos(opts tiktok.SearchOptions) *pagination.Cursor[tiktok.VideoInfo]
	UserInfo(ctx context.Context, identifier tiktok.UserIdentifier) (tiktok.UserInfo, error)
	UploadedVideos(user tiktok.User, opts tiktok.SearchOptions) (*pagination.Cursor[tiktok.VideoInfo], error)
	LikedVideos(user tiktok.User, opts tiktok.SearchOptions) (*pagination.Cursor[tiktok.VideoInfo], error)
	VideoInfo(ctx context.Context, video tiktok.Video) (tiktok.VideoInfo, error)
	AudioInfo(ctx context.Context, audio tiktok.Audio) (tiktok.AudioInfo, error)
	AudioTopVideos(audio tiktok.Audio, opts tiktok.SearchOptions) (*pagination.Cursor[tiktok.VideoInfo], error)
	TagInfo(ctx context.Context, identifier tiktok.TagIdentifier) (tiktok.TagInfo, error)
	TagTopVideos(tag tiktok.Tag, opts tiktok.SearchOptions) (*pagination.Cursor[tiktok.VideoInfo], error)
}

// NewRouter creates the HTTP router with all endpoints.
func NewRouter(svc Service, logger zerolog.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	h := &handlers{svc: svc, logger: logger}

	r.Get("/health", h.GetHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/trending", h.GetTrending)

		r.Get("/users/{user}", h.GetUser)
		r.Get("/users/{user}/videos", h.GetUploaded)
		r.Get("/users/{user}/liked", h.GetLiked)

		r.Get("/videos/{id}", h.GetVideo)

		r.Get("/audios/{id}", h.GetAudio)
		r.Get("/audios/{id}/videos", h.GetAudioTop)

		r.Get("/tags/{tag}", h.GetTag)
		r.Get("/tags/{tag}/videos", h.GetTagTop)
	})

	return r
}

type handlers struct {
	svc    Service
	logger zerolog.Logger
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("Request served")
		})
	}
}
