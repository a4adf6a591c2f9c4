package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tikstock/tiktok-go/pkg/pagination"
	"github.com/tikstock/tiktok-go/pkg/tiktok"
)

// maxPageSize is the largest count a client may request.
const maxPageSize = 100

// VideoPage is one page of a collection.
type VideoPage struct {
	Videos  []tiktok.VideoInfo `json:"videos"`
	Cursor  string             `json:"cursor"`
	HasMore bool               `json:"hasMore"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetHealth reports liveness.
func (h *handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (h *handlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writePage(w, r, h.svc.TrendingVideos(opts), nil)
}

func (h *handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.UserInfo(r.Context(), tiktok.Username(chi.URLParam(r, "user")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) GetUploaded(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.resolveUser(r, chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cur, err := h.svc.UploadedVideos(user, opts)
	h.writePage(w, r, cur, err)
}

func (h *handlers) GetLiked(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.resolveUser(r, chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cur, err := h.svc.LikedVideos(user, opts)
	h.writePage(w, r, cur, err)
}

func (h *handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.VideoInfo(r.Context(), tiktok.Video{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) GetAudio(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.AudioInfo(r.Context(), tiktok.Audio{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) GetAudioTop(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cur, err := h.svc.AudioTopVideos(tiktok.Audio{ID: chi.URLParam(r, "id")}, opts)
	h.writePage(w, r, cur, err)
}

func (h *handlers) GetTag(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.TagInfo(r.Context(), tiktok.TagName(chi.URLParam(r, "tag")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) GetTagTop(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cur, err := h.svc.TagTopVideos(tiktok.Tag{ID: chi.URLParam(r, "tag")}, opts)
	h.writePage(w, r, cur, err)
}

// resolveUser treats a numeric value as a user id and anything else as a
// username to look up.
func (h *handlers) resolveUser(r *http.Request, value string) (tiktok.User, error) {
	if isNumeric(value) {
		return tiktok.User{ID: value}, nil
	}
	info, err := h.svc.UserInfo(r.Context(), tiktok.Username(value))
	if err != nil {
		return tiktok.User{}, err
	}
	return info.User, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// writePage fetches a single page from cur.
func (h *handlers) writePage(w http.ResponseWriter, r *http.Request, cur *pagination.Cursor[tiktok.VideoInfo], err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	videos, err := cur.Next(r.Context())
	switch {
	case errors.Is(err, pagination.Done):
		writeJSON(w, http.StatusOK, VideoPage{Videos: []tiktok.VideoInfo{}, Cursor: cur.Cursor()})
	case err != nil:
		h.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, VideoPage{Videos: videos, Cursor: cur.Cursor(), HasMore: true})
	}
}

func searchOptions(r *http.Request) (tiktok.SearchOptions, error) {
	q := r.URL.Query()
	opts := tiktok.SearchOptions{StartCursor: q.Get("cursor")}

	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			return opts, fmt.Errorf("%w: count must be between 1 and %d", tiktok.ErrIllegalArgument, maxPageSize)
		}
		opts.Count = n
	}
	return opts, nil
}

// statusFor maps facade errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tiktok.ErrIllegalArgument), errors.Is(err, tiktok.ErrIllegalIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, tiktok.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, tiktok.ErrSignatureUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request failed")

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
