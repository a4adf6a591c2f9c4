package tiktok

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the origin all API URLs are built against.
const DefaultBaseURL = "https://m.tiktok.com"

// Listing type codes for the type query parameter.
const (
	typeRecentVideos   = 1
	typeLikedVideos    = 2
	typeTagVideos      = 3
	typeAudioVideos    = 4
	typeTrendingVideos = 5
)

// Listing source codes for the sourceType query parameter.
const (
	sourceTrending = 12
	sourceUploaded = 8
	sourceLiked    = 9
)

const appID = "1233"

// endpoints builds unsigned API URLs. Builders validate their input and never
// perform I/O.
type endpoints struct {
	base string
}

func newEndpoints(base string) endpoints {
	if base == "" {
		base = DefaultBaseURL
	}
	return endpoints{base: strings.TrimRight(base, "/")}
}

func (e endpoints) build(path string, q url.Values) string {
	return e.base + path + "?" + q.Encode()
}

func (e endpoints) itemList(id string, listType, sourceType, count int, cursor string) string {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("id", id)
	q.Set("type", strconv.Itoa(listType))
	q.Set("secUid", "")
	q.Set("maxCursor", cursor)
	q.Set("minCursor", "0")
	q.Set("sourceType", strconv.Itoa(sourceType))
	q.Set("appId", appID)
	return e.build("/api/item_list/", q)
}

func (e endpoints) shareList(id string, listType, count int, cursor string) string {
	q := url.Values{}
	q.Set("secUid", "")
	q.Set("id", id)
	q.Set("type", strconv.Itoa(listType))
	q.Set("count", strconv.Itoa(count))
	q.Set("minCursor", "0")
	q.Set("maxCursor", cursor)
	q.Set("shareUid", "")
	return e.build("/share/item/list", q)
}

func (e endpoints) trending(count int, cursor string) string {
	return e.itemList("1", typeTrendingVideos, sourceTrending, count, cursor)
}

func (e endpoints) userDetail(identifier UserIdentifier) (string, error) {
	var username string
	switch v := identifier.(type) {
	case Username:
		username = string(v)
	case User:
		if v.Username == "" {
			return "", illegalArgument("passed User must have a username set")
		}
		username = v.Username
	default:
		return "", illegalArgument("unsupported user identifier %T", identifier)
	}
	if username == "" {
		return "", illegalArgument("username must not be empty")
	}

	q := url.Values{}
	q.Set("uniqueId", username)
	return e.build("/api/user/detail/", q), nil
}

func (e endpoints) uploaded(user User, count int, cursor string) (string, error) {
	if user.ID == "" {
		return "", illegalArgument("passed User must have an id set")
	}
	return e.itemList(user.ID, typeRecentVideos, sourceUploaded, count, cursor), nil
}

func (e endpoints) liked(user User, count int, cursor string) (string, error) {
	if user.ID == "" {
		return "", illegalArgument("passed User must have an id set")
	}
	return e.itemList(user.ID, typeLikedVideos, sourceLiked, count, cursor), nil
}

func (e endpoints) videoDetail(video Video) (string, error) {
	if video.ID == "" {
		return "", illegalArgument("passed Video must have an id set")
	}
	q := url.Values{}
	q.Set("itemId", video.ID)
	return e.build("/api/item/detail/", q), nil
}

func (e endpoints) audioDetail(audio Audio) (string, error) {
	if audio.ID == "" {
		return "", illegalArgument("passed Audio must have an id set")
	}
	q := url.Values{}
	q.Set("musicId", audio.ID)
	q.Set("language", "en")
	return e.build("/api/music/detail/", q), nil
}

func (e endpoints) audioTop(audio Audio, count int, cursor string) (string, error) {
	if audio.ID == "" {
		return "", illegalArgument("passed Audio must have an id set")
	}
	return e.shareList(audio.ID, typeAudioVideos, count, cursor), nil
}

func (e endpoints) tagDetail(identifier TagIdentifier) (string, error) {
	var name string
	switch v := identifier.(type) {
	case TagName:
		name = string(v)
	case Tag:
		if v.Title == "" {
			return "", illegalArgument("passed Tag must have a title set")
		}
		name = v.Title
	default:
		return "", illegalArgument("unsupported tag identifier %T", identifier)
	}
	if name == "" {
		return "", illegalArgument("tag name must not be empty")
	}

	q := url.Values{}
	q.Set("challengeName", name)
	q.Set("language", "en")
	return e.build("/api/challenge/detail/", q), nil
}

func (e endpoints) tagTop(tag Tag, count int, cursor string) (string, error) {
	if tag.ID == "" {
		return "", illegalArgument("passed Tag must have an id set")
	}
	return e.shareList(tag.ID, typeTagVideos, count, cursor), nil
}
