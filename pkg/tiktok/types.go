package tiktok

// User is a TikTok account. ID is required for video listings and Username
// for profile lookups; either may be empty depending on how the value was built.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// UserInfo is a fully hydrated user profile.
type UserInfo struct {
	User           User   `json:"user"`
	Avatar         string `json:"avatar"`
	Nickname       string `json:"nickname"`
	Signature      string `json:"signature"`
	FollowingCount int64  `json:"followingCount"`
	FollowerCount  int64  `json:"followerCount"`
	LikeCount      int64  `json:"likeCount"`
	VideoCount     int64  `json:"videoCount"`
}

// Video is a TikTok post.
type Video struct {
	ID string `json:"id"`
}

// VideoInfo is a video with its author, counters, tags and audio.
type VideoInfo struct {
	Video        Video      `json:"video"`
	Author       User       `json:"author"`
	PlayCount    int64      `json:"playCount"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int64      `json:"commentCount"`
	ShareCount   int64      `json:"shareCount"`
	Description  string     `json:"description"`
	Tags         []Tag      `json:"tags"`
	Audio        *AudioInfo `json:"audio"`
}

// Audio is a sound track.
type Audio struct {
	ID string `json:"id"`
}

// AudioInfo describes an audio track. Inside a VideoInfo only Audio and Title
// are populated.
type AudioInfo struct {
	Audio      Audio       `json:"audio"`
	Title      string      `json:"title"`
	AuthorName string      `json:"authorName,omitempty"`
	Covers     CoverImages `json:"covers"`
	URL        string      `json:"url,omitempty"`
	Duration   int         `json:"duration,omitempty"`
}

// CoverImages are the cover art URLs of an audio track.
type CoverImages struct {
	Small  string `json:"small,omitempty"`
	Medium string `json:"medium,omitempty"`
	Large  string `json:"large,omitempty"`
}

// Tag is a hashtag (a "challenge" in origin payloads).
type Tag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TagInfo is a tag with its description and counters.
type TagInfo struct {
	Tag         Tag    `json:"tag"`
	Description string `json:"description"`
	VideoCount  int64  `json:"videoCount"`
	ViewCount   int64  `json:"viewCount"`
}

// UserIdentifier selects a user for profile lookups: a User (its Username is
// used) or a bare Username.
type UserIdentifier interface {
	userIdentifier()
}

// Username is a bare TikTok handle.
type Username string

func (User) userIdentifier()     {}
func (Username) userIdentifier() {}

// TagIdentifier selects a tag for detail lookups: a Tag (its Title is used) or
// a bare TagName.
type TagIdentifier interface {
	tagIdentifier()
}

// TagName is a bare hashtag title without the leading '#'.
type TagName string

func (Tag) tagIdentifier()     {}
func (TagName) tagIdentifier() {}

// SearchOptions controls a collection cursor.
type SearchOptions struct {
	// Count is the page size. Defaults to 30; the origin caps pages near 100.
	Count int

	// StartCursor resumes a listing. Defaults to "0".
	StartCursor string
}
