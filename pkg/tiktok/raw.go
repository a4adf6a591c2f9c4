package tiktok

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// rawCursor accepts maxCursor as either a JSON string or a number.
type rawCursor string

func (c *rawCursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = rawCursor(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("maxCursor: %w", err)
	}
	*c = rawCursor(n.String())
	return nil
}

// rawCount accepts counters as either a JSON number or a numeric string.
type rawCount int64

func (c *rawCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*c = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("counter: %w", err)
		}
		*c = rawCount(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("counter: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*c = rawCount(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("counter: %w", err)
	}
	*c = rawCount(f)
	return nil
}

type rawStatus struct {
	StatusCode int `json:"statusCode"`
}

type rawUserDetail struct {
	rawStatus
	UserInfo *struct {
		User struct {
			ID          string `json:"id"`
			UniqueID    string `json:"uniqueId"`
			AvatarThumb string `json:"avatarThumb"`
			Nickname    string `json:"nickname"`
			Signature   string `json:"signature"`
		} `json:"user"`
		Stats struct {
			FollowingCount rawCount `json:"followingCount"`
			FollowerCount  rawCount `json:"followerCount"`
			HeartCount     rawCount `json:"heartCount"`
			VideoCount     rawCount `json:"videoCount"`
		} `json:"stats"`
	} `json:"userInfo"`
}

type rawItem struct {
	ID     string `json:"id"`
	Desc   string `json:"desc"`
	Author struct {
		ID       string `json:"id"`
		UniqueID string `json:"uniqueId"`
	} `json:"author"`
	Stats struct {
		PlayCount    rawCount `json:"playCount"`
		DiggCount    rawCount `json:"diggCount"`
		CommentCount rawCount `json:"commentCount"`
		ShareCount   rawCount `json:"shareCount"`
	} `json:"stats"`
	Challenges []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"challenges"`
	Music *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"music"`
}

type rawItemDetail struct {
	rawStatus
	ItemInfo *struct {
		ItemStruct *rawItem `json:"itemStruct"`
	} `json:"itemInfo"`
}

// rawItemList is the standard listing family.
type rawItemList struct {
	rawStatus
	Items     *[]rawItem `json:"items"`
	MaxCursor rawCursor  `json:"maxCursor"`
}

type rawTopItem struct {
	ItemInfos struct {
		ID           string   `json:"id"`
		Text         string   `json:"text"`
		PlayCount    rawCount `json:"playCount"`
		DiggCount    rawCount `json:"diggCount"`
		CommentCount rawCount `json:"commentCount"`
		ShareCount   rawCount `json:"shareCount"`
	} `json:"itemInfos"`
	AuthorInfos struct {
		UserID   string `json:"userId"`
		UniqueID string `json:"uniqueId"`
	} `json:"authorInfos"`
	ChallengeInfoList []struct {
		ChallengeID   string `json:"challengeId"`
		ChallengeName string `json:"challengeName"`
	} `json:"challengeInfoList"`
	MusicInfos *struct {
		MusicID   string `json:"musicId"`
		MusicName string `json:"musicName"`
	} `json:"musicInfos"`
}

// rawTopList is the top-videos listing family.
type rawTopList struct {
	rawStatus
	Body *struct {
		ItemListData *[]rawTopItem `json:"itemListData"`
		MaxCursor    rawCursor     `json:"maxCursor"`
	} `json:"body"`
}

type rawMusicDetail struct {
	rawStatus
	MusicInfo *struct {
		Music struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			AuthorName  string `json:"authorName"`
			CoverThumb  string `json:"coverThumb"`
			CoverMedium string `json:"coverMedium"`
			CoverLarge  string `json:"coverLarge"`
			PlayURL     string `json:"playUrl"`
			Duration    int    `json:"duration"`
		} `json:"music"`
	} `json:"musicInfo"`
}

type rawChallengeDetail struct {
	rawStatus
	ChallengeInfo *struct {
		Challenge struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Desc  string `json:"desc"`
		} `json:"challenge"`
		Stats struct {
			VideoCount rawCount `json:"videoCount"`
			ViewCount  rawCount `json:"viewCount"`
		} `json:"stats"`
	} `json:"challengeInfo"`
}
