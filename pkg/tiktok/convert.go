package tiktok

func userInfoFromRaw(raw *rawUserDetail) UserInfo {
	u := raw.UserInfo.User
	s := raw.UserInfo.Stats
	return UserInfo{
		User: User{
			ID:       u.ID,
			Username: u.UniqueID,
		},
		Avatar:         u.AvatarThumb,
		Nickname:       u.Nickname,
		Signature:      u.Signature,
		FollowingCount: int64(s.FollowingCount),
		FollowerCount:  int64(s.FollowerCount),
		LikeCount:      int64(s.HeartCount),
		VideoCount:     int64(s.VideoCount),
	}
}

func videoInfoFromItem(item *rawItem) VideoInfo {
	tags := make([]Tag, 0, len(item.Challenges))
	for _, c := range item.Challenges {
		tags = append(tags, Tag{ID: c.ID, Title: c.Title})
	}

	var audio *AudioInfo
	if item.Music != nil {
		audio = &AudioInfo{
			Audio: Audio{ID: item.Music.ID},
			Title: item.Music.Title,
		}
	}

	return VideoInfo{
		Video: Video{ID: item.ID},
		Author: User{
			ID:       item.Author.ID,
			Username: item.Author.UniqueID,
		},
		PlayCount:    int64(item.Stats.PlayCount),
		LikeCount:    int64(item.Stats.DiggCount),
		CommentCount: int64(item.Stats.CommentCount),
		ShareCount:   int64(item.Stats.ShareCount),
		Description:  item.Desc,
		Tags:         tags,
		Audio:        audio,
	}
}

func videoInfoFromTopItem(item *rawTopItem) VideoInfo {
	tags := make([]Tag, 0, len(item.ChallengeInfoList))
	for _, c := range item.ChallengeInfoList {
		tags = append(tags, Tag{ID: c.ChallengeID, Title: c.ChallengeName})
	}

	var audio *AudioInfo
	if item.MusicInfos != nil {
		audio = &AudioInfo{
			Audio: Audio{ID: item.MusicInfos.MusicID},
			Title: item.MusicInfos.MusicName,
		}
	}

	return VideoInfo{
		Video: Video{ID: item.ItemInfos.ID},
		Author: User{
			ID:       item.AuthorInfos.UserID,
			Username: item.AuthorInfos.UniqueID,
		},
		PlayCount:    int64(item.ItemInfos.PlayCount),
		LikeCount:    int64(item.ItemInfos.DiggCount),
		CommentCount: int64(item.ItemInfos.CommentCount),
		ShareCount:   int64(item.ItemInfos.ShareCount),
		Description:  item.ItemInfos.Text,
		Tags:         tags,
		Audio:        audio,
	}
}

func audioInfoFromRaw(raw *rawMusicDetail) AudioInfo {
	m := raw.MusicInfo.Music
	return AudioInfo{
		Audio:      Audio{ID: m.ID},
		Title:      m.Title,
		AuthorName: m.AuthorName,
		Covers: CoverImages{
			Small:  m.CoverThumb,
			Medium: m.CoverMedium,
			Large:  m.CoverLarge,
		},
		URL:      m.PlayURL,
		Duration: m.Duration,
	}
}

func tagInfoFromRaw(raw *rawChallengeDetail) TagInfo {
	c := raw.ChallengeInfo.Challenge
	s := raw.ChallengeInfo.Stats
	return TagInfo{
		Tag:         Tag{ID: c.ID, Title: c.Title},
		Description: c.Desc,
		VideoCount:  int64(s.VideoCount),
		ViewCount:   int64(s.ViewCount),
	}
}
