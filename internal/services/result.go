package services

import (
	"context"

	"github.com/ecotrack/ecotrack-backend/internal/repos"
	"github.com/ecotrack/ecotrack-backend/internal/types"
)

// PostResult is a post enriched with per-viewer interaction flags.
type PostResult struct {
	types.Post
	LikedByMe bool `json:"liked_by_me"`
	SavedByMe bool `json:"saved_by_me"`
}

func decorateResults(ctx context.Context, likes repos.PostLikeRepo, saves repos.PostSaveRepo, viewerID int64, posts []*types.Post) ([]PostResult, error) {
	results := make([]PostResult, 0, len(posts))
	if len(posts) == 0 {
		return results, nil
	}

	var liked, saved map[int64]bool
	if viewerID != 0 {
		ids := make([]int64, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
		}

		var err error
		liked, err = likes.LikedPostIDs(ctx, nil, viewerID, ids)
		if err != nil {
			return nil, err
		}
		saved, err = saves.SavedPostIDs(ctx, nil, viewerID, ids)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range posts {
		results = append(results, PostResult{
			Post:      *p,
			LikedByMe: liked[p.ID],
			SavedByMe: saved[p.ID],
		})
	}

	return results, nil
}
