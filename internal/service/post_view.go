package service

import (
	"context"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
)

// shape 把查询行组装成对外视图。点赞、票数、报名都按整页批量查询
func (s *PostService) shape(ctx context.Context, rows []model.PostRow, viewerID uint64) ([]model.PostView, error) {
	out := make([]model.PostView, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uint64, 0, len(rows))
	var pollIDs, eventIDs []uint64
	for _, r := range rows {
		ids = append(ids, r.ID)
		switch r.Type {
		case model.PostTypePoll:
			pollIDs = append(pollIDs, r.ID)
		case model.PostTypeEvent:
			eventIDs = append(eventIDs, r.ID)
		}
	}

	liked, err := s.likes.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	tallies, err := s.polls.TallyPolls(ctx, pollIDs)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	userVotes, err := s.polls.UserVotes(ctx, viewerID, pollIDs)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	attendees, err := s.events.AttendeeCounts(ctx, eventIDs)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	attending, err := s.events.AttendingEventIDs(ctx, viewerID, eventIDs)
	if err != nil {
		return nil, pkg.Internal(err)
	}

	for _, r := range rows {
		v := model.PostView{
			ID:            r.ID,
			Type:          r.Type,
			Content:       r.Content,
			CreatedAt:     r.CreatedAt,
			LikesCount:    r.LikesCount,
			CommentsCount: r.CommentsCount,
			CommunityID:   r.CommunityID,
			AuthorID:      r.AuthorID,
			Author: model.AuthorSnapshot{
				ID:          r.AuthorID,
				Username:    r.AuthorUsername,
				DisplayName: r.AuthorDisplayName,
				AvatarURL:   r.AuthorAvatarURL,
			},
			LikedByMe: liked[r.ID],
		}

		switch {
		case r.Type == model.PostTypePoll && r.Question != nil:
			v.PollBlock = pollBlock(r, tallies[r.ID], userVotes)
		case r.Type == model.PostTypeEvent && r.Title != nil:
			v.EventBlock = &model.EventBlock{
				Title:          *r.Title,
				Description:    r.Description,
				Location:       deref(r.Location),
				StartDate:      derefTime(r.StartDate),
				EndDate:        derefTime(r.EndDate),
				AttendeesCount: attendees[r.ID],
				IsAttending:    attending[r.ID],
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func pollBlock(r model.PostRow, options []model.OptionTally, userVotes map[uint64]uint64) *model.PollBlock {
	b := &model.PollBlock{
		Question: *r.Question,
		EndsAt:   derefTime(r.EndsAt),
		Options:  options,
	}
	if b.Options == nil {
		b.Options = []model.OptionTally{}
	}
	for _, o := range b.Options {
		b.TotalVotes += o.Votes
	}
	if opt, ok := userVotes[r.ID]; ok {
		b.UserVote = &opt
	}
	return b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
