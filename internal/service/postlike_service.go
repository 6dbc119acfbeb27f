package service

import (
	"context"
	"errors"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository"
)

// ToggleLike 点赞/取消点赞
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint64) (model.LikeState, error) {
	if postID == 0 || userID == 0 {
		return model.LikeState{}, pkg.InvalidArgument("Invalid like data")
	}
	state, err := s.likes.ToggleLike(ctx, postID, userID)
	if errors.Is(err, repository.ErrPostNotFound) {
		return model.LikeState{}, pkg.NotFound("Post not found")
	}
	if err != nil {
		return model.LikeState{}, pkg.Internal(err)
	}
	pkg.ObserveToggle("like", state.LikedByMe)
	return state, nil
}

// CastVote 每人每个投票只能投一次，不能改票
func (s *PostService) CastVote(ctx context.Context, pollID, userID, optionID uint64) (*model.VoteResult, error) {
	if pollID == 0 || userID == 0 || optionID == 0 {
		return nil, pkg.InvalidArgument("Invalid vote data")
	}

	poll, err := s.polls.FindPoll(ctx, pollID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pkg.NotFound("Poll not found")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if !s.now().Before(poll.EndsAt) {
		pkg.ObserveVote("ended")
		return nil, pkg.FailedPrecondition("Poll has ended")
	}

	ok, err := s.polls.HasOption(ctx, pollID, optionID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if !ok {
		return nil, pkg.InvalidArgument("Invalid option")
	}

	voted, err := s.polls.HasVoted(ctx, pollID, userID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if voted {
		pkg.ObserveVote("duplicate")
		return nil, pkg.FailedPrecondition("Already voted")
	}

	// 并发下先查后插仍可能撞上唯一键，同样按已投处理
	if err = s.polls.CastVote(ctx, &model.PollVote{PollID: pollID, UserID: userID, OptionID: optionID}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			pkg.ObserveVote("duplicate")
			return nil, pkg.FailedPrecondition("Already voted")
		}
		return nil, pkg.Internal(err)
	}
	pkg.ObserveVote("ok")

	tallies, err := s.polls.TallyPolls(ctx, []uint64{pollID})
	if err != nil {
		return nil, pkg.Internal(err)
	}
	res := &model.VoteResult{UserVote: optionID, Options: tallies[pollID]}
	if res.Options == nil {
		res.Options = []model.OptionTally{}
	}
	for _, o := range res.Options {
		res.TotalVotes += o.Votes
	}
	return res, nil
}

// ToggleAttendance 报名/取消报名
func (s *PostService) ToggleAttendance(ctx context.Context, eventID, userID uint64) (model.AttendState, error) {
	if eventID == 0 || userID == 0 {
		return model.AttendState{}, pkg.InvalidArgument("Invalid attendance data")
	}
	exists, err := s.events.EventExists(ctx, eventID)
	if err != nil {
		return model.AttendState{}, pkg.Internal(err)
	}
	if !exists {
		return model.AttendState{}, pkg.NotFound("Event not found")
	}
	state, err := s.events.ToggleAttendance(ctx, eventID, userID)
	if err != nil {
		return model.AttendState{}, pkg.Internal(err)
	}
	pkg.ObserveToggle("attend", state.IsAttending)
	return state, nil
}
