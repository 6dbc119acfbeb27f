package memory

import (
	"context"
	"sort"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"
)

func (s *Store) ToggleLike(_ context.Context, postID, userID uint64) (model.LikeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return model.LikeState{}, repository.ErrPostNotFound
	}
	k := pair{postID, userID}
	var state model.LikeState
	if _, liked := s.likes[k]; liked {
		delete(s.likes, k)
		if p.LikesCount > 0 {
			p.LikesCount--
		}
	} else {
		s.likes[k] = s.now()
		p.LikesCount++
		state.LikedByMe = true
	}
	s.posts[postID] = p
	state.LikesCount = p.LikesCount
	return state, nil
}

func (s *Store) LikedPostIDs(_ context.Context, viewerID uint64, postIDs []uint64) (map[uint64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64]bool)
	if viewerID == 0 {
		return out, nil
	}
	for _, id := range postIDs {
		if _, ok := s.likes[pair{id, viewerID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Store) FindPoll(_ context.Context, pollID uint64) (*model.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[pollID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) HasOption(_ context.Context, pollID, optionID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.options[optionID]
	return ok && o.PollID == pollID, nil
}

func (s *Store) HasVoted(_ context.Context, pollID, userID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[pair{pollID, userID}]
	return ok, nil
}

func (s *Store) CastVote(_ context.Context, v *model.PollVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{v.PollID, v.UserID}
	if _, ok := s.votes[k]; ok {
		return repository.ErrDuplicate
	}
	v.CreatedAt = s.now()
	s.votes[k] = *v
	s.appendOutbox(model.EventPollVoted, v.PollID, map[string]any{"user_id": v.UserID, "option_id": v.OptionID})
	return nil
}

func (s *Store) TallyPolls(_ context.Context, pollIDs []uint64) (map[uint64][]model.OptionTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[uint64]bool, len(pollIDs))
	for _, id := range pollIDs {
		want[id] = true
	}
	counts := make(map[uint64]int64)
	for _, v := range s.votes {
		counts[v.OptionID]++
	}

	out := make(map[uint64][]model.OptionTally)
	for _, o := range s.options {
		if want[o.PollID] {
			out[o.PollID] = append(out[o.PollID], model.OptionTally{
				ID: o.ID, PollID: o.PollID, Text: o.Text, Votes: counts[o.ID],
			})
		}
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return out, nil
}

func (s *Store) UserVotes(_ context.Context, viewerID uint64, pollIDs []uint64) (map[uint64]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64]uint64)
	if viewerID == 0 {
		return out, nil
	}
	for _, id := range pollIDs {
		if v, ok := s.votes[pair{id, viewerID}]; ok {
			out[id] = v.OptionID
		}
	}
	return out, nil
}

func (s *Store) EventExists(_ context.Context, eventID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[eventID]
	return ok, nil
}

func (s *Store) ToggleAttendance(_ context.Context, eventID, userID uint64) (model.AttendState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{eventID, userID}
	var state model.AttendState
	if _, ok := s.attendees[k]; ok {
		delete(s.attendees, k)
	} else {
		s.attendees[k] = s.now()
		state.IsAttending = true
	}
	for a := range s.attendees {
		if a.a == eventID {
			state.AttendeesCount++
		}
	}
	return state, nil
}

func (s *Store) AttendeeCounts(_ context.Context, eventIDs []uint64) (map[uint64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[uint64]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	out := make(map[uint64]int64)
	for k := range s.attendees {
		if want[k.a] {
			out[k.a]++
		}
	}
	return out, nil
}

func (s *Store) AttendingEventIDs(_ context.Context, viewerID uint64, eventIDs []uint64) (map[uint64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint64]bool)
	if viewerID == 0 {
		return out, nil
	}
	for _, id := range eventIDs {
		if _, ok := s.attendees[pair{id, viewerID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}
