package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository"
)

const (
	defaultPollHours = 24
	maxPollHours     = 24 * 365
	defaultEventSpan = 2 * time.Hour
)

// tooLong 按字符数比较，与 varchar(n) 的计数方式一致
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// 活动时间支持的格式，依次尝试
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// MembershipGate 社区存在性与成员校验，由 CommunityService 实现
type MembershipGate interface {
	RequireCommunity(ctx context.Context, communityID uint64) (*model.Community, error)
	RequireMember(ctx context.Context, communityID, userID uint64) error
}

// ProfileChecker 发帖前确认作者有用户和资料
type ProfileChecker interface {
	HasProfile(ctx context.Context, userID uint64) (bool, error)
}

type PostDeps struct {
	Posts    PostStore
	Likes    LikeStore
	Polls    PollStore
	Events   EventStore
	Profiles ProfileChecker
	Gate     MembershipGate
}

type PostOptions struct {
	// EnforceMembershipGate 为 true 时，社区内发帖/删帖要求是成员
	EnforceMembershipGate bool
	DefaultLimit          int
	MaxLimit              int
	Now                   func() time.Time
	// Location 解析不带时区的活动时间，默认 time.Local
	Location *time.Location
}

type PostService struct {
	posts    PostStore
	likes    LikeStore
	polls    PollStore
	events   EventStore
	profiles ProfileChecker
	gate     MembershipGate

	enforceGate  bool
	defaultLimit int
	maxLimit     int
	now          func() time.Time
	loc          *time.Location
}

func NewPostService(d PostDeps, opt PostOptions) *PostService {
	if opt.DefaultLimit <= 0 {
		opt.DefaultLimit = 50
	}
	if opt.MaxLimit < opt.DefaultLimit {
		opt.MaxLimit = 200
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Location == nil {
		opt.Location = time.Local
	}
	return &PostService{
		posts:        d.Posts,
		likes:        d.Likes,
		polls:        d.Polls,
		events:       d.Events,
		profiles:     d.Profiles,
		gate:         d.Gate,
		enforceGate:  opt.EnforceMembershipGate,
		defaultLimit: opt.DefaultLimit,
		maxLimit:     opt.MaxLimit,
		now:          opt.Now,
		loc:          opt.Location,
	}
}

type CreatePostInput struct {
	AuthorID    uint64
	CommunityID *uint64
	Type        string

	Content string

	Question      string
	Options       []string
	DurationHours *int

	Title       string
	Description string
	Location    string
	StartDate   string
	EndDate     string
}

// CreatePost 校验 -> 组装类型变体 -> 原子写入 -> 返回完整视图
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*model.PostView, error) {
	if in.AuthorID == 0 {
		return nil, pkg.InvalidArgument("author_id is required")
	}
	postType, ok := model.ParsePostType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !ok {
		return nil, pkg.InvalidArgument("Invalid post type")
	}

	hasProfile, err := s.profiles.HasProfile(ctx, in.AuthorID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if !hasProfile {
		return nil, pkg.InvalidArgument("User not found or profile missing.")
	}

	body, err := s.buildBody(postType, in)
	if err != nil {
		return nil, err
	}

	if in.CommunityID != nil {
		c, err := s.gate.RequireCommunity(ctx, *in.CommunityID)
		if err != nil {
			return nil, err
		}
		if s.enforceGate {
			if c.Status != model.CommunityActive {
				return nil, errInactiveCommunity()
			}
			if err = s.gate.RequireMember(ctx, c.ID, in.AuthorID); err != nil {
				return nil, err
			}
		}
	}

	id, err := s.posts.CreatePost(ctx, model.NewPost{
		AuthorID:    in.AuthorID,
		CommunityID: in.CommunityID,
		Body:        body,
	})
	if err != nil {
		return nil, pkg.Internal(err)
	}

	row, err := s.posts.PostRow(ctx, id)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	views, err := s.shape(ctx, []model.PostRow{*row}, in.AuthorID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostService) buildBody(t model.PostType, in CreatePostInput) (model.PostBody, error) {
	switch t {
	case model.PostTypePoll:
		question := strings.TrimSpace(in.Question)
		options := make([]string, 0, len(in.Options))
		seen := make(map[string]bool, len(in.Options))
		for _, o := range in.Options {
			o = strings.TrimSpace(o)
			if o == "" {
				continue
			}
			if tooLong(o, model.MaxPollOptionLen) {
				return nil, pkg.InvalidArgument("Poll option is too long")
			}
			if seen[o] {
				return nil, pkg.InvalidArgument("Poll options must be unique")
			}
			seen[o] = true
			options = append(options, o)
		}
		if question == "" || len(options) < 2 {
			return nil, pkg.InvalidArgument("Poll needs a question and at least 2 options")
		}
		hours := defaultPollHours
		if in.DurationHours != nil && *in.DurationHours != 0 {
			hours = *in.DurationHours
		}
		if hours < 1 || hours > maxPollHours {
			return nil, pkg.InvalidArgument("duration_hours must be a positive integer")
		}
		return model.PollBody{
			Question: question,
			Options:  options,
			EndsAt:   s.now().Add(time.Duration(hours) * time.Hour),
		}, nil

	case model.PostTypeEvent:
		title := strings.TrimSpace(in.Title)
		location := strings.TrimSpace(in.Location)
		start, ok := s.parseDate(in.StartDate)
		if title == "" || location == "" || !ok {
			return nil, pkg.InvalidArgument("Event needs title, location, and valid start_date")
		}
		if tooLong(title, model.MaxEventTitleLen) || tooLong(location, model.MaxEventLocationLen) {
			return nil, pkg.InvalidArgument("Event title or location is too long")
		}
		end, ok := s.parseDate(in.EndDate)
		if !ok || !end.After(start) {
			end = start.Add(defaultEventSpan)
		}
		body := model.EventBody{
			Title:     title,
			Location:  location,
			StartDate: start,
			EndDate:   end,
		}
		if d := strings.TrimSpace(in.Description); d != "" {
			body.Description = &d
		}
		return body, nil

	default:
		content := strings.TrimSpace(in.Content)
		if content == "" {
			return nil, pkg.InvalidArgument("content is required")
		}
		return model.PlainBody{Content: content}, nil
	}
}

// DeletePost 只有作者能删；开启成员校验时社区帖还要求仍是成员
func (s *PostService) DeletePost(ctx context.Context, postID, requesterID uint64) (uint64, error) {
	if requesterID == 0 {
		return 0, pkg.InvalidArgument("Missing x-user-id header")
	}
	if postID == 0 {
		return 0, pkg.InvalidArgument("Invalid post id")
	}
	post, err := s.posts.FindPost(ctx, postID)
	if errors.Is(err, repository.ErrPostNotFound) {
		return 0, pkg.NotFound("Post not found")
	}
	if err != nil {
		return 0, pkg.Internal(err)
	}
	if post.AuthorID != requesterID {
		return 0, pkg.Forbidden("Not allowed")
	}
	if post.CommunityID != nil && s.enforceGate {
		if err = s.gate.RequireMember(ctx, *post.CommunityID, requesterID); err != nil {
			return 0, err
		}
	}

	if err = s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return 0, pkg.NotFound("Post not found")
		}
		return 0, pkg.Internal(err)
	}
	return postID, nil
}

type ListPostsInput struct {
	AuthorID    *uint64
	CommunityID *uint64
	ViewerID    uint64
	Limit       int
}

// ListPosts 不传 community 时只返回公共帖子
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]model.PostView, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	rows, err := s.posts.ListPostRows(ctx, model.PostFilter{
		AuthorID:    in.AuthorID,
		CommunityID: in.CommunityID,
		Limit:       limit,
	})
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return s.shape(ctx, rows, in.ViewerID)
}

// parseDate 不带时区的时间按 s.loc 解析
func (s *PostService) parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
