package database

import (
	"context"
	"fmt"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

// CreatePost 帖子主表和对应扩展表在同一事务写入，任何一步失败都不留数据
func (r *PostRepository) CreatePost(ctx context.Context, np model.NewPost) (uint64, error) {
	var postID uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post := &model.Post{
			AuthorID:    np.AuthorID,
			CommunityID: np.CommunityID,
			Type:        np.Body.Type(),
		}
		if b, ok := np.Body.(model.PlainBody); ok {
			content := b.Content
			post.Content = &content
		}
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		postID = post.ID

		switch b := np.Body.(type) {
		case model.PlainBody:
		case model.PollBody:
			if err := tx.Create(&model.Poll{PostID: post.ID, Question: b.Question, EndsAt: b.EndsAt}).Error; err != nil {
				return err
			}
			options := make([]model.PollOption, 0, len(b.Options))
			for _, text := range b.Options {
				options = append(options, model.PollOption{PollID: post.ID, Text: text})
			}
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
		case model.EventBody:
			if err := tx.Create(&model.Event{
				PostID:      post.ID,
				Title:       b.Title,
				Description: b.Description,
				Location:    b.Location,
				StartDate:   b.StartDate,
				EndDate:     b.EndDate,
			}).Error; err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown post body %T", np.Body)
		}

		return insertOutbox(tx, model.EventPostCreated, post.ID, map[string]any{
			"author_id":    np.AuthorID,
			"community_id": np.CommunityID,
			"type":         post.Type,
		})
	})
	if err != nil {
		return 0, err
	}
	return postID, nil
}

func (r *PostRepository) FindPost(ctx context.Context, id uint64) (*model.Post, error) {
	var p model.Post
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if err = notFound(err); err == repository.ErrNotFound {
			return nil, repository.ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) rowQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("posts p").
		Select(`p.id, p.author_id, p.community_id, p.type, p.content, p.likes_count, p.comments_count, p.created_at,
			u.username AS author_username, pr.display_name AS author_display_name, pr.avatar_url AS author_avatar_url,
			pl.question, pl.ends_at,
			e.title, e.description, e.location, e.start_date, e.end_date`).
		Joins("JOIN users u ON u.id = p.author_id").
		Joins("JOIN profiles pr ON pr.user_id = p.author_id").
		Joins("LEFT JOIN polls pl ON pl.post_id = p.id").
		Joins("LEFT JOIN events e ON e.post_id = p.id")
}

func (r *PostRepository) PostRow(ctx context.Context, id uint64) (*model.PostRow, error) {
	var rows []model.PostRow
	if err := r.rowQuery(ctx).Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrPostNotFound
	}
	return &rows[0], nil
}

// ListPostRows community 为空时只查公共帖子
func (r *PostRepository) ListPostRows(ctx context.Context, f model.PostFilter) ([]model.PostRow, error) {
	q := r.rowQuery(ctx)
	if f.AuthorID != nil {
		q = q.Where("p.author_id = ?", *f.AuthorID)
	}
	if f.CommunityID != nil {
		q = q.Where("p.community_id = ?", *f.CommunityID)
	} else {
		q = q.Where("p.community_id IS NULL")
	}
	var rows []model.PostRow
	err := q.Order("p.created_at DESC").Order("p.id DESC").Limit(f.Limit).Scan(&rows).Error
	return rows, err
}

// DeletePost 连同扩展表、投票、报名、点赞一起删除
func (r *PostRepository) DeletePost(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Post
		if err := tx.Select("id", "author_id").First(&p, id).Error; err != nil {
			if notFound(err) == repository.ErrNotFound {
				return repository.ErrPostNotFound
			}
			return err
		}
		if err := deletePosts(tx, []uint64{id}); err != nil {
			return err
		}
		return insertOutbox(tx, model.EventPostDeleted, id, map[string]any{"author_id": p.AuthorID})
	})
}

// deletePosts 按依赖顺序删除帖子及所有子表
func deletePosts(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	steps := []struct {
		model any
		col   string
	}{
		{&model.PollVote{}, "poll_id"},
		{&model.PollOption{}, "poll_id"},
		{&model.Poll{}, "post_id"},
		{&model.EventAttendee{}, "event_id"},
		{&model.Event{}, "post_id"},
		{&model.PostLike{}, "post_id"},
		{&model.Post{}, "id"},
	}
	for _, s := range steps {
		if err := tx.Where(s.col+" IN ?", ids).Delete(s.model).Error; err != nil {
			return err
		}
	}
	return nil
}
