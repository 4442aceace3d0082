package post

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/pkg/id"
)

const (
	fieldTitle   = "title"
	fieldContent = "content"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreatePostRequest) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
	MyPosts(ctx context.Context, userID string) ([]domain.PostDetail, error)
	Get(ctx context.Context, postID string) (*domain.PostDetail, error)
	Update(ctx context.Context, actor domain.Actor, postID string, req domain.UpdatePostRequest) (*domain.Post, error)
	Delete(ctx context.Context, actor domain.Actor, postID string) error

	CreateComment(ctx context.Context, userID, postID string, req domain.CommentRequest) (*domain.Comment, error)
	UpdateComment(ctx context.Context, actor domain.Actor, postID, commentID string, req domain.CommentRequest) (*domain.Comment, error)
	DeleteComment(ctx context.Context, actor domain.Actor, postID, commentID string) error
}

type postStore interface {
	Put(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
	Update(ctx context.Context, postID string, updates map[string]interface{}) error
	Delete(ctx context.Context, postID string) error
}

type commentStore interface {
	Put(ctx context.Context, c *domain.Comment) error
	Get(ctx context.Context, commentID string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
	Update(ctx context.Context, commentID string, updates map[string]interface{}) error
	Delete(ctx context.Context, commentID string) error
	DeleteByPost(ctx context.Context, postID string) error
}

type ServiceDeps struct {
	Posts    postStore
	Comments commentStore
}

type service struct {
	posts    postStore
	comments commentStore
}

func NewService(deps ServiceDeps) Service {
	return &service{posts: deps.Posts, comments: deps.Comments}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreatePostRequest) (*domain.Post, error) {
	now := time.Now().UTC()
	p := &domain.Post{
		PostID:    id.New(),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all posts, newest first.
func (s *service) List(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (s *service) MyPosts(ctx context.Context, userID string) ([]domain.PostDetail, error) {
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	out := make([]domain.PostDetail, 0, len(posts))
	for _, p := range posts {
		d, err := s.withComments(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, postID string) (*domain.PostDetail, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.withComments(ctx, *p)
}

func (s *service) Update(ctx context.Context, actor domain.Actor, postID string, req domain.UpdatePostRequest) (*domain.Post, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(p.UserID) {
		return nil, fmt.Errorf("only the author can edit this post: %w", domain.ErrForbidden)
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Content != nil {
		updates[fieldContent] = *req.Content
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.posts.Update(ctx, postID, updates); err != nil {
		return nil, err
	}
	return s.posts.Get(ctx, postID)
}

// Delete removes a post and every comment on it. Comments go first so a
// failure never leaves orphans behind a deleted post.
func (s *service) Delete(ctx context.Context, actor domain.Actor, postID string) error {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if !actor.CanModify(p.UserID) {
		return fmt.Errorf("only the author can delete this post: %w", domain.ErrForbidden)
	}
	if err := s.comments.DeleteByPost(ctx, postID); err != nil {
		return err
	}
	return s.posts.Delete(ctx, postID)
}

func (s *service) CreateComment(ctx context.Context, userID, postID string, req domain.CommentRequest) (*domain.Comment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &domain.Comment{
		CommentID: id.New(),
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateComment(ctx context.Context, actor domain.Actor, postID, commentID string, req domain.CommentRequest) (*domain.Comment, error) {
	c, err := s.commentOf(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(c.UserID) {
		return nil, fmt.Errorf("only the author can edit this comment: %w", domain.ErrForbidden)
	}
	if err := s.comments.Update(ctx, commentID, map[string]interface{}{fieldContent: req.Content}); err != nil {
		return nil, err
	}
	return s.comments.Get(ctx, commentID)
}

func (s *service) DeleteComment(ctx context.Context, actor domain.Actor, postID, commentID string) error {
	c, err := s.commentOf(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if !actor.CanModify(c.UserID) {
		return fmt.Errorf("only the author can delete this comment: %w", domain.ErrForbidden)
	}
	return s.comments.Delete(ctx, commentID)
}

// commentOf loads a comment and checks it belongs to postID.
func (s *service) commentOf(ctx context.Context, postID, commentID string) (*domain.Comment, error) {
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.PostID != postID {
		return nil, fmt.Errorf("comment not found on this post: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (s *service) withComments(ctx context.Context, p domain.Post) (*domain.PostDetail, error) {
	comments, err := s.comments.ListByPost(ctx, p.PostID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(comments, func(a, b domain.Comment) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.CommentID, b.CommentID))
	})
	if comments == nil {
		comments = []domain.Comment{}
	}
	return &domain.PostDetail{Post: p, Comments: comments}, nil
}

func sortNewestFirst(posts []domain.Post) {
	slices.SortFunc(posts, func(a, b domain.Post) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.PostID, a.PostID))
	})
}
