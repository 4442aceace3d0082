package domain

import "time"

type Post struct {
	PostID    string    `json:"id" dynamodbav:"post_id"`
	UserID    string    `json:"userId" dynamodbav:"user_id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Content   string    `json:"content" dynamodbav:"content"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

type Comment struct {
	CommentID string    `json:"id" dynamodbav:"comment_id"`
	PostID    string    `json:"postId" dynamodbav:"post_id"`
	UserID    string    `json:"userId" dynamodbav:"user_id"`
	Content   string    `json:"content" dynamodbav:"content"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// PostDetail is a post with its comments attached.
type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Content *string `json:"content"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}
