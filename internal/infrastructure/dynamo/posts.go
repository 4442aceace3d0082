package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/domain"
)

// batchWriteLimit is the DynamoDB cap on requests per BatchWriteItem call.
const batchWriteLimit = 25

// PostRepo manages posts. GSI user_id-index lists a user's posts.
type PostRepo struct {
	db        DB
	tableName string
}

func NewPostRepo(db DB, tableName string) *PostRepo {
	return &PostRepo{db: db, tableName: tableName}
}

func (r *PostRepo) Put(ctx context.Context, p *domain.Post) error {
	return putItem(ctx, r.db, r.tableName, p, "")
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*domain.Post, error) {
	return getItem[domain.Post](ctx, r.db, r.tableName, strKey(attrPostID, postID), "post")
}

func (r *PostRepo) List(ctx context.Context) ([]domain.Post, error) {
	return scanAll[domain.Post](ctx, r.db, r.tableName)
}

func (r *PostRepo) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	return queryIndex[domain.Post](ctx, r.db, r.tableName, indexUserID, attrUserID, userID)
}

func (r *PostRepo) Update(ctx context.Context, postID string, updates map[string]interface{}) error {
	updates[attrUpdatedAt] = time.Now().UTC()
	return updateItem(ctx, r.db, r.tableName, strKey(attrPostID, postID), attrPostID, updates, "post")
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	return deleteItem(ctx, r.db, r.tableName, strKey(attrPostID, postID), attrPostID, "post")
}

// CommentRepo manages comments. GSI post_id-index lists a post's comments.
type CommentRepo struct {
	db        DB
	tableName string
}

func NewCommentRepo(db DB, tableName string) *CommentRepo {
	return &CommentRepo{db: db, tableName: tableName}
}

func (r *CommentRepo) Put(ctx context.Context, c *domain.Comment) error {
	return putItem(ctx, r.db, r.tableName, c, "")
}

func (r *CommentRepo) Get(ctx context.Context, commentID string) (*domain.Comment, error) {
	return getItem[domain.Comment](ctx, r.db, r.tableName, strKey(attrCommentID, commentID), "comment")
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	return queryIndex[domain.Comment](ctx, r.db, r.tableName, indexPostID, attrPostID, postID)
}

func (r *CommentRepo) Update(ctx context.Context, commentID string, updates map[string]interface{}) error {
	updates[attrUpdatedAt] = time.Now().UTC()
	return updateItem(ctx, r.db, r.tableName, strKey(attrCommentID, commentID), attrCommentID, updates, "comment")
}

func (r *CommentRepo) Delete(ctx context.Context, commentID string) error {
	return deleteItem(ctx, r.db, r.tableName, strKey(attrCommentID, commentID), attrCommentID, "comment")
}

// DeleteByPost removes every comment on postID in batches of 25.
func (r *CommentRepo) DeleteByPost(ctx context.Context, postID string) error {
	comments, err := r.ListByPost(ctx, postID)
	if err != nil {
		return err
	}
	for start := 0; start < len(comments); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(comments))
		reqs := make([]types.WriteRequest, 0, end-start)
		for _, c := range comments[start:end] {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: strKey(attrCommentID, c.CommentID)},
			})
		}
		if err := r.batchDelete(ctx, reqs); err != nil {
			return err
		}
	}
	return nil
}

func (r *CommentRepo) batchDelete(ctx context.Context, reqs []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.tableName: reqs}
	for attempt := 0; attempt < 3 && len(pending[r.tableName]) > 0; attempt++ {
		out, err := r.db.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems
	}
	if n := len(pending[r.tableName]); n > 0 {
		return fmt.Errorf("batch delete comments: %d unprocessed", n)
	}
	return nil
}
