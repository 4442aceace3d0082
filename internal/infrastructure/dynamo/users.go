package dynamo

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// Emails are lowercased on every write and lookup.
type UserRepo struct {
	db        DB
	tableName string
}

func NewUserRepo(db DB, tableName string) *UserRepo {
	return &UserRepo{db: db, tableName: tableName}
}

// Create inserts a new user and fails with ErrConflict if the id is taken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(u.Email)
	err := putItem(ctx, r.db, r.tableName, u, "attribute_not_exists(user_id)")
	return conflictOnConditionFailure(err, "user")
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return getItem[domain.User](ctx, r.db, r.tableName, strKey(attrUserID, userID), "user")
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return queryIndexOne[domain.User](ctx, r.db, r.tableName, indexEmail, attrEmail, strings.ToLower(email), "user")
}

func (r *UserRepo) GetByPhoneNumber(ctx context.Context, phone string) (*domain.User, error) {
	return queryIndexOne[domain.User](ctx, r.db, r.tableName, indexPhoneNumber, attrPhoneNumber, phone, "user")
}

// Update applies a partial update and stamps updated_at.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	if v, ok := updates[attrEmail].(string); ok {
		updates[attrEmail] = strings.ToLower(v)
	}
	updates[attrUpdatedAt] = time.Now().UTC()
	return updateItem(ctx, r.db, r.tableName, strKey(attrUserID, userID), attrUserID, updates, "user")
}

func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	return deleteItem(ctx, r.db, r.tableName, strKey(attrUserID, userID), attrUserID, "user")
}

// ScanPage returns a page of users.
// cursor is a base64-encoded user_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
func (r *UserRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		userID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey(attrUserID, userID)
	}
	out, err := r.db.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	users := []domain.User{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey[attrUserID].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return users, nextCursor, nil
}

func encodeCursor(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
