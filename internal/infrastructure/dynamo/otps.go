package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/domain"
)

// OTPRepo stores one-time codes.
// PK: user_id, SK: purpose. Put is an upsert, so writing a code atomically
// replaces whatever code the pair held before.
type OTPRepo struct {
	db        DB
	tableName string
}

func NewOTPRepo(db DB, tableName string) *OTPRepo {
	return &OTPRepo{db: db, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, c *domain.OneTimeCode) error {
	return putItem(ctx, r.db, r.tableName, c, "")
}

func (r *OTPRepo) Get(ctx context.Context, userID string, purpose domain.OTPPurpose) (*domain.OneTimeCode, error) {
	return getItem[domain.OneTimeCode](ctx, r.db, r.tableName, r.key(userID, purpose), "otp")
}

// Delete removes the code for the pair; ErrNotFound when there is none.
func (r *OTPRepo) Delete(ctx context.Context, userID string, purpose domain.OTPPurpose) error {
	return deleteItem(ctx, r.db, r.tableName, r.key(userID, purpose), attrUserID, "otp")
}

func (r *OTPRepo) key(userID string, purpose domain.OTPPurpose) map[string]types.AttributeValue {
	return compositeKey(attrUserID, userID, attrPurpose, string(purpose))
}
