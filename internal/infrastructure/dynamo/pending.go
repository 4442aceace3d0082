package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/domain"
)

// guardPrefix marks the per-user pointer rows. Codes are numeric, so a
// guard key can never collide with one.
const guardPrefix = "user#"

// pendingGuard points at the one pending row a user currently holds.
type pendingGuard struct {
	Key        string `dynamodbav:"otp"`
	CurrentOTP string `dynamodbav:"current_otp"`
}

// PendingRepo stores single-use pending tokens (email change, password reset).
// PK: otp, so the code doubles as the lookup key. Next to the code rows, each
// user has a guard row keyed user#<id> naming their current code; every
// replace goes through it.
type PendingRepo[T any] struct {
	db        DB
	tableName string
	what      string
}

func NewPendingEmailChangeRepo(db DB, tableName string) *PendingRepo[domain.PendingEmailChange] {
	return &PendingRepo[domain.PendingEmailChange]{db: db, tableName: tableName, what: "pending email change"}
}

func NewPendingPasswordResetRepo(db DB, tableName string) *PendingRepo[domain.PendingPasswordReset] {
	return &PendingRepo[domain.PendingPasswordReset]{db: db, tableName: tableName, what: "pending password reset"}
}

func (r *PendingRepo[T]) GetByOTP(ctx context.Context, otp string) (*T, error) {
	if strings.HasPrefix(otp, guardPrefix) {
		return nil, fmt.Errorf("%s not found: %w", r.what, domain.ErrNotFound)
	}
	return getItem[T](ctx, r.db, r.tableName, strKey(attrOTP, otp), r.what)
}

// Replace makes rec the user's only pending row. In one transaction it
// moves the user's guard from the code read a moment ago to otp, deletes
// the row that code named, and inserts rec. The guard write is conditioned
// on the value read, so of two concurrent replaces for one user exactly one
// commits and the other fails with ErrConflict. The insert may only
// overwrite a row owned by the same user, which keeps codes unique across
// users; a collision also reports ErrConflict.
func (r *PendingRepo[T]) Replace(ctx context.Context, userID, otp string, rec *T) error {
	guardKey := guardPrefix + userID
	current, found, err := r.currentOTP(ctx, guardKey)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", r.what, err)
	}
	guardItem, err := attributevalue.MarshalMap(pendingGuard{Key: guardKey, CurrentOTP: otp})
	if err != nil {
		return fmt.Errorf("marshal %s guard: %w", r.what, err)
	}

	guardPut := &types.Put{
		TableName:                aws.String(r.tableName),
		Item:                     guardItem,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": attrOTP},
	}
	if found {
		guardPut.ConditionExpression = aws.String("#cur = :seen")
		guardPut.ExpressionAttributeNames = map[string]string{"#cur": attrCurrentOTP}
		guardPut.ExpressionAttributeValues = map[string]types.AttributeValue{
			":seen": &types.AttributeValueMemberS{Value: current},
		}
	}

	ownedByUser := "attribute_not_exists(#pk) OR #uid = :uid"
	ownerNames := map[string]string{"#pk": attrOTP, "#uid": attrUserID}
	ownerValues := map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}}

	ops := []types.TransactWriteItem{{Put: guardPut}}
	if found && current != otp {
		// The old row may already be consumed, or its code reissued to
		// someone else; only a row this user still owns is removed.
		ops = append(ops, types.TransactWriteItem{Delete: &types.Delete{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey(attrOTP, current),
			ConditionExpression:       aws.String(ownedByUser),
			ExpressionAttributeNames:  ownerNames,
			ExpressionAttributeValues: ownerValues,
		}})
	}
	ops = append(ops, types.TransactWriteItem{Put: &types.Put{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       aws.String(ownedByUser),
		ExpressionAttributeNames:  ownerNames,
		ExpressionAttributeValues: ownerValues,
	}})
	return RunAtomic(ctx, r.db, ops)
}

// Delete consumes the row for otp. The guard keeps pointing at it until the
// next replace, which tolerates the row being gone.
func (r *PendingRepo[T]) Delete(ctx context.Context, otp string) error {
	return deleteItem(ctx, r.db, r.tableName, strKey(attrOTP, otp), attrOTP, r.what)
}

func (r *PendingRepo[T]) currentOTP(ctx context.Context, guardKey string) (string, bool, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrOTP, guardKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, err
	}
	if out.Item == nil {
		return "", false, nil
	}
	var g pendingGuard
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return "", false, fmt.Errorf("unmarshal %s guard: %w", r.what, err)
	}
	return g.CurrentOTP, true, nil
}
