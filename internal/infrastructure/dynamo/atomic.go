package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/domain"
)

// maxTransactItems is the DynamoDB limit for one TransactWriteItems call.
const maxTransactItems = 100

// RunAtomic executes ops as a single all-or-nothing unit. A transaction
// cancelled by a failed condition is reported as ErrConflict.
func RunAtomic(ctx context.Context, db DB, ops []types.TransactWriteItem) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > maxTransactItems {
		return fmt.Errorf("atomic unit of %d operations exceeds %d", len(ops), maxTransactItems)
	}
	_, err := db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: ops})
	if err == nil {
		return nil
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if r.Code != nil && *r.Code == "ConditionalCheckFailed" {
				return fmt.Errorf("concurrent modification: %w", domain.ErrConflict)
			}
		}
	}
	return fmt.Errorf("transact write: %w", err)
}
