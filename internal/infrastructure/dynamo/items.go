package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/domain"
)

// getItem reads one item by primary key with a strongly consistent read.
func getItem[T any](ctx context.Context, db DB, table string, key map[string]types.AttributeValue, what string) (*T, error) {
	out, err := db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return &v, nil
}

// putItem marshals v and writes it. cond, when non-empty, is a ConditionExpression.
func putItem(ctx context.Context, db DB, table string, v interface{}, cond string) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	in := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	}
	if cond != "" {
		in.ConditionExpression = aws.String(cond)
	}
	_, err = db.PutItem(ctx, in)
	return err
}

// updateItem applies a SET expression to an existing item. The item must
// exist: a missing key yields ErrNotFound instead of an upserted stub.
func updateItem(ctx context.Context, db DB, table string, key map[string]types.AttributeValue, pkName string, updates map[string]interface{}, what string) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = pkName
	_, err = db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFailure(err, what)
}

// deleteItem removes an item that must exist.
func deleteItem(ctx context.Context, db DB, table string, key map[string]types.AttributeValue, pkName, what string) error {
	_, err := db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(table),
		Key:                      key,
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": pkName},
	})
	return notFoundOnConditionFailure(err, what)
}

// queryIndex returns every item whose GSI hash key equals value, following pagination.
func queryIndex[T any](ctx context.Context, db DB, table, index, attr, value string) ([]T, error) {
	p := dynamodb.NewQueryPaginator(db, &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
	})
	var items []T
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []T
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		items = append(items, page...)
	}
	return items, nil
}

// queryIndexOne returns the first item matching a GSI lookup, or ErrNotFound.
func queryIndexOne[T any](ctx context.Context, db DB, table, index, attr, value, what string) (*T, error) {
	out, err := db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return &v, nil
}

// scanAll reads the whole table. Only used for small reference tables and admin listings.
func scanAll[T any](ctx context.Context, db DB, table string) ([]T, error) {
	p := dynamodb.NewScanPaginator(db, &dynamodb.ScanInput{TableName: aws.String(table)})
	items := []T{}
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []T
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		items = append(items, page...)
	}
	return items, nil
}
