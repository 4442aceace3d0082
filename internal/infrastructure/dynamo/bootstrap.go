package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gym-api/internal/config"
)

// tableAdmin is the control-plane subset Bootstrap needs.
type tableAdmin interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Tables that already exist are skipped.
func Bootstrap(ctx context.Context, client tableAdmin, tables config.DynamoTables) {
	for _, in := range tableDefinitions(tables) {
		createTable(ctx, client, in)
	}
	for _, name := range []string{tables.OTPs, tables.PendingEmailChanges, tables.PendingPasswordResets} {
		enableTTL(ctx, client, name, attrExpiresAt)
	}
}

func tableDefinitions(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(tables.Users),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attrS(attrUserID), attrS(attrEmail), attrS(attrPhoneNumber),
			},
			KeySchema: hashKey(attrUserID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexEmail, attrEmail, ""),
				gsi(indexPhoneNumber, attrPhoneNumber, ""),
			},
		},
		{
			TableName:            aws.String(tables.OTPs),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{attrS(attrUserID), attrS(attrPurpose)},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(attrUserID), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(attrPurpose), KeyType: types.KeyTypeRange},
			},
		},
		pendingTable(tables.PendingEmailChanges),
		pendingTable(tables.PendingPasswordResets),
		{
			TableName:            aws.String(tables.Memberships),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{attrS(attrMembershipID)},
			KeySchema:            hashKey(attrMembershipID),
		},
		{
			TableName:              aws.String(tables.UserMemberships),
			BillingMode:            types.BillingModePayPerRequest,
			AttributeDefinitions:   []types.AttributeDefinition{attrS(attrUserID), attrS(attrMembershipID)},
			KeySchema:              hashKey(attrUserID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexMembershipID, attrMembershipID, "")},
		},
		{
			TableName:              aws.String(tables.Posts),
			BillingMode:            types.BillingModePayPerRequest,
			AttributeDefinitions:   []types.AttributeDefinition{attrS(attrPostID), attrS(attrUserID)},
			KeySchema:              hashKey(attrPostID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexUserID, attrUserID, "")},
		},
		{
			TableName:              aws.String(tables.Comments),
			BillingMode:            types.BillingModePayPerRequest,
			AttributeDefinitions:   []types.AttributeDefinition{attrS(attrCommentID), attrS(attrPostID)},
			KeySchema:              hashKey(attrCommentID),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexPostID, attrPostID, "")},
		},
	}
}

func pendingTable(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attrS(attrOTP)},
		KeySchema:            hashKey(attrOTP),
	}
}

func attrS(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client tableAdmin, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
		return
	}
	slog.Info("created table", "table", *input.TableName)
}

func enableTTL(ctx context.Context, client tableAdmin, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
