package dynamo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/beatbookings/publish-api/internal/config"
)

// GSI names.
const (
	indexUserID       = "user_id-index"
	indexRefreshToken = "refresh_token-index"
	indexCreatorID    = "creator_id-index"
	indexEventID      = "event_id-index"
)

const tableActiveWait = 30 * time.Second

// tableDef describes one table. Every key attribute is a string.
type tableDef struct {
	name    string
	hashKey string
	indexes map[string]string // index name -> hash key
	ttlAttr string
}

func tableDefs(tables config.DynamoTables) []tableDef {
	return []tableDef{
		{name: tables.Users, hashKey: fieldEmail, indexes: map[string]string{indexUserID: fieldUserID}},
		{name: tables.Sessions, hashKey: fieldSessionID, indexes: map[string]string{indexRefreshToken: fieldRefreshToken}},
		{name: tables.OneTimeCodes, hashKey: fieldEmail, ttlAttr: fieldExpiresAt},
		{name: tables.Events, hashKey: fieldEventID, indexes: map[string]string{indexCreatorID: fieldCreatorID}},
		{name: tables.PendingPayments, hashKey: fieldCheckoutSession, indexes: map[string]string{indexEventID: fieldEventID}},
		{name: tables.PublishCounters, hashKey: fieldScope},
	}
}

// Bootstrap creates any missing table, index or TTL setting and waits for new
// tables to become ACTIVE. Existing tables are left untouched, so it runs on
// every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, def := range tableDefs(tables) {
		if createTable(ctx, client, def.input()) {
			waitActive(ctx, client, def.name)
		}
		if def.ttlAttr != "" {
			enableTTL(ctx, client, def.name, def.ttlAttr)
		}
	}
}

func (s tableDef) input() *dynamodb.CreateTableInput {
	attrs := map[string]struct{}{s.hashKey: {}}
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(s.name),
		BillingMode: types.BillingModePayPerRequest,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(s.hashKey), KeyType: types.KeyTypeHash},
		},
	}
	for index, key := range s.indexes {
		attrs[key] = struct{}{}
		in.GlobalSecondaryIndexes = append(in.GlobalSecondaryIndexes, gsi(index, key))
	}
	for name := range attrs {
		in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		})
	}
	return in
}

func gsi(indexName, hashKey string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName: aws.String(indexName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

// createTable reports whether a new table was created.
func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) bool {
	_, err := client.CreateTable(ctx, input)
	if err == nil {
		slog.Info("created table", "table", *input.TableName)
		return true
	}
	var inUse *types.ResourceInUseException
	if !errors.As(err, &inUse) {
		slog.Warn("could not create table", "table", *input.TableName, "err", err)
	}
	return false
}

func waitActive(ctx context.Context, client *dynamodb.Client, tableName string) {
	w := dynamodb.NewTableExistsWaiter(client)
	if err := w.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, tableActiveWait); err != nil {
		slog.Warn("table not active yet", "table", tableName, "err", err)
	}
}

func enableTTL(ctx context.Context, client *dynamodb.Client, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Debug("ttl not updated", "table", tableName, "err", err)
	}
}
