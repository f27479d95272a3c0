package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/beatbookings/publish-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSpecs_CoverEveryTable(t *testing.T) {
	tables := config.DynamoTables{
		Users: "u", Sessions: "s", OneTimeCodes: "o", Events: "e", PendingPayments: "p", PublishCounters: "c",
	}
	var names []string
	for _, s := range tableDefs(tables) {
		names = append(names, s.name)
	}
	assert.ElementsMatch(t, []string{"u", "s", "o", "e", "p", "c"}, names)
}

func TestTableSpecInput_DeclaresIndexKeys(t *testing.T) {
	def := tableDef{name: "pending_payments", hashKey: fieldCheckoutSession, indexes: map[string]string{indexEventID: fieldEventID}}
	in := def.input()

	assert.Equal(t, "pending_payments", aws.ToString(in.TableName))
	require.Len(t, in.KeySchema, 1)
	assert.Equal(t, fieldCheckoutSession, aws.ToString(in.KeySchema[0].AttributeName))

	var attrs []string
	for _, a := range in.AttributeDefinitions {
		attrs = append(attrs, aws.ToString(a.AttributeName))
	}
	assert.ElementsMatch(t, []string{fieldCheckoutSession, fieldEventID}, attrs)

	require.Len(t, in.GlobalSecondaryIndexes, 1)
	assert.Equal(t, indexEventID, aws.ToString(in.GlobalSecondaryIndexes[0].IndexName))
}

func TestTableSpecInput_CounterTableHasNoIndexes(t *testing.T) {
	in := tableDef{name: "publish_counters", hashKey: fieldScope}.input()
	assert.Empty(t, in.GlobalSecondaryIndexes)
	assert.Len(t, in.AttributeDefinitions, 1)
}
