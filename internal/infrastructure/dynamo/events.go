package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/beatbookings/publish-api/internal/domain"
)

// EventRepo provides typed DynamoDB operations for the events table and the
// publish_counters table that tracks how many events have gone live.
type EventRepo struct {
	client        *dynamodb.Client
	tableName     string
	countersTable string
}

func NewEventRepo(client *dynamodb.Client, tableName, countersTable string) *EventRepo {
	return &EventRepo{client: client, tableName: tableName, countersTable: countersTable}
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldEventID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("event id taken: %w", domain.ErrConflict)
	}
	return err
}

func (r *EventRepo) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEventID, eventID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("event not found: %w", domain.ErrNotFound)
	}
	var e domain.Event
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByCreator returns every event creatorID owns, newest first. The GSI
// is eventually consistent, so a just-created draft may lag briefly.
func (r *EventRepo) ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexCreatorID),
		KeyConditionExpression:    aws.String("#c = :c"),
		ExpressionAttributeNames:  map[string]string{"#c": fieldCreatorID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": strVal(creatorID)},
	})
	events := []domain.Event{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query events by creator: %w", err)
		}
		var batch []domain.Event
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		events = append(events, batch...)
	}
	// ULIDs sort by creation time.
	sort.Slice(events, func(i, j int) bool { return events[i].EventID > events[j].EventID })
	return events, nil
}

// CountPublished returns the platform-wide number of published events.
func (r *EventRepo) CountPublished(ctx context.Context) (int, error) {
	return r.readCounter(ctx, scopePlatform)
}

// CountPublishedByCreator returns how many of creatorID's events are published.
func (r *EventRepo) CountPublishedByCreator(ctx context.Context, creatorID string) (int, error) {
	return r.readCounter(ctx, creatorScope(creatorID))
}

func (r *EventRepo) readCounter(ctx context.Context, scope string) (int, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.countersTable),
		Key:            strKey(fieldScope, scope),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, err
	}
	n, ok := out.Item[fieldPublishedCount].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil
	}
	return strconv.Atoi(n.Value)
}

// Publish flips a draft to published and bumps both counters in one
// transaction. Item order matters to classifyPublishFailure.
//
// Errors: domain.ErrConflict when the event is no longer a draft owned by
// req.CreatorID; *domain.QuotaExceededError when req.PlatformQuota is set and
// already reached.
func (r *EventRepo) Publish(ctx context.Context, req domain.PublishRequest) error {
	at, err := attributevalue.Marshal(req.At.UTC())
	if err != nil {
		return fmt.Errorf("marshal publish time: %w", err)
	}

	platform := &types.Update{
		TableName:                aws.String(r.countersTable),
		Key:                      strKey(fieldScope, scopePlatform),
		UpdateExpression:         aws.String("ADD #n :one"),
		ExpressionAttributeNames: map[string]string{"#n": fieldPublishedCount},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": numVal(1),
		},
	}
	if req.PlatformQuota > 0 {
		platform.ConditionExpression = aws.String("attribute_not_exists(#n) OR #n < :quota")
		platform.ExpressionAttributeValues[":quota"] = numVal(int64(req.PlatformQuota))
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:           aws.String(r.tableName),
				Key:                 strKey(fieldEventID, req.EventID),
				UpdateExpression:    aws.String("SET #s = :pub, #pa = :at, #pv = :via, #u = :at"),
				ConditionExpression: aws.String("#s = :draft AND #c = :creator"),
				ExpressionAttributeNames: map[string]string{
					"#s":  fieldStatus,
					"#pa": fieldPublishedAt,
					"#pv": fieldPublishedVia,
					"#u":  fieldUpdatedAt,
					"#c":  fieldCreatorID,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pub":     strVal(domain.EventStatusPublished),
					":draft":   strVal(domain.EventStatusDraft),
					":creator": strVal(req.CreatorID),
					":via":     strVal(req.Via),
					":at":      at,
				},
			}},
			{Update: &types.Update{
				TableName:                aws.String(r.countersTable),
				Key:                      strKey(fieldScope, creatorScope(req.CreatorID)),
				UpdateExpression:         aws.String("ADD #n :one"),
				ExpressionAttributeNames: map[string]string{"#n": fieldPublishedCount},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":one": numVal(1),
				},
			}},
			{Update: platform},
		},
	})
	if err == nil {
		return nil
	}

	switch classifyPublishFailure(err) {
	case publishFailEvent:
		return fmt.Errorf("event %s is not a draft owned by caller: %w", req.EventID, domain.ErrConflict)
	case publishFailQuota:
		count, cerr := r.CountPublished(ctx)
		if cerr != nil {
			count = req.PlatformQuota
		}
		return &domain.QuotaExceededError{PublishedCount: count, Quota: req.PlatformQuota}
	default:
		return fmt.Errorf("publish event %s: %w", req.EventID, err)
	}
}

type publishFailure int

const (
	publishFailOther publishFailure = iota
	publishFailEvent
	publishFailQuota
)

func classifyPublishFailure(err error) publishFailure {
	codes := cancellationCodes(err)
	if len(codes) == 3 {
		if codes[0] == reasonConditionalCheckFailed {
			return publishFailEvent
		}
		if codes[2] == reasonConditionalCheckFailed {
			return publishFailQuota
		}
	}
	return publishFailOther
}
