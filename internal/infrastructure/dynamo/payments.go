package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/beatbookings/publish-api/internal/domain"
)

// PaymentRepo manages pending payment audit rows.
// PK: checkout_session_id, GSI: event_id.
type PaymentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPaymentRepo(client *dynamodb.Client, tableName string) *PaymentRepo {
	return &PaymentRepo{client: client, tableName: tableName}
}

func (r *PaymentRepo) Put(ctx context.Context, p *domain.PendingPayment) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pending payment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PaymentRepo) Get(ctx context.Context, checkoutSessionID string) (*domain.PendingPayment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldCheckoutSession, checkoutSessionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending payment not found: %w", domain.ErrNotFound)
	}
	var p domain.PendingPayment
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.PendingPayment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEventID),
		KeyConditionExpression:    aws.String("#e = :e"),
		ExpressionAttributeNames:  map[string]string{"#e": fieldEventID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": strVal(eventID)},
	})
	if err != nil {
		return nil, err
	}
	payments := []domain.PendingPayment{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// Resolve moves a pending payment to status. Rows that are missing or no
// longer pending are left alone and reported as domain.ErrConflict.
func (r *PaymentRepo) Resolve(ctx context.Context, checkoutSessionID, status string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldCheckoutSession, checkoutSessionID),
		UpdateExpression:    aws.String("SET #s = :to, #u = :now"),
		ConditionExpression: aws.String("#s = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
			"#u": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":      strVal(status),
			":pending": strVal(domain.PaymentStatusPending),
			":now":     strVal(time.Now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("payment %s not pending: %w", checkoutSessionID, domain.ErrConflict)
	}
	return err
}
