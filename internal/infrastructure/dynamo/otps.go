package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/beatbookings/publish-api/internal/domain"
)

// OTPRepo manages one-time login codes. PK: email.
// Every write after issuance is conditioned on the code_hash the caller read,
// so a re-issued code is never touched by work done against the previous one.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// Put unconditionally replaces any live code for c.Email.
func (r *OTPRepo) Put(ctx context.Context, c *domain.OneTimeCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal one-time code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Get(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("one-time code not found: %w", domain.ErrNotFound)
	}
	var c domain.OneTimeCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Consume deletes the code only if it is still the one identified by codeHash
// and has not expired at now. Losing that race returns domain.ErrConflict.
func (r *OTPRepo) Consume(ctx context.Context, email, codeHash string, now time.Time) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldEmail, email),
		ConditionExpression: aws.String("#h = :h AND #x > :now"),
		ExpressionAttributeNames: map[string]string{
			"#h": fieldCodeHash,
			"#x": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h":   strVal(codeHash),
			":now": numVal(now.Unix()),
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("one-time code already consumed or replaced: %w", domain.ErrConflict)
	}
	return err
}

// RecordFailure increments the attempt counter of the code identified by
// codeHash and returns the new count.
func (r *OTPRepo) RecordFailure(ctx context.Context, email, codeHash string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("ADD #a :one"),
		ConditionExpression: aws.String("#h = :h"),
		ExpressionAttributeNames: map[string]string{
			"#a": fieldAttempts,
			"#h": fieldCodeHash,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": numVal(1),
			":h":   strVal(codeHash),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionFailed(err) {
		return 0, fmt.Errorf("one-time code replaced: %w", domain.ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	n, ok := out.Attributes[fieldAttempts].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attempts missing from update result")
	}
	return strconv.Atoi(n.Value)
}

// Delete removes the code identified by codeHash. A code that was already
// removed or replaced is left alone and is not an error.
func (r *OTPRepo) Delete(ctx context.Context, email, codeHash string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		ConditionExpression:       aws.String("#h = :h"),
		ExpressionAttributeNames:  map[string]string{"#h": fieldCodeHash},
		ExpressionAttributeValues: map[string]types.AttributeValue{":h": strVal(codeHash)},
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}
