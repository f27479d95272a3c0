package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/beatbookings/publish-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestEventPublished_SendsMessage(t *testing.T) {
	api := &mockSNS{}
	var got *sns.PublishInput
	api.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(*sns.PublishInput)
	}).Return(&sns.PublishOutput{}, nil)

	p := &Publisher{client: api, topicARN: "arn:aws:sns:ap-southeast-2:1:events"}
	err := p.EventPublished(context.Background(), &domain.Event{EventID: "e1", CreatorID: "u1", CreatorRole: "planner"}, domain.PublishedViaPayment)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "arn:aws:sns:ap-southeast-2:1:events", *got.TopicArn)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*got.Message), &msg))
	assert.Equal(t, EventPublishedType, msg["type"])
	assert.Equal(t, "e1", msg["event_id"])
	assert.Equal(t, "payment", msg["via"])
}

func TestEventPublished_WrapsError(t *testing.T) {
	api := &mockSNS{}
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	p := &Publisher{client: api, topicARN: "arn"}
	err := p.EventPublished(context.Background(), &domain.Event{EventID: "e1"}, domain.PublishedViaFree)
	assert.ErrorContains(t, err, "sns publish e1")
}
