package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/beatbookings/publish-api/internal/domain"
)

// EventPublishedType is the message type attribute on publish notifications.
const EventPublishedType = "event.published"

// Publisher fans out event lifecycle notifications over an SNS topic.
// Downstream consumers (notification lists, search indexing) subscribe to it.
type Publisher struct {
	client   snsAPI
	topicARN string
}

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewPublisher(awsCfg aws.Config, endpointURL, topicARN string) *Publisher {
	var opts []func(*sns.Options)
	if endpointURL != "" {
		opts = append(opts, func(o *sns.Options) { o.BaseEndpoint = aws.String(endpointURL) })
	}
	return &Publisher{client: sns.NewFromConfig(awsCfg, opts...), topicARN: topicARN}
}

type eventPublishedMessage struct {
	Type        string    `json:"type"`
	EventID     string    `json:"event_id"`
	CreatorID   string    `json:"creator_id"`
	CreatorRole string    `json:"creator_role"`
	Via         string    `json:"via"`
	At          time.Time `json:"at"`
}

// EventPublished announces that e went live via the given path.
func (p *Publisher) EventPublished(ctx context.Context, e *domain.Event, via string) error {
	body, err := json.Marshal(eventPublishedMessage{
		Type:        EventPublishedType,
		EventID:     e.EventID,
		CreatorID:   e.CreatorID,
		CreatorRole: e.CreatorRole,
		Via:         via,
		At:          time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(EventPublishedType)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", e.EventID, err)
	}
	return nil
}
