package kafka

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"guardian/internal/platform/config"
)

func TestConstructorsValidate(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{})
	assert.ErrorContains(t, err, "brokers")

	_, err = NewConsumer(config.KafkaConfig{}, ConsumerOptions{Topics: []string{"guardian.audit.security"}})
	assert.ErrorContains(t, err, "brokers")

	_, err = NewConsumer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, ConsumerOptions{})
	assert.ErrorContains(t, err, "topic")
}

func TestHandlerFunc(t *testing.T) {
	var got string
	h := HandlerFunc(func(_ context.Context, msg *Message) error {
		got = msg.Topic
		return ErrStop
	})
	err := h.Handle(context.Background(), &Message{Topic: "guardian.audit.ops"})
	assert.True(t, errors.Is(err, ErrStop))
	assert.Equal(t, "guardian.audit.ops", got)
}

func TestCheckFetchErrors(t *testing.T) {
	var logs bytes.Buffer
	c := &Consumer{logger: slog.New(slog.NewTextHandler(&logs, nil))}
	ctx := context.Background()

	err := c.checkFetchErrors(ctx, []kgo.FetchError{
		{Topic: "guardian.audit.ops", Partition: 0, Err: kerr.UnknownTopicOrPartition},
		{Topic: "guardian.audit.security", Partition: 2, Err: kerr.LeaderNotAvailable},
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "topic=guardian.audit.ops")
	assert.Contains(t, logs.String(), "topic=guardian.audit.security")

	err = c.checkFetchErrors(ctx, []kgo.FetchError{
		{Topic: "guardian.audit.ops", Partition: 0, Err: kerr.UnknownTopicOrPartition},
		{Topic: "guardian.audit.compliance", Partition: 1, Err: kerr.TopicAuthorizationFailed},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, kerr.TopicAuthorizationFailed)
	assert.Contains(t, err.Error(), "guardian.audit.compliance[1]")

	err = c.checkFetchErrors(ctx, []kgo.FetchError{{Topic: "guardian.audit.ops", Err: errors.New("decode batch")}})
	assert.ErrorContains(t, err, "decode batch")
}
