package util

import (
	"context"
	"testing"

	"pepagora/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaProducer_WriterConfig(t *testing.T) {
	producer := NewKafkaProducer([]string{"localhost:9092"}, "catalog_events")
	defer producer.Close()

	assert.Equal(t, "catalog_events", producer.writer.Topic)
	assert.IsType(t, &kafka.Hash{}, producer.writer.Balancer)
	assert.Equal(t, kafka.RequireOne, producer.writer.RequiredAcks)
}

func TestKafkaProducer_PublishMessage_ErrorCounted(t *testing.T) {
	// брокер недоступен, контекст уже отменен: запись должна сразу вернуть ошибку
	producer := NewKafkaProducer([]string{"127.0.0.1:1"}, "catalog_events_test")
	defer producer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := testutil.ToFloat64(metrics.KafkaErrors.WithLabelValues(cacheService, "catalog_events_test", "produce"))

	err := producer.PublishMessage(ctx, "cat-1", []byte(`{"eventType":"CATEGORY_CREATED"}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write message to kafka")
	after := testutil.ToFloat64(metrics.KafkaErrors.WithLabelValues(cacheService, "catalog_events_test", "produce"))
	assert.Equal(t, before+1, after)
}

func TestNoopPublisher(t *testing.T) {
	var publisher MessagePublisher = NoopPublisher{}

	assert.NoError(t, publisher.PublishMessage(context.Background(), "id", nil))
	assert.NoError(t, publisher.Close())
}
