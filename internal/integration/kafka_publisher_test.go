//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/field-risk-service/internal/config"
	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/monitor"
	"github.com/couchcryptid/field-risk-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testAssessmentTopic = "test-field-risk-assessments"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("field-risk-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(c) })

	brokers, err := c.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type fixedProvider struct {
	payload domain.RawPayload
}

func (p fixedProvider) FetchForecast(_ context.Context, _ domain.Coordinates) (domain.RawPayload, error) {
	return p.payload, nil
}

type publishedAssessment struct {
	Assessment domain.Assessment
	Key        string
	Headers    map[string]string
}

func readAssessment(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedAssessment {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from assessment topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.Assessment
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal assessment")

	return publishedAssessment{Assessment: a, Key: string(msg.Key), Headers: headers}
}

// TestMonitorPublishesAssessments drives the Monitor against a real broker:
// one refresh and one input change must each produce an assessment.
func TestMonitorPublishesAssessments(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAssessmentTopic)

	cfg := &config.Config{
		KafkaBrokers:         []string{broker},
		KafkaAssessmentTopic: testAssessmentTopic,
	}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	provider := fixedProvider{payload: domain.RawPayload{
		Current: &domain.RawCurrent{Temperature: 0.5, Windspeed: 45},
		Hourly: &domain.RawHourly{
			Precipitation: json.RawMessage(`[0.2, 3.0, 1.0]`),
			Snowfall:      json.RawMessage(`[0, 6.0]`),
		},
	}}
	metrics := observability.NewMetricsForTesting()
	m := monitor.New(provider, nil,
		monitor.WithLocation(domain.Location{Name: "Stavanger", Coordinates: domain.Coordinates{Lat: 58.97, Lon: 5.73}}),
		monitor.WithPublisher(publisher),
		monitor.WithMetrics(metrics),
		monitor.WithLogger(discardLogger()),
	)

	require.NoError(t, m.Refresh(ctx))
	m.SetInputs(ctx, domain.UserInputs{Ground: domain.GroundUnstable, Terrain: domain.TerrainHilly, Severity: domain.SeverityHigh})

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAssessmentTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readAssessment(ctx, t, consumer)
	second := readAssessment(ctx, t, consumer)

	assert.Equal(t, "Stavanger", first.Key)
	assert.Equal(t, 12, first.Assessment.Result.Score)
	assert.Equal(t, "NOT_RECOMMENDED", first.Headers["risk_level"])
	_, err := time.Parse(time.RFC3339, first.Headers["assessed_at"])
	assert.NoError(t, err, "assessed_at should be valid RFC3339")

	// Scenario: 0.5°C, 45 km/h, 3 mm rain, 6 cm snow, unstable hilly ground, high severity.
	assert.Equal(t, 19, second.Assessment.Result.Score)
	assert.Equal(t, domain.LevelNotRecommended, second.Assessment.Result.Level)
	assert.Equal(t, "19", second.Headers["risk_score"])
	assert.Equal(t, second.Assessment.ID, second.Headers["assessment_id"])
	assert.NotEqual(t, first.Assessment.ID, second.Assessment.ID)
	assert.Equal(t, "North Sea Basin", second.Assessment.Basin)
	assert.Equal(t, domain.ReasonHighWind+" + "+domain.ReasonPrecipitation, second.Assessment.Summary)
}
