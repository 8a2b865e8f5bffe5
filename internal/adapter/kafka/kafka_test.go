package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/config"
	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	a := domain.Assessment{
		ID:       "3f0c8a51-9f3e-4c43-8d0b-2f4a7a9f0b11",
		Location: domain.Location{Name: "Stavanger", Coordinates: domain.Coordinates{Lat: 58.97, Lon: 5.73}},
		Observation: domain.Observation{
			TemperatureC: -2,
			WindSpeedKph: 10,
			MaxRainMm:    domain.Float64(0),
			FetchedAt:    now,
		},
		Inputs:     domain.UserInputs{Ground: domain.GroundWet},
		Result:     domain.RiskResult{Score: 4, Level: domain.LevelNotRecommended, Reasons: []string{domain.ReasonFreezing, domain.ReasonWetSurface}},
		Summary:    domain.ReasonFreezing + " + " + domain.ReasonWetSurface,
		Basin:      "North Sea Basin",
		AssessedAt: now,
	}

	msg, err := serializeToMessage(a)
	require.NoError(t, err)

	assert.Equal(t, []byte("Stavanger"), msg.Key)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "assessment_id", msg.Headers[0].Key)
	assert.Equal(t, []byte(a.ID), msg.Headers[0].Value)
	assert.Equal(t, "risk_level", msg.Headers[1].Key)
	assert.Equal(t, []byte("NOT_RECOMMENDED"), msg.Headers[1].Value)
	assert.Equal(t, []byte("4"), msg.Headers[2].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[3].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "North Sea Basin", decoded["basin"])

	inputs := decoded["inputs"].(map[string]any)
	assert.Equal(t, "wet", inputs["ground"])
	assert.Equal(t, "flat", inputs["terrain"])

	result := decoded["result"].(map[string]any)
	assert.Equal(t, "NOT_RECOMMENDED", result["level"])

	obs := decoded["observation"].(map[string]any)
	assert.Nil(t, obs["max_snow_cm"], "missing series serializes as null")
}

func TestNewPublisher_UsesConfiguredTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaAssessmentTopic: "field-risk-assessments"}

	p := NewPublisher(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer p.Close()

	assert.Equal(t, "field-risk-assessments", p.writer.Topic)
	assert.Equal(t, "localhost:9092", p.writer.Addr.String())
}
