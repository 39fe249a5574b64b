package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/blood-donation-forecast/internal/config"
	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testBatch() domain.ForecastBatch {
	day := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	return domain.ForecastBatch{
		RunID:       "3f9a",
		GeneratedAt: time.Date(2025, 4, 9, 12, 30, 0, 0, time.UTC),
		Points: []domain.ForecastPoint{
			{Date: day, PredictedDonations: 41.5},
			{Date: day.AddDate(0, 0, 1), PredictedDonations: 0},
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	batch := testBatch()
	msg, err := serializeToMessage(batch, batch.Points[0])
	require.NoError(t, err)

	assert.Equal(t, []byte("2025-04-10"), msg.Key)
	assert.JSONEq(t, `{"run_id":"3f9a","generated_at":"2025-04-09T12:30:00Z","date":"2025-04-10","predicted_donations":41.5}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("3f9a"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-04-09T12:30:00Z"), msg.Headers[1].Value)
}

func TestLoadForecast(t *testing.T) {
	fake := &fakeWriter{}
	w := &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.LoadForecast(context.Background(), testBatch()))
	require.Len(t, fake.msgs, 2)
	assert.Equal(t, []byte("2025-04-11"), fake.msgs[1].Key)

	var value map[string]any
	require.NoError(t, json.Unmarshal(fake.msgs[1].Value, &value))
	assert.Equal(t, 0.0, value["predicted_donations"])

	t.Run("empty batch is a no-op", func(t *testing.T) {
		fake := &fakeWriter{err: errors.New("unreachable")}
		w := &Writer{writer: fake, logger: slog.Default()}
		assert.NoError(t, w.LoadForecast(context.Background(), domain.ForecastBatch{}))
	})

	t.Run("write error is wrapped", func(t *testing.T) {
		fake := &fakeWriter{err: errors.New("leader not available")}
		w := &Writer{writer: fake, logger: slog.Default()}
		err := w.LoadForecast(context.Background(), testBatch())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write forecast messages")
	})

	require.NoError(t, w.Close())
	assert.True(t, fake.closed)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaForecastTopic: "donation-forecasts"}, slog.Default())
	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "donation-forecasts", kw.Topic)
	require.NoError(t, w.Close())
}
