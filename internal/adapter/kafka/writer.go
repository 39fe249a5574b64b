package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/blood-donation-forecast/internal/config"
	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces forecast points to a Kafka topic.
// It implements pipeline.ForecastLoader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured forecast topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaForecastTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// forecastMessage is the JSON value of one published point.
type forecastMessage struct {
	RunID              string    `json:"run_id"`
	GeneratedAt        time.Time `json:"generated_at"`
	Date               string    `json:"date"`
	PredictedDonations float64   `json:"predicted_donations"`
}

// LoadForecast publishes every point of the batch in a single WriteMessages
// call. Points are keyed by date so a topic compacts to the latest forecast
// for each day.
func (w *Writer) LoadForecast(ctx context.Context, batch domain.ForecastBatch) error {
	if len(batch.Points) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(batch.Points))
	for i, p := range batch.Points {
		msg, err := serializeToMessage(batch, p)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write forecast messages: %w", err)
	}
	w.logger.Debug("forecast written", "run_id", batch.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one forecast point into a Kafka message.
func serializeToMessage(batch domain.ForecastBatch, p domain.ForecastPoint) (kafkago.Message, error) {
	date := p.Date.Format(domain.DateLayout)
	data, err := json.Marshal(forecastMessage{
		RunID:              batch.RunID,
		GeneratedAt:        batch.GeneratedAt.UTC(),
		Date:               date,
		PredictedDonations: p.PredictedDonations,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast point %s: %w", date, err)
	}
	return kafkago.Message{
		Key:   []byte(date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(batch.RunID)},
			{Key: "generated_at", Value: []byte(batch.GeneratedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
