package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/quakecat/css2quakeml/internal/config"
	"github.com/quakecat/css2quakeml/internal/pipeline"
)

// Writer produces QuakeML documents to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the documents in a single WriteMessages call so the
// broker round trip is paid once per batch.
func (w *Writer) LoadBatch(ctx context.Context, msgs []pipeline.OutputMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	kmsgs := make([]kafkago.Message, len(msgs))
	for i, m := range msgs {
		headers := make([]kafkago.Header, 0, len(m.Headers))
		for k, v := range m.Headers {
			headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
		kmsgs[i] = kafkago.Message{
			Key:     m.Key,
			Value:   m.Value,
			Headers: headers,
		}
	}
	return w.writer.WriteMessages(ctx, kmsgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
