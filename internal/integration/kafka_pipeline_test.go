//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakecat/css2quakeml/internal/adapter/kafka"
	"github.com/quakecat/css2quakeml/internal/config"
	"github.com/quakecat/css2quakeml/internal/convert"
	"github.com/quakecat/css2quakeml/internal/observability"
	"github.com/quakecat/css2quakeml/internal/pipeline"
)

const (
	testSourceTopic = "test-bundles"
	testSinkTopic   = "test-quakeml"
)

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     group,
		BatchSize:        50,
	}
}

func testConverter() *convert.Converter {
	return convert.New(convert.Config{
		Agency:            "XX",
		AuthorityID:       "local.test",
		AutomaticAuthors:  []string{"orbassoc", "oa_"},
		PreferredMagTypes: []string{"mw", "ml", "mb", "ms"},
		Logger:            discardLogger(),
	})
}

func allEntities() convert.Options {
	return convert.Options{
		Origin:           true,
		Magnitude:        true,
		Pick:             true,
		StationMagnitude: true,
		FocalMechanism:   true,
	}
}

// transformedMessage holds a deserialized message read from the sink topic.
type transformedMessage struct {
	XML     string
	Key     string
	Headers map[string]string
}

// readTransformed reads a single message from the sink consumer.
func readTransformed(ctx context.Context, t *testing.T, consumer *kafkago.Reader) transformedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return transformedMessage{
		XML:     string(msg.Value),
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a message through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-reader-%d", time.Now().UnixNano()))

	payload := sampleBundle(t)
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("123456"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []pipeline.RawMessage
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("123456"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Transform the bundle into a QuakeML document.
	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(testConverter(), allEntities(), metrics, discardLogger())
	out, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []pipeline.OutputMessage{out}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	tm := readTransformed(ctx, t, consumer)
	assert.Equal(t, "123456", tm.Key)
	assert.Equal(t, "application/xml", tm.Headers["content_type"])
	assert.Equal(t, "quakeml:local.test/event/123456", tm.Headers["event_public_id"])
	assert.Equal(t, "earthquake", tm.Headers["event_type"])

	assert.True(t, strings.HasPrefix(tm.XML, "<?xml"), "expected XML declaration")
	assert.Contains(t, tm.XML, `publicID="quakeml:local.test/origin/1371545"`)
	assert.Contains(t, tm.XML, `publicID="quakeml:local.test/netmag/296149"`)
	assert.Contains(t, tm.XML, "<preferredOriginID>quakeml:local.test/origin/1371545</preferredOriginID>")
}

// TestPipelineEndToEnd wires the full pipeline (Reader -> Transformer ->
// Writer) with real Kafka and verifies several bundles convert cleanly.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()))

	const bundleCount = 5
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, bundleCount)
	for i := 0; i < bundleCount; i++ {
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("bundle-%d", i)),
			Value: sampleBundle(t),
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(testConverter(), allEntities(), metrics, discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, cfg.BatchSize)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Read all converted documents from the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]transformedMessage, 0, bundleCount)
	for len(received) < bundleCount {
		tm := readTransformed(ctx, t, consumer)
		received = append(received, tm)
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, bundleCount)
	for _, tm := range received {
		assert.Equal(t, "123456", tm.Key)
		assert.Equal(t, "application/xml", tm.Headers["content_type"])
		assert.Contains(t, tm.XML, "<q:quakeml")
		assert.Contains(t, tm.XML, `publicID="quakeml:local.test/event/123456"`)
		assert.Contains(t, tm.XML, "<pick")
		assert.Contains(t, tm.XML, "<stationMagnitude")
	}
}

// TestPipelineTransformError verifies that an invalid message (poison pill)
// is skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-poison-%d", time.Now().UnixNano()))

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	// Publish: invalid JSON, a structurally valid but keyless bundle, then a
	// good bundle.
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("empty"), Value: []byte("{}")},
		kafkago.Message{Key: []byte("good"), Value: sampleBundle(t)},
	))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(testConverter(), allEntities(), metrics, discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, cfg.BatchSize)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid message should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	tm := readTransformed(ctx, t, consumer)
	assert.Equal(t, "123456", tm.Key)
	assert.Contains(t, tm.XML, `publicID="quakeml:local.test/event/123456"`)

	// Verify no second message arrives (the poison pills were skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
