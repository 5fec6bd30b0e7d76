//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/quakecat/css2quakeml/internal/css"
)

// startKafka launches a single-node Kafka container and returns its broker
// address. The container is torn down with the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleBundle is one pre-joined event: a located origin with an error
// ellipse, a network ml with one station magnitude, and one associated
// arrival. Values follow a typical western Nevada regional solution.
func sampleBundle(t *testing.T) []byte {
	t.Helper()

	bundle := css.EventBundle{
		Event: css.MapRecord{
			"evid":   123456,
			"evname": "-",
			"prefor": 1371545,
			"auth":   "local:user",
			"lddate": 1451398000.0,
		},
		Origins: []css.MapRecord{{
			"orid":   1371545,
			"evid":   123456,
			"lat":    41.8772,
			"lon":    -119.5783,
			"depth":  10.0205,
			"time":   1451397826.19485,
			"auth":   "BRTT:tom",
			"etype":  "eq",
			"nass":   12,
			"ndef":   9,
			"review": "y",
			"lddate": 1451398000.0,
			"smajax": 2.1,
			"sminax": 1.4,
			"strike": 30.0,
			"sdepth": 1.9,
			"stime":  0.42,
			"sdobs":  0.31,
			"conf":   0.9,
		}},
		NetMags: []css.MapRecord{{
			"magid":     296149,
			"orid":      1371545,
			"evid":      123456,
			"magtype":   "ml",
			"magnitude": 1.84,
			"nsta":      5,
			"auth":      "local:user",
			"lddate":    1451398000.0,
		}},
		StaMags: []css.MapRecord{{
			"magid":     296149,
			"orid":      1371545,
			"sta":       "LKVW",
			"chan":      "HHZ",
			"magtype":   "ml",
			"magnitude": 1.7,
			"auth":      "local:user",
			"lddate":    1451398000.0,
		}},
		Phases: []css.MapRecord{{
			"arid":           7001364,
			"orid":           1371545,
			"sta":            "LKVW",
			"chan":           "HHZ",
			"iphase":         "P",
			"phase":          "P",
			"time":           1451397830.112,
			"deltim":         0.05,
			"delta":          0.21,
			"esaz":           145.2,
			"timedef":        "d",
			"qual":           "i",
			"fm":             "cu",
			"auth":           "orbassoc",
			"arrival.auth":   "orbassoc",
			"arrival.lddate": 1451398000.0,
			"lddate":         1451398000.0,
		}},
	}

	data, err := json.Marshal(bundle)
	require.NoError(t, err)
	return data
}
