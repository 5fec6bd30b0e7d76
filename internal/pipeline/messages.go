package pipeline

import (
	"context"
	"time"
)

// RawMessage is an unprocessed bundle message from the source topic. Value
// holds the JSON-encoded CSS event bundle produced by the database exporter.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputMessage is a serialized QuakeML document destined for the sink topic.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
