package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakecat/css2quakeml/internal/convert"
	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/observability"
	"github.com/quakecat/css2quakeml/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]pipeline.RawMessage
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]pipeline.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.batches) == 0 {
		// Block like a quiet topic until the context is cancelled.
		m.mu.Unlock()
		<-ctx.Done()
		m.mu.Lock()
		return nil, ctx.Err()
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

type mockTransformer struct {
	failKeys map[string]bool
}

func (m *mockTransformer) Transform(_ context.Context, raw pipeline.RawMessage) (pipeline.OutputMessage, error) {
	if m.failKeys[string(raw.Key)] {
		return pipeline.OutputMessage{}, errors.New("bad bundle")
	}
	return pipeline.OutputMessage{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []pipeline.OutputMessage
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, msgs []pipeline.OutputMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, msgs...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawMsg(key string) pipeline.RawMessage {
	return pipeline.RawMessage{Key: []byte(key), Value: []byte(key + "-payload")}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]pipeline.RawMessage{
		{rawMsg("a"), rawMsg("b")},
	}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 2, ldr.count())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{},
		discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
}

func TestPipeline_Run_PoisonMessageSkipped(t *testing.T) {
	var committed []string
	var mu sync.Mutex
	commit := func(key string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			committed = append(committed, key)
			return nil
		}
	}

	bad := rawMsg("bad")
	bad.Commit = commit("bad")
	good := rawMsg("good")
	good.Commit = commit("good")

	ext := &mockExtractor{batches: [][]pipeline.RawMessage{{bad, good}}}
	tfm := &mockTransformer{failKeys: map[string]bool{"bad": true}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Equal(t, 1, ldr.count())
	assert.Equal(t, []byte("good"), ldr.loaded[0].Key)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"bad", "good"}, committed,
		"poison offsets commit too so the partition advances")
}

func TestPipeline_Run_AllPoison(t *testing.T) {
	ext := &mockExtractor{batches: [][]pipeline.RawMessage{{rawMsg("bad")}}}
	tfm := &mockTransformer{failKeys: map[string]bool{"bad": true}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, ldr.count())
	assert.Error(t, p.CheckReadiness(context.Background()),
		"a pipeline that only skipped messages is not ready")
}

func TestPipeline_CheckReadiness(t *testing.T) {
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, &mockLoader{},
		discardLogger(), observability.NewMetricsForTesting(), 50)

	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not processed")
}

func TestQuakeMLTransformer_Transform(t *testing.T) {
	bundle := css.EventBundle{
		Event: css.MapRecord{"evid": 123456, "prefor": 1371545},
		Origins: []css.MapRecord{{
			"orid":  1371545,
			"evid":  123456,
			"lat":   41.8772,
			"lon":   -119.5783,
			"depth": 10.0205,
			"time":  1451397826.19485,
			"etype": "eq",
		}},
		NetMags: []css.MapRecord{{
			"magid":     296149,
			"orid":      1371545,
			"magtype":   "ml",
			"magnitude": 1.84,
		}},
	}
	payload, err := json.Marshal(bundle)
	require.NoError(t, err)

	converter := convert.New(convert.Config{
		Agency:            "XX",
		AuthorityID:       "local.test",
		PreferredMagTypes: []string{"mw", "ml"},
		Logger:            discardLogger(),
	})
	tfm := pipeline.NewTransformer(converter,
		convert.Options{Origin: true, Magnitude: true},
		observability.NewMetricsForTesting(), discardLogger())

	out, err := tfm.Transform(context.Background(), pipeline.RawMessage{Value: payload})
	require.NoError(t, err)

	assert.Equal(t, []byte("123456"), out.Key)
	assert.Equal(t, "application/xml", out.Headers["content_type"])
	assert.Equal(t, "quakeml:local.test/event/123456", out.Headers["event_public_id"])
	assert.Equal(t, "earthquake", out.Headers["event_type"])

	xml := string(out.Value)
	assert.True(t, strings.HasPrefix(xml, "<?xml"))
	assert.Contains(t, xml, `publicID="quakeml:local.test/origin/1371545"`)
	assert.Contains(t, xml, "<mag><value>1.8</value></mag>", "magnitudes round to one decimal")
	assert.Contains(t, xml, "<depth><value>10000</value></depth>", "depth rounds to 100 m")
}

func TestQuakeMLTransformer_TransformErrors(t *testing.T) {
	converter := convert.New(convert.Config{Agency: "XX", Logger: discardLogger()})
	tfm := pipeline.NewTransformer(converter, convert.Options{Origin: true},
		observability.NewMetricsForTesting(), discardLogger())

	_, err := tfm.Transform(context.Background(), pipeline.RawMessage{Value: []byte("not-json{{{")})
	assert.ErrorContains(t, err, "decode bundle")

	_, err = tfm.Transform(context.Background(), pipeline.RawMessage{Value: []byte("{}")})
	assert.ErrorIs(t, err, convert.ErrInvalidArgument)
}
