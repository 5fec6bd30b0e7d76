package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quakecat/css2quakeml/internal/convert"
	"github.com/quakecat/css2quakeml/internal/css"
	"github.com/quakecat/css2quakeml/internal/observability"
	"github.com/quakecat/css2quakeml/internal/quakeml"
	"github.com/quakecat/css2quakeml/internal/rid"
	"github.com/quakecat/css2quakeml/internal/xmlenc"
)

// QuakeMLTransformer implements Transformer: it decodes a CSS event bundle,
// assembles the QuakeML event, applies the precision rounding pass and
// serializes a complete document.
type QuakeMLTransformer struct {
	converter *convert.Converter
	opts      convert.Options
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewTransformer creates a QuakeMLTransformer.
func NewTransformer(converter *convert.Converter, opts convert.Options, metrics *observability.Metrics, logger *slog.Logger) *QuakeMLTransformer {
	return &QuakeMLTransformer{
		converter: converter,
		opts:      opts,
		metrics:   metrics,
		logger:    logger,
	}
}

func (t *QuakeMLTransformer) Transform(ctx context.Context, raw RawMessage) (OutputMessage, error) {
	bundle, err := css.DecodeBundle(raw.Value)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("decode bundle: %w", err)
	}

	start := time.Now()
	ev, err := t.converter.ConvertEvent(ctx, bundle, t.opts)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("convert event: %w", err)
	}
	t.metrics.ConvertDuration.Observe(time.Since(start).Seconds())
	t.countEntities(ev)

	doc := t.converter.EventToRoot(ev)
	xmlenc.Round(doc)
	data, err := xmlenc.Encode(doc)
	if err != nil {
		return OutputMessage{}, err
	}

	return OutputMessage{
		Key:   []byte(rid.ExtractID(ev.PublicID)),
		Value: data,
		Headers: map[string]string{
			"content_type":    "application/xml",
			"event_public_id": ev.PublicID,
			"event_type":      ev.Type,
		},
	}, nil
}

func (t *QuakeMLTransformer) countEntities(ev quakeml.Event) {
	add := func(entity string, n int) {
		if n > 0 {
			t.metrics.EntitiesEmitted.WithLabelValues(entity).Add(float64(n))
		}
	}
	add("origin", len(ev.Origins))
	add("magnitude", len(ev.Magnitudes))
	add("stationMagnitude", len(ev.StationMagnitudes))
	add("pick", len(ev.Picks))
	add("focalMechanism", len(ev.FocalMechanisms))
}
