// Package convert maps CSS3.0 relational records onto QuakeML entities.
//
// Each mapper is a pure function over one joined database row: it reads the
// legacy columns it knows about, degrades missing fields to absent QuakeML
// elements, and never fails on data content. Hard errors are reserved for
// contract violations at the assembly layer (see ConvertEvent). Resource
// identifiers follow the "table/key" convention so every QuakeML publicID
// can be traced back to the row that produced it.
package convert

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quakecat/css2quakeml/internal/rid"
)

// defaultETypeMap translates CSS3.0 origin etype flags to QuakeML event
// types. Config entries are merged over these defaults.
var defaultETypeMap = map[string]string{
	"qb": "quarry blast",
	"eq": "earthquake",
	"me": "meteorite",
	"ex": "explosion",
	"o":  "other event",
	"l":  "earthquake",
	"r":  "earthquake",
	"t":  "earthquake",
	"f":  "earthquake",
}

// timedefWeight supplies a default arrival time weight from the CSS timedef
// flag when the assoc row carries none.
var timedefWeight = map[string]float64{
	"d": 1.0,
	"n": 0.0,
}

// NearestPlacer resolves event coordinates to a human-readable locality
// line, e.g. "12.3 km NNW of Fernley, NV". Lookups are best effort; a
// failure only costs the event its description.
type NearestPlacer interface {
	NearestPlace(ctx context.Context, lon, lat float64) (string, error)
}

// Config carries the immutable conversion settings. It is read once at
// construction and never mutated afterwards.
type Config struct {
	// Agency is the short agency identifier, usually a network code.
	Agency string
	// AuthorityID namespaces generated resource identifiers.
	AuthorityID string
	// Schema is the identifier scheme, normally "quakeml".
	Schema string
	// ETypeMap adds or overrides etype translations on top of the defaults.
	ETypeMap map[string]string
	// AutomaticAuthors lists author substrings classified as automatic.
	AutomaticAuthors []string
	// PreferredMagTypes ranks magnitude types for preferred-ID selection.
	PreferredMagTypes []string
	// DOI, when set, is serialized as an smi: agencyURI on the catalog.
	DOI string
	// NearestPlacer is optional; nil disables event descriptions.
	NearestPlacer NearestPlacer
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Converter turns CSS3.0 records into QuakeML entities.
type Converter struct {
	agency    string
	rid       *rid.Generator
	etypes    map[string]string
	automatic []string
	prefMags  []string
	doi       string
	placer    NearestPlacer
	logger    *slog.Logger
}

// New builds a Converter from config, filling in defaults for the schema,
// authority and etype map.
func New(cfg Config) *Converter {
	schema := cfg.Schema
	if schema == "" {
		schema = rid.SchemaQuakeML
	}
	authority := cfg.AuthorityID
	if authority == "" {
		authority = rid.DefaultAuthority
	}

	etypes := make(map[string]string, len(defaultETypeMap)+len(cfg.ETypeMap))
	for k, v := range defaultETypeMap {
		etypes[k] = v
	}
	for k, v := range cfg.ETypeMap {
		etypes[k] = v
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Converter{
		agency:    cfg.Agency,
		rid:       rid.New(schema, authority),
		etypes:    etypes,
		automatic: cfg.AutomaticAuthors,
		prefMags:  cfg.PreferredMagTypes,
		doi:       cfg.DOI,
		placer:    cfg.NearestPlacer,
		logger:    logger,
	}
}

// EventType maps a CSS etype flag to a QuakeML event type, falling back to
// "not reported" for unknown flags.
func (c *Converter) EventType(etype string) string {
	if t, ok := c.etypes[etype]; ok {
		return t
	}
	return "not reported"
}

// evaluation classifies a posted author string into an evaluation
// (mode, status) pair. An empty author or one containing any configured
// automatic-author substring is automatic/preliminary, everything else
// manual/reviewed. Total over all inputs.
func (c *Converter) evaluation(author string) (mode, status string) {
	if author == "" {
		return "automatic", "preliminary"
	}
	for _, auto := range c.automatic {
		if strings.Contains(author, auto) {
			return "automatic", "preliminary"
		}
	}
	return "manual", "reviewed"
}

// defaultNet derives a network code from the agency id for waveform
// references lacking a station-network join.
func (c *Converter) defaultNet() string {
	net := c.agency
	if len(net) > 2 {
		net = net[:2]
	}
	return strings.ToUpper(net)
}
