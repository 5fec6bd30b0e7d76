package convert

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConverter(cfg Config) *Converter {
	if cfg.Agency == "" {
		cfg.Agency = "XX"
	}
	if cfg.AuthorityID == "" {
		cfg.AuthorityID = "local.test"
	}
	if cfg.AutomaticAuthors == nil {
		cfg.AutomaticAuthors = []string{"orbassoc", "oa_"}
	}
	if cfg.PreferredMagTypes == nil {
		cfg.PreferredMagTypes = []string{"mw", "ml", "mb", "ms"}
	}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg)
}

func TestEventType(t *testing.T) {
	c := testConverter(Config{})

	tests := []struct {
		etype string
		want  string
	}{
		{"eq", "earthquake"},
		{"qb", "quarry blast"},
		{"ex", "explosion"},
		{"me", "meteorite"},
		{"o", "other event"},
		{"l", "earthquake"},
		{"r", "earthquake"},
		{"t", "earthquake"},
		{"f", "earthquake"},
		{"zz", "not reported"},
		{"", "not reported"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.EventType(tt.etype), "etype %q", tt.etype)
	}
}

func TestEventTypeOverride(t *testing.T) {
	c := testConverter(Config{ETypeMap: map[string]string{
		"ex": "chemical explosion",
		"sn": "sonic boom",
	}})

	assert.Equal(t, "chemical explosion", c.EventType("ex"), "config overrides the default")
	assert.Equal(t, "sonic boom", c.EventType("sn"), "config extends the default")
	assert.Equal(t, "earthquake", c.EventType("eq"), "untouched defaults survive")
}

func TestEvaluation(t *testing.T) {
	c := testConverter(Config{})

	tests := []struct {
		author     string
		wantMode   string
		wantStatus string
	}{
		{"", "automatic", "preliminary"},
		{"orbassoc", "automatic", "preliminary"},
		{"oa_nevada", "automatic", "preliminary"},
		{"PIPE:orbassoc", "automatic", "preliminary"},
		{"BRTT:tom", "manual", "reviewed"},
		{"analyst", "manual", "reviewed"},
	}
	for _, tt := range tests {
		mode, status := c.evaluation(tt.author)
		assert.Equal(t, tt.wantMode, mode, "author %q", tt.author)
		assert.Equal(t, tt.wantStatus, status, "author %q", tt.author)
	}
}

func TestEvaluationNoAutomaticAuthors(t *testing.T) {
	c := testConverter(Config{AutomaticAuthors: []string{}})

	mode, status := c.evaluation("")
	assert.Equal(t, "automatic", mode, "empty author is automatic even with no configured list")
	assert.Equal(t, "preliminary", status)

	mode, status = c.evaluation("orbassoc")
	assert.Equal(t, "manual", mode)
	assert.Equal(t, "reviewed", status)
}

func TestDefaultNet(t *testing.T) {
	assert.Equal(t, "XX", testConverter(Config{}).defaultNet())
	assert.Equal(t, "NE", testConverter(Config{Agency: "nevada"}).defaultNet())
}
