// Package rid generates QuakeML resource identifiers (publicIDs).
//
// # Identifier Convention
//
// Every identifier produced here has the form
//
//	<schema>:<authority>/<resource-id>[#<local-id>]
//
// where resource-id follows the convention "<relation>/<unique-key>": the
// relation is the CSS3.0 table the entity came from (origin, netmag, stamag,
// arrival, assoc, fplane, mt, event, catalog) and the unique key is either the
// table's integer primary key, a dash-joined compound key, or a UUID standing
// in for a key the source system never supplied. The optional local-id
// fragment addresses a sub-part of the parent entity, e.g. an origin's etype
// comment or a moment tensor nested inside its focal mechanism.
//
// Identifiers are unique by construction whenever <relation>/<unique-key> is
// unique in the source database. The UUID fallback keeps an identifier
// structurally valid when the key is absent, at the cost of referential
// stability across conversion runs.
package rid

import (
	"github.com/google/uuid"
)

// Default namespace parts used when a Generator is zero-configured.
const (
	DefaultSchema    = "smi"
	DefaultAuthority = "local"
)

// SchemaQuakeML is the scheme used for identifiers of converted entities.
// Waveform and earth-model references keep DefaultSchema.
const SchemaQuakeML = "quakeml"

// Generator builds resource identifiers under one authority namespace.
// The zero value is usable and produces "smi:local/..." identifiers.
type Generator struct {
	Schema      string
	AuthorityID string
}

// New creates a Generator. Empty arguments fall back to the defaults.
func New(schema, authorityID string) *Generator {
	if schema == "" {
		schema = DefaultSchema
	}
	if authorityID == "" {
		authorityID = DefaultAuthority
	}
	return &Generator{Schema: schema, AuthorityID: authorityID}
}

// Option overrides parts of a single URI call.
type Option func(*uriParts)

type uriParts struct {
	localID     string
	schema      string
	authorityID string
}

// WithLocalID appends a "#<localID>" fragment to the identifier.
func WithLocalID(localID string) Option {
	return func(p *uriParts) { p.localID = localID }
}

// WithSchema overrides the generator's schema for one call. The waveform
// resource URIs keep the "smi" schema even when the generator is configured
// for "quakeml".
func WithSchema(schema string) Option {
	return func(p *uriParts) { p.schema = schema }
}

// WithAuthority overrides the generator's authority for one call.
func WithAuthority(authorityID string) Option {
	return func(p *uriParts) { p.authorityID = authorityID }
}

// URI returns an identifier for resourceID. An empty resourceID is replaced
// with a random UUID so the result is still structurally valid; such
// identifiers are unique but not traceable back to a source row.
// For non-empty resourceIDs the function is pure: equal inputs yield equal
// identifiers.
func (g *Generator) URI(resourceID string, opts ...Option) string {
	parts := uriParts{schema: g.Schema, authorityID: g.AuthorityID}
	for _, opt := range opts {
		opt(&parts)
	}
	if resourceID == "" {
		resourceID = uuid.NewString()
	}
	if parts.schema == "" {
		parts.schema = DefaultSchema
	}
	if parts.authorityID == "" {
		parts.authorityID = DefaultAuthority
	}
	id := parts.schema + ":" + parts.authorityID + "/" + resourceID
	if parts.localID != "" {
		id += "#" + parts.localID
	}
	return id
}
