package dispatch

import (
	"context"
	"strings"

	"github.com/orgraph/dispatch/internal/mutator"
	"github.com/orgraph/dispatch/internal/rdf"
	"github.com/orgraph/dispatch/internal/resolver"
	"github.com/orgraph/dispatch/internal/sparql"
)

// Store is the slice of the backing store the dispatcher queries. Mutation
// goes through the Mutator, never directly.
type Store interface {
	SubjectFacts(ctx context.Context, subject, graph string) ([]rdf.Fact, error)
	TypesOf(ctx context.Context, subject, graph string) ([]string, error)
	GraphsContaining(ctx context.Context, f rdf.Fact) ([]string, error)
}

// Mutator applies fact sets to the store with batching and backoff.
type Mutator interface {
	Apply(ctx context.Context, mode mutator.Mode, graph string, facts []rdf.Fact) error
}

// Graphs names the staging graphs and the partition prefix.
type Graphs struct {
	OrgPrefix      string
	InsertsStaging string
	DeletesStaging string
}

// IsPartition reports whether a graph IRI names a partition graph.
func (g Graphs) IsPartition(graph string) bool {
	return strings.HasPrefix(graph, g.OrgPrefix) &&
		graph != g.InsertsStaging && graph != g.DeletesStaging
}

// Dispatcher makes placement decisions for staged inserts and reconciles
// staged deletes. It holds no mutable state; serialization against
// concurrent pipelines is the caller's responsibility.
type Dispatcher struct {
	store Store
	mut   Mutator
	res   resolver.OwnershipResolver
	table resolver.Table
	g     Graphs
}

// New wires a dispatcher from its collaborators.
func New(store Store, mut Mutator, res resolver.OwnershipResolver, table resolver.Table, g Graphs) *Dispatcher {
	return &Dispatcher{store: store, mut: mut, res: res, table: table, g: g}
}

var _ Store = (*sparql.Store)(nil)
