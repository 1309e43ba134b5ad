package sparql

import (
	"context"
	"fmt"

	"github.com/orgraph/dispatch/internal/rdf"
)

// RDFType is the rdf:type predicate.
const RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// SubjectType pairs a staged subject with one of its declared types.
type SubjectType struct {
	Subject string
	Type    string
}

// Store wraps a protocol client with the pattern-match and bulk-mutation
// operations the dispatch core needs. All operations are graph-scoped except
// ownership-path resolution, which searches the union of graphs: a subject's
// ownership chain may already live partly outside staging.
type Store struct {
	client Client
}

// NewStore wraps a protocol client.
func NewStore(client Client) *Store {
	return &Store{client: client}
}

// Ping checks store reachability with a trivial ASK.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Ask(ctx, "ASK { ?s ?p ?o }"); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}

func boundToTerm(b BoundTerm) rdf.Term {
	switch b.Type {
	case "uri":
		return rdf.IRI(b.Value)
	default:
		if b.Lang != "" {
			return rdf.LangLiteral(b.Value, b.Lang)
		}
		return rdf.Literal(b.Value, b.Datatype)
	}
}

// SubjectFacts fetches every fact for subject within graph.
func (s *Store) SubjectFacts(ctx context.Context, subject, graph string) ([]rdf.Fact, error) {
	q := fmt.Sprintf(`SELECT ?p ?o WHERE { GRAPH %s { %s ?p ?o } }`,
		FormatIRI(graph), FormatIRI(subject))
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("subject facts for %s: %w", subject, err)
	}
	facts := make([]rdf.Fact, 0, len(rows))
	for _, row := range rows {
		p, ok := row["p"]
		if !ok {
			continue
		}
		o, ok := row["o"]
		if !ok {
			continue
		}
		facts = append(facts, rdf.Fact{
			Subject:   subject,
			Predicate: p.Value,
			Object:    boundToTerm(o),
			Graph:     graph,
		})
	}
	return facts, nil
}

// TypesOf returns the declared rdf:type IRIs of subject within graph.
func (s *Store) TypesOf(ctx context.Context, subject, graph string) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT ?type WHERE { GRAPH %s { %s %s ?type } }`,
		FormatIRI(graph), FormatIRI(subject), FormatIRI(RDFType))
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("types of %s: %w", subject, err)
	}
	types := make([]string, 0, len(rows))
	for _, row := range rows {
		if t, ok := row["type"]; ok {
			types = append(types, t.Value)
		}
	}
	return types, nil
}

// GraphsContaining returns every graph holding the fact's (s,p,o) triple.
// The object is matched with a forced datatype annotation so typed literals
// hit exactly.
func (s *Store) GraphsContaining(ctx context.Context, f rdf.Fact) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT ?g WHERE { GRAPH ?g { %s %s %s } }`,
		FormatIRI(f.Subject), FormatIRI(f.Predicate), FormatTerm(f.Object, true))
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("graphs containing fact: %w", err)
	}
	graphs := make([]string, 0, len(rows))
	for _, row := range rows {
		if g, ok := row["g"]; ok {
			graphs = append(graphs, g.Value)
		}
	}
	return graphs, nil
}

// StagedSubjects lists every distinct (subject, type) pair present in graph.
// Subjects without an ingested type triple are not returned; they stay
// pending until a later changeset delivers the type.
func (s *Store) StagedSubjects(ctx context.Context, graph string) ([]SubjectType, error) {
	q := fmt.Sprintf(`SELECT DISTINCT ?s ?type WHERE { GRAPH %s { ?s %s ?type } }`,
		FormatIRI(graph), FormatIRI(RDFType))
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("staged subjects in %s: %w", graph, err)
	}
	pairs := make([]SubjectType, 0, len(rows))
	for _, row := range rows {
		subj, ok := row["s"]
		if !ok {
			continue
		}
		typ, ok := row["type"]
		if !ok {
			continue
		}
		pairs = append(pairs, SubjectType{Subject: subj.Value, Type: typ.Value})
	}
	return pairs, nil
}

// StagedFacts lists every fact currently present in graph.
func (s *Store) StagedFacts(ctx context.Context, graph string) ([]rdf.Fact, error) {
	q := fmt.Sprintf(`SELECT ?s ?p ?o WHERE { GRAPH %s { ?s ?p ?o } }`, FormatIRI(graph))
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("staged facts in %s: %w", graph, err)
	}
	facts := make([]rdf.Fact, 0, len(rows))
	for _, row := range rows {
		subj, okS := row["s"]
		pred, okP := row["p"]
		obj, okO := row["o"]
		if !okS || !okP || !okO {
			continue
		}
		facts = append(facts, rdf.Fact{
			Subject:   subj.Value,
			Predicate: pred.Value,
			Object:    boundToTerm(obj),
			Graph:     graph,
		})
	}
	return facts, nil
}

// ResolvePath follows a configured ownership path from subject to owning
// entities and reads their partition tokens via tokenPredicate. The path
// expression is a SPARQL property path fragment supplied by static
// configuration, never derived from request data.
func (s *Store) ResolvePath(ctx context.Context, subject, pathExpression, tokenPredicate string) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT ?token WHERE { %s %s ?owner . ?owner %s ?token }`,
		FormatIRI(subject), pathExpression, FormatIRI(tokenPredicate))
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("resolve path for %s: %w", subject, err)
	}
	tokens := make([]string, 0, len(rows))
	for _, row := range rows {
		if tok, ok := row["token"]; ok {
			tokens = append(tokens, tok.Value)
		}
	}
	return tokens, nil
}

// InsertFacts writes facts into graph with INSERT DATA.
func (s *Store) InsertFacts(ctx context.Context, graph string, facts []rdf.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	u := fmt.Sprintf("INSERT DATA {\n  GRAPH %s {\n%s\n  }\n}", FormatIRI(graph), formatTripleBlock(facts, false))
	if err := s.client.Update(ctx, u); err != nil {
		return fmt.Errorf("insert %d facts into %s: %w", len(facts), graph, err)
	}
	return nil
}

// DeleteFacts removes facts from graph with DELETE DATA. Literal objects are
// rendered with explicit datatype annotations, including the default
// xsd:string, to satisfy the store's exact-match delete semantics.
func (s *Store) DeleteFacts(ctx context.Context, graph string, facts []rdf.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	u := fmt.Sprintf("DELETE DATA {\n  GRAPH %s {\n%s\n  }\n}", FormatIRI(graph), formatTripleBlock(facts, true))
	if err := s.client.Update(ctx, u); err != nil {
		return fmt.Errorf("delete %d facts from %s: %w", len(facts), graph, err)
	}
	return nil
}
