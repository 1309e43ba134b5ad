// Package resolver maps a subject of a given type to its candidate
// partition graphs by following declaratively configured ownership paths.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// PathConfig is one declarative ownership path: a SPARQL property-path
// fragment from a subject of Type to the partition-owning entity. Several
// entries may share a type; all matching paths are tried and their results
// unioned.
type PathConfig struct {
	Type                  string `json:"type"`
	PathExpression        string `json:"pathExpression"`
	AllowedInMultipleOrgs bool   `json:"allowedInMultipleOrgs"`
}

// Table is the full ownership-path configuration.
type Table []PathConfig

// LoadTable reads a path table from a JSON file.
func LoadTable(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ownership paths: %w", err)
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse ownership paths: %w", err)
	}
	for i, pc := range t {
		if pc.Type == "" || pc.PathExpression == "" {
			return nil, fmt.Errorf("ownership path %d: type and pathExpression are required", i)
		}
	}
	return t, nil
}

// ForType returns every configured path for a type.
func (t Table) ForType(typ string) []PathConfig {
	var out []PathConfig
	for _, pc := range t {
		if pc.Type == typ {
			out = append(out, pc)
		}
	}
	return out
}

// AllowsMultiple reports whether a type may be placed in more than one
// partition. It holds only if every configured path for the type allows it;
// a single forbidding path makes multi-candidate placement ambiguous.
func (t Table) AllowsMultiple(typ string) bool {
	paths := t.ForType(typ)
	if len(paths) == 0 {
		return false
	}
	for _, pc := range paths {
		if !pc.AllowedInMultipleOrgs {
			return false
		}
	}
	return true
}

// PartitionSet is a deduplicated set of partition graph IRIs.
type PartitionSet map[string]struct{}

// Add inserts a partition identifier.
func (s PartitionSet) Add(id string) {
	s[id] = struct{}{}
}

// Sorted returns the members in lexical order for deterministic iteration
// and logging.
func (s PartitionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// OwnershipResolver is the closed contract the dispatcher consumes. An empty
// set is the normal "not yet resolvable" outcome; an error means the query
// channel itself failed and the operation is retryable.
type OwnershipResolver interface {
	Resolve(ctx context.Context, subject, typ string) (PartitionSet, error)
}

// PathStore is the slice of the backing store the resolver needs.
type PathStore interface {
	ResolvePath(ctx context.Context, subject, pathExpression, tokenPredicate string) ([]string, error)
}

// StoreResolver resolves ownership against the backing store using a path
// table.
type StoreResolver struct {
	store          PathStore
	table          Table
	orgPrefix      string
	tokenPredicate string
}

// New creates a store-backed resolver. Partition identifiers are formed by
// concatenating orgPrefix with the token read via tokenPredicate.
func New(store PathStore, table Table, orgPrefix, tokenPredicate string) *StoreResolver {
	return &StoreResolver{
		store:          store,
		table:          table,
		orgPrefix:      orgPrefix,
		tokenPredicate: tokenPredicate,
	}
}

// Table exposes the configured path table (for multi-partition checks).
func (r *StoreResolver) Table() Table {
	return r.table
}

// Resolve implements OwnershipResolver. Every path configured for typ is
// followed; candidate partitions are unioned. A store failure propagates
// unmasked; it must not be mistaken for "no owner".
func (r *StoreResolver) Resolve(ctx context.Context, subject, typ string) (PartitionSet, error) {
	candidates := make(PartitionSet)
	for _, pc := range r.table.ForType(typ) {
		tokens, err := r.store.ResolvePath(ctx, subject, pc.PathExpression, r.tokenPredicate)
		if err != nil {
			return nil, fmt.Errorf("ownership path for type %s: %w", typ, err)
		}
		for _, tok := range tokens {
			candidates.Add(r.orgPrefix + tok)
		}
	}
	return candidates, nil
}
