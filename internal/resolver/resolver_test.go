package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakePathStore struct {
	tokens map[string][]string // path expression -> tokens
	err    error
	calls  []string
}

func (f *fakePathStore) ResolvePath(ctx context.Context, subject, pathExpression, tokenPredicate string) ([]string, error) {
	f.calls = append(f.calls, pathExpression)
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens[pathExpression], nil
}

const orgPrefix = "http://data.orgraph.io/graphs/organizations/"

func TestResolveUnionsAllPaths(t *testing.T) {
	store := &fakePathStore{tokens: map[string][]string{
		"<p1>": {"org-a"},
		"<p2>": {"org-b", "org-a"},
	}}
	table := Table{
		{Type: "http://ex.org/Case", PathExpression: "<p1>"},
		{Type: "http://ex.org/Case", PathExpression: "<p2>"},
		{Type: "http://ex.org/Other", PathExpression: "<p3>"},
	}
	r := New(store, table, orgPrefix, "http://ex.org/uuid")
	got, err := r.Resolve(context.Background(), "http://ex.org/s", "http://ex.org/Case")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := []string{orgPrefix + "org-a", orgPrefix + "org-b"}
	sorted := got.Sorted()
	if len(sorted) != 2 || sorted[0] != want[0] || sorted[1] != want[1] {
		t.Fatalf("unexpected candidates: %v", sorted)
	}
	if len(store.calls) != 2 {
		t.Fatalf("expected 2 path lookups, got %v", store.calls)
	}
}

func TestResolveEmptyIsNotAnError(t *testing.T) {
	store := &fakePathStore{}
	table := Table{{Type: "http://ex.org/Case", PathExpression: "<p1>"}}
	r := New(store, table, orgPrefix, "http://ex.org/uuid")
	got, err := r.Resolve(context.Background(), "http://ex.org/s", "http://ex.org/Case")
	if err != nil {
		t.Fatalf("empty result must be a normal outcome: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got.Sorted())
	}
}

func TestResolveStoreFailurePropagates(t *testing.T) {
	boom := errors.New("endpoint down")
	store := &fakePathStore{err: boom}
	table := Table{{Type: "http://ex.org/Case", PathExpression: "<p1>"}}
	r := New(store, table, orgPrefix, "http://ex.org/uuid")
	if _, err := r.Resolve(context.Background(), "s", "http://ex.org/Case"); !errors.Is(err, boom) {
		t.Fatalf("store failure must propagate, got %v", err)
	}
}

func TestAllowsMultipleRequiresAllPathsToAllow(t *testing.T) {
	table := Table{
		{Type: "a", PathExpression: "<p>", AllowedInMultipleOrgs: true},
		{Type: "a", PathExpression: "<q>", AllowedInMultipleOrgs: false},
		{Type: "b", PathExpression: "<p>", AllowedInMultipleOrgs: true},
	}
	if table.AllowsMultiple("a") {
		t.Fatalf("one forbidding path should forbid multi-partition placement")
	}
	if !table.AllowsMultiple("b") {
		t.Fatalf("type b should allow multi-partition placement")
	}
	if table.AllowsMultiple("unknown") {
		t.Fatalf("unconfigured type must not allow multi-partition placement")
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paths.json")
	body := `[{"type":"http://ex.org/Case","pathExpression":"<http://ex.org/org>","allowedInMultipleOrgs":true}]`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(table) != 1 || !table[0].AllowedInMultipleOrgs {
		t.Fatalf("unexpected table: %+v", table)
	}
}

func TestLoadTableRejectsMissingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paths.json")
	if err := os.WriteFile(path, []byte(`[{"type":"x"}]`), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Fatalf("expected error for missing pathExpression")
	}
}
