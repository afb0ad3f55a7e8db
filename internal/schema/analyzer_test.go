package schema_test

import (
	"testing"

	"db-hub/internal/schema"
)

func names(tables []*schema.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

func TestSortTablesByFKCount_Cycle(t *testing.T) {
	// invoices -> payments -> refunds -> invoices closes a cycle,
	// ledger hangs off the cycle and currencies is independent.
	tables := []*schema.Table{
		{Name: "invoices", Dependencies: []string{"payments"}},
		{Name: "payments", Dependencies: []string{"refunds"}},
		{Name: "refunds", Dependencies: []string{"invoices"}},
		{Name: "ledger", Dependencies: []string{"refunds"}},
		{Name: "currencies", Dependencies: []string{}},
	}

	sorted := schema.SortTablesByFKCount(tables)

	if len(sorted) != len(tables) {
		t.Fatalf("Expected %d tables, got %d", len(tables), len(sorted))
	}
	if sorted[0].Name != "currencies" {
		t.Errorf("Expected independent table first, got %s", sorted[0].Name)
	}

	pos := make(map[string]int)
	for i, tbl := range sorted {
		pos[tbl.Name] = i
	}
	if pos["ledger"] < pos["refunds"] {
		t.Errorf("ledger must follow refunds, got %v", names(sorted))
	}
}

func TestSortTablesByFKCount_Chain(t *testing.T) {
	tables := []*schema.Table{
		{Name: "order_items", Dependencies: []string{"orders"}},
		{Name: "orders", Dependencies: []string{"customers"}},
		{Name: "customers", Dependencies: []string{}},
	}

	got := names(schema.SortTablesByFKCount(tables))
	want := []string{"customers", "orders", "order_items"}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}

func TestSortTablesByFKCount_SelfContained(t *testing.T) {
	tables := []*schema.Table{
		{Name: "b"},
		{Name: "a"},
	}

	got := names(schema.SortTablesByFKCount(tables))
	if got[0] != "b" || got[1] != "a" {
		t.Errorf("Independent tables keep their input order, got %v", got)
	}
}
