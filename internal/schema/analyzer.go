package schema

import (
	"context"
	"strings"

	"db-hub/internal/registry"

	log "github.com/sirupsen/logrus"
)

// ---------------------------------------------------------------------
// Schema Analysis
// ---------------------------------------------------------------------

// Analyze describes the named tables and returns them in dependency order. Tables that
// cannot be described are reported in failed and left out of the result.
func Analyze(ctx context.Context, h *registry.Handle, names []string) (tables []*Table, failed map[string]error) {
	failed = make(map[string]error)

	// Normalized keys keep lookups case-insensitive (SQL Server collations, Oracle upper case).
	tableMap := make(map[string]*Table)
	for _, name := range names {
		t, err := DescribeTable(ctx, h, name)
		if err != nil {
			failed[name] = err
			continue
		}
		tableMap[strings.ToUpper(name)] = t
		tables = append(tables, t)
	}

	// Only dependencies on tables we are exporting take part in ordering.
	for _, t := range tables {
		var deps []string
		for _, dep := range t.Dependencies {
			if ref, ok := tableMap[strings.ToUpper(dep)]; ok {
				deps = append(deps, ref.Name)
			}
		}
		t.Dependencies = deps
	}

	return SortTablesByFKCount(tables), failed
}

// ---------------------------------------------------------------------
// Sorting Algorithm (Topological / Greedy)
// ---------------------------------------------------------------------

// SortTablesByFKCount sorts tables by dependency order.
// It handles circular dependencies by using a scoring system.
func SortTablesByFKCount(tables []*Table) []*Table {
	var sorted []*Table
	processed := make(map[string]bool)

	for len(sorted) < len(tables) {
		added := false

		// Pass 1: tables whose dependencies are all placed.
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}

			allDepsProcessed := true
			for _, depName := range t.Dependencies {
				if !processed[depName] {
					allDepsProcessed = false
					break
				}
			}

			if allDepsProcessed {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
			}
		}

		// Pass 2: a cycle, pick the table to break it by score.
		if !added {
			var bestTable *Table
			bestScore := -999999

			for _, t := range tables {
				if processed[t.Name] {
					continue
				}

				// Fewer pending dependencies score higher, a direct two-table cycle earns a bonus.
				score := 0

				unprocessedDeps := 0
				for _, dep := range t.Dependencies {
					if !processed[dep] {
						unprocessedDeps++
					}
				}
				score -= (unprocessedDeps * 100)

				isCircular := false
				for _, depName := range t.Dependencies {
					if !processed[depName] {
						for _, cand := range tables {
							if cand.Name == depName {
								for _, candDep := range cand.Dependencies {
									if candDep == t.Name {
										isCircular = true
										break
									}
								}
								break
							}
						}
					}
					if isCircular {
						break
					}
				}

				if isCircular {
					score += 500
				}

				// Ties go to the later name.
				if score > bestScore {
					bestScore = score
					bestTable = t
				} else if score == bestScore {
					if bestTable == nil || t.Name > bestTable.Name {
						bestTable = t
					}
				}
			}

			if bestTable != nil {
				sorted = append(sorted, bestTable)
				processed[bestTable.Name] = true
				log.WithField("table", bestTable.Name).Debugf("Breaking circular dependency (score: %d)", bestScore)
			} else {
				log.Error("Deadlock in table ordering, remaining tables cannot be sorted")
				break
			}
		}
	}

	return sorted
}
