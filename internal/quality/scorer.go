// Package quality computes coverage, completeness, consistency,
// distribution and a weighted quality score per entity type. Every type is
// scored by the same function, parameterized by its quality table.
package quality

import (
	"math"
	"sort"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/model"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

// Field weights in the quality score.
const (
	RequiredWeight = 1.0
	OptionalWeight = 0.5
)

// Ranking limits.
const (
	DefaultTopN = 5
	MaxTopN     = 10
)

// NoValue is the distribution bucket for entities lacking a key.
const NoValue = "(none)"

// importanceLevels maps textual importance to a rank value.
var importanceLevels = map[string]float64{
	"critical": 4,
	"high":     3,
	"medium":   2,
	"low":      1,
}

// Ranked is one entry of a type's top-N list.
type Ranked struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Value float64 `json:"value"`
	// Source is the rank_by field, or "usage" when the value is an
	// inbound reference count.
	Source string `json:"source"`
}

// Stats is the quality summary of one entity type.
type Stats struct {
	Type  string `json:"type"`
	Total int    `json:"total"`
	Valid int    `json:"valid"`
	// Coverage is Valid/Total in [0, 1].
	Coverage float64 `json:"coverage"`
	// Completeness is the percentage of entities with every required field.
	Completeness float64 `json:"completeness"`
	// Consistency is distinct values of the first distribution key over
	// Total. Higher means more fragmented categorization.
	Consistency     float64                   `json:"consistency"`
	Distribution    map[string]map[string]int `json:"distribution,omitempty"`
	MissingRequired map[string]int            `json:"missingRequired,omitempty"`
	Score           float64                   `json:"score"`
	Top             []Ranked                  `json:"top,omitempty"`
}

// Report is the quality summary of a whole snapshot.
type Report struct {
	Types []Stats `json:"types"`
	// Overall is the mean score of types that have entities.
	Overall float64 `json:"overall"`
}

// Lookup returns the stats of one type.
func (r *Report) Lookup(typeName string) (Stats, bool) {
	for _, s := range r.Types {
		if s.Type == typeName {
			return s, true
		}
	}
	return Stats{}, false
}

// Options tunes scoring.
type Options struct {
	// FuzzyUsage adds loose text-walk matches to declared-reference usage.
	FuzzyUsage bool
}

// Score computes stats for every declared type. It has no side effects.
func Score(snap *snapshot.Snapshot, opts Options) Report {
	usage := DeclaredUsage(snap)
	if opts.FuzzyUsage {
		usage.Add(FuzzyUsage(snap))
	}

	var report Report
	var sum float64
	var scored int
	for _, typeName := range snap.Schema.EntityTypes() {
		decl, _ := snap.Schema.Entity(typeName)
		stats := TypeStats(typeName, snap.Collections.Entities(typeName), tableFor(decl), usage)
		report.Types = append(report.Types, stats)
		if stats.Total > 0 {
			sum += stats.Score
			scored++
		}
	}
	if scored > 0 {
		report.Overall = round(sum / float64(scored))
	}
	return report
}

// tableFor returns the type's quality table, defaulting to requiring the id.
func tableFor(decl *schema.EntityDecl) schema.QualityDecl {
	if decl.Quality != nil {
		return *decl.Quality
	}
	return schema.QualityDecl{Required: []string{decl.IDField}}
}

// TypeStats scores one collection against its quality table.
func TypeStats(typeName string, entities []*model.Entity, table schema.QualityDecl, usage Usage) Stats {
	stats := Stats{
		Type:            typeName,
		Total:           len(entities),
		Distribution:    make(map[string]map[string]int),
		MissingRequired: make(map[string]int),
	}
	for _, key := range table.Distribution {
		stats.Distribution[key] = make(map[string]int)
	}
	if len(entities) == 0 {
		return stats
	}

	var scoreSum float64
	for _, e := range entities {
		if IsValid(e, table) {
			stats.Valid++
		}
		for _, f := range table.Required {
			if !e.Has(f) {
				stats.MissingRequired[f]++
			}
		}
		scoreSum += EntityScore(e, table)
		for _, key := range table.Distribution {
			for _, bucket := range buckets(e, key) {
				stats.Distribution[key][bucket]++
			}
		}
	}

	total := float64(stats.Total)
	stats.Coverage = round(float64(stats.Valid) / total)
	stats.Completeness = round(float64(stats.Valid) / total * 100)
	stats.Score = round(scoreSum / total)

	if len(table.Distribution) > 0 {
		distinct := 0
		for bucket := range stats.Distribution[table.Distribution[0]] {
			if bucket != NoValue {
				distinct++
			}
		}
		stats.Consistency = round(float64(distinct) / total)
	}

	stats.Top = topN(entities, table, usage)
	return stats
}

// IsValid reports whether every required field is present and non-empty.
func IsValid(e *model.Entity, table schema.QualityDecl) bool {
	for _, f := range table.Required {
		if !e.Has(f) {
			return false
		}
	}
	return true
}

// EntityScore is the weighted share of present fields, 0 to 100.
func EntityScore(e *model.Entity, table schema.QualityDecl) float64 {
	possible := RequiredWeight*float64(len(table.Required)) + OptionalWeight*float64(len(table.Optional))
	if possible == 0 {
		return 100
	}
	var got float64
	for _, f := range table.Required {
		if e.Has(f) {
			got += RequiredWeight
		}
	}
	for _, f := range table.Optional {
		if e.Has(f) {
			got += OptionalWeight
		}
	}
	return got / possible * 100
}

func buckets(e *model.Entity, key string) []string {
	raw, ok := e.Field(key)
	if !ok || model.IsEmpty(raw) {
		return []string{NoValue}
	}
	if items, ok := raw.([]any); ok {
		var out []string
		for _, item := range items {
			if s := strings.TrimSpace(model.ScalarString(item)); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return []string{NoValue}
		}
		return out
	}
	if s := strings.TrimSpace(model.ScalarString(raw)); s != "" {
		return []string{s}
	}
	return []string{NoValue}
}

// RankValue returns an entity's rank_by value: a number, a numeric string
// or an importance level (critical, high, medium, low).
func RankValue(e *model.Entity, field string) (float64, bool) {
	if field == "" {
		return 0, false
	}
	raw, ok := e.Field(field)
	if !ok {
		return 0, false
	}
	if n, ok := model.Number(raw); ok {
		return n, true
	}
	if s, ok := raw.(string); ok {
		if level, ok := importanceLevels[strings.ToLower(strings.TrimSpace(s))]; ok {
			return level, true
		}
	}
	return 0, false
}

func topN(entities []*model.Entity, table schema.QualityDecl, usage Usage) []Ranked {
	n := table.TopN
	if n <= 0 {
		n = DefaultTopN
	}
	if n > MaxTopN {
		n = MaxTopN
	}

	ranked := make([]Ranked, 0, len(entities))
	seen := make(map[string]bool)
	for _, e := range entities {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		r := Ranked{ID: e.ID, Title: e.Title}
		if v, ok := RankValue(e, table.RankBy); ok {
			r.Value, r.Source = v, table.RankBy
		} else {
			r.Value, r.Source = float64(usage.Count(e.Type, e.ID)), "usage"
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}
