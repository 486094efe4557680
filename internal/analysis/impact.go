// Package analysis narrows a run to the classes touched by a diff.
package analysis

import (
	"path/filepath"
	"slices"

	"github.com/samber/lo"

	"pyeo/internal/engine"
	"pyeo/internal/git"
	"pyeo/internal/hierarchy"
)

// ImpactReport summarizes the classes affected by changes.
type ImpactReport struct {
	DirectlyAffected []*hierarchy.ClassInfo
	// IndirectlyAffected holds subclasses of directly affected classes, at any depth.
	// A change to a Protocol changes what its implementations are checked against.
	IndirectlyAffected []*hierarchy.ClassInfo
}

// Affected returns direct and indirect classes together.
func (r *ImpactReport) Affected() []*hierarchy.ClassInfo {
	if r == nil {
		return nil
	}
	return append(slices.Clone(r.DirectlyAffected), r.IndirectlyAffected...)
}

// Analyzer performs impact analysis on the class graph.
type Analyzer struct {
	g *hierarchy.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *hierarchy.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact identifies which classes are affected by the given changes.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []*hierarchy.ClassInfo{},
		IndirectlyAffected: []*hierarchy.ClassInfo{},
	}

	seenDirect := make(map[string]bool)
	seenIndirect := make(map[string]bool)

	ids := lo.Keys(a.g.Classes)
	slices.Sort(ids)

	// 1. Classes whose span contains a changed line
	for _, change := range changes {
		path := normalize(change.Path)
		for _, id := range ids {
			info := a.g.Classes[id]
			if seenDirect[id] || normalize(info.Path) != path {
				continue
			}
			if isAffected(info, change.ChangedLines) {
				report.DirectlyAffected = append(report.DirectlyAffected, info)
				seenDirect[id] = true
			}
		}
	}

	// 2. Their subclasses, breadth first
	queue := lo.Map(report.DirectlyAffected, func(info *hierarchy.ClassInfo, _ int) string { return info.ID })
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sub := range a.g.GetSubclasses(cur) {
			if seenDirect[sub.ID] || seenIndirect[sub.ID] {
				continue
			}
			report.IndirectlyAffected = append(report.IndirectlyAffected, sub)
			seenIndirect[sub.ID] = true
			queue = append(queue, sub.ID)
		}
	}

	return report
}

func isAffected(info *hierarchy.ClassInfo, lines []int) bool {
	for _, line := range lines {
		if line >= info.Line && line <= info.EndLine {
			return true
		}
	}
	return false
}

// FilterDiagnostics keeps diagnostics on changed lines and, when report is non-nil, diagnostics
// inside the span of an affected class. Files left without diagnostics are dropped.
func FilterDiagnostics(results []engine.FileResult, changes []git.ChangedFile, report *ImpactReport) []engine.FileResult {
	changed := make(map[string]git.ChangedFile)
	for _, c := range changes {
		changed[normalize(c.Path)] = c
	}
	spans := make(map[string][]*hierarchy.ClassInfo)
	for _, info := range report.Affected() {
		path := normalize(info.Path)
		spans[path] = append(spans[path], info)
	}

	var out []engine.FileResult
	for _, res := range results {
		path := normalize(res.Path)
		change, hasChange := changed[path]
		kept := lo.Filter(res.Diagnostics, func(d engine.Diagnostic, _ int) bool {
			if hasChange && change.Touches(d.Line) {
				return true
			}
			return lo.ContainsBy(spans[path], func(info *hierarchy.ClassInfo) bool {
				return d.Line >= info.Line && d.Line <= info.EndLine
			})
		})
		if len(kept) > 0 {
			out = append(out, engine.FileResult{Path: res.Path, Diagnostics: kept})
		}
	}
	return out
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
