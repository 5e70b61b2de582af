// Package driver runs the weld pipeline over one package directory: discover
// configuration, scan sources, expand every trigger and write the generated
// files. Triggers expand in parallel against the shared read-only index;
// failures stay per-trigger, one broken expansion never blocks the others.
package driver

import (
	"context"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"weld/internal/inliner"
	"weld/internal/inliner/analyzer"
	"weld/internal/inliner/generator"
	"weld/internal/inliner/registry"
	"weld/internal/inliner/transformer"
	"weld/welderr"
)

// generatedSuffix marks weld output files. They are skipped on the next scan,
// so repeated runs converge instead of expanding their own output.
const generatedSuffix = "_weld.go"

// Diagnostic is one problem found during a run, with the offending source
// line when the position maps into a scanned file.
type Diagnostic struct {
	Err        *welderr.Error
	SourceLine string
}

// Report is the outcome of one run.
type Report struct {
	Generated   []inliner.GeneratedFile
	Written     []string // file names written or rewritten
	Drift       []string // check mode: files missing or stale on disk
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic is a hard failure.
func (r *Report) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if !d.Err.Category.Soft() {
			return true
		}
	}
	return false
}

// addErr flattens err into diagnostics. Non-weld errors are carried as
// configuration problems so nothing is dropped.
func (r *Report) addErr(idx *analyzer.Index, err error) {
	if err == nil {
		return
	}
	var multi *welderr.MultiError
	if errors.As(err, &multi) {
		for _, sub := range multi.Errors {
			r.addErr(idx, sub)
		}
		return
	}
	if e, ok := welderr.As(err); ok {
		r.addDiag(idx, e)
		return
	}
	r.addDiag(idx, welderr.New(welderr.KindConfig, err.Error()))
}

func (r *Report) addDiag(idx *analyzer.Index, e *welderr.Error) {
	d := Diagnostic{Err: e}
	if idx != nil && e.Path != "" && e.Line > 0 {
		if line, ok := idx.LineText(e.Path, e.Line); ok {
			d.SourceLine = line
		}
	}
	r.Diagnostics = append(r.Diagnostics, d)
}

// session holds everything prepared before expansion: resolved settings, the
// declaration index, the merged template registry and the deduplicated
// trigger list.
type session struct {
	cfg      Config
	idx      *analyzer.Index
	reg      *registry.Registry
	triggers []inliner.Trigger
	report   *Report
}

// prepare discovers configuration, scans the package and merges the manifest.
func prepare(ctx context.Context, cfg Config) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}

	man, err := resolveManifest(cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withManifest(man)

	paths, err := listGoFiles(cfg.Dir)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	reg := registry.New()
	inputs := make([]analyzer.Input, len(paths))
	for i, p := range paths {
		inputs[i] = analyzer.Input{Path: p}
	}
	idx, triggers, err := analyzer.New(reg).Analyze(inputs)
	report.addErr(idx, err)

	if man != nil {
		for _, t := range man.templates() {
			report.addErr(idx, reg.Register(t))
		}
		triggers = append(triggers, man.triggers()...)
	}
	triggers = dedupeTriggers(triggers, idx, report)

	reportOrphanMarks(idx, triggers, report)

	return &session{cfg: cfg, idx: idx, reg: reg, triggers: triggers, report: report}, nil
}

// Run executes one weld pass over cfg.Dir.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	s, err := prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}

	results, err := expandAll(ctx, s.cfg, s.idx, s.reg, s.triggers)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string)
	for i, res := range results {
		if res.err != nil {
			s.report.addErr(s.idx, res.err)
			continue
		}
		for _, w := range res.unit.Warnings {
			s.report.addDiag(s.idx, w)
		}
		if prev, dup := seen[res.file.Name]; dup {
			s.report.addErr(s.idx, welderr.Newf(welderr.KindConfig,
				"expansions %s and %s both produce %s", prev, s.triggers[i].Key(), res.file.Name))
			continue
		}
		seen[res.file.Name] = s.triggers[i].Key()

		content := res.file.Content
		if s.cfg.Format {
			formatted, err := format.Source([]byte(content))
			if err != nil {
				return nil, fmt.Errorf("formatting %s: %w", res.file.Name, err)
			}
			content = string(formatted)
		}
		s.report.Generated = append(s.report.Generated, inliner.GeneratedFile{
			Name:    res.file.Name,
			Content: content,
		})
	}

	if err := flush(s.cfg, s.report); err != nil {
		return nil, err
	}
	return s.report, nil
}

// Templates lists every template a run would see: directive declarations
// merged with the manifest, sorted by key. The report carries whatever
// problems scanning found.
func Templates(ctx context.Context, cfg Config) ([]registry.Entry, *Report, error) {
	s, err := prepare(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return s.reg.Entries(), s.report, nil
}

func resolveManifest(cfg Config) (*manifest, error) {
	if cfg.ConfigPath != "" {
		return loadManifest(cfg.ConfigPath)
	}
	path, ok, err := findManifest(cfg.Dir)
	if err != nil || !ok {
		return nil, err
	}
	return loadManifest(path)
}

// listGoFiles returns the package's source files in sorted order, leaving out
// tests and previously generated output.
func listGoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, welderr.Newf(welderr.KindConfig, "reading %s: %v", dir, err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, generatedSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// dedupeTriggers keeps the first trigger per key. Directive triggers come
// before manifest triggers, so a source annotation wins over weld.toml.
func dedupeTriggers(triggers []inliner.Trigger, idx *analyzer.Index, report *Report) []inliner.Trigger {
	seen := make(map[string]bool, len(triggers))
	out := triggers[:0]
	for _, tr := range triggers {
		if seen[tr.Key()] {
			report.addDiag(idx, welderr.NewAt(welderr.KindConfig, tr.File, tr.Line, 1,
				fmt.Sprintf("duplicate expand for %s", tr.Key())))
			continue
		}
		seen[tr.Key()] = true
		out = append(out, tr)
	}
	return out
}

// reportOrphanMarks flags inline marks sitting in functions no trigger
// selects. The mark would otherwise be dead weight the author believes is
// working.
func reportOrphanMarks(idx *analyzer.Index, triggers []inliner.Trigger, report *Report) {
	keys := make(map[string]bool, len(triggers))
	for _, tr := range triggers {
		keys[tr.Key()] = true
	}
	for _, pos := range idx.MarkPositions() {
		sym, ok := idx.FuncAt(pos)
		if !ok || keys[sym.Key()] {
			continue
		}
		p := idx.Position(pos)
		report.addDiag(idx, welderr.NewAt(welderr.KindBadDirective, p.Filename, p.Line, p.Column,
			fmt.Sprintf("inline mark in %s, which has no expand trigger", sym.Key())))
	}
}

type outcome struct {
	unit inliner.Unit
	file inliner.GeneratedFile
	err  error
}

// expandAll runs every trigger through the engine. Results land in
// per-trigger slots, so no locking is needed and output order stays
// deterministic regardless of scheduling.
func expandAll(ctx context.Context, cfg Config, idx *analyzer.Index, reg *registry.Registry, triggers []inliner.Trigger) ([]outcome, error) {
	if len(triggers) == 0 {
		return nil, nil
	}

	eng := inliner.NewEngine(
		transformer.New(idx, reg, transformer.Options{Suffix: cfg.Suffix}),
		generator.New(generator.Options{Header: cfg.Header}),
	)

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]outcome, len(triggers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(triggers)))

	for i, tr := range triggers {
		i, tr := i, tr
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			unit, file, err := eng.Expand(tr)
			results[i] = outcome{unit: unit, file: file, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// flush applies the run mode: check compares, dry-run does nothing, the
// default writes files whose content changed.
func flush(cfg Config, report *Report) error {
	for _, gf := range report.Generated {
		target := filepath.Join(cfg.Dir, gf.Name)
		switch {
		case cfg.Check:
			existing, err := os.ReadFile(target)
			if err != nil || string(existing) != gf.Content {
				report.Drift = append(report.Drift, gf.Name)
			}
		case cfg.DryRun:
		default:
			existing, err := os.ReadFile(target)
			if err == nil && string(existing) == gf.Content {
				continue
			}
			if err := os.WriteFile(target, []byte(gf.Content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}
			report.Written = append(report.Written, gf.Name)
		}
	}
	return nil
}
