// Package pipeline runs documentation generation and patching over harvested items, one worker per file.
//
// Within a file, everything is serialized: each item is gated, documented, sanitized, and resolved against the file's original bytes, then the file's edits are planned and applied
// together and (in write mode) the file is written once. Files are processed concurrently and never share state; their results are merged into the run log in path order.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/graves/awful-rustdocs/internal/docpatch"
	"github.com/graves/awful-rustdocs/internal/generate"
	"github.com/graves/awful-rustdocs/internal/harvest"
	"github.com/graves/awful-rustdocs/internal/health"
	"github.com/graves/awful-rustdocs/internal/preview"
	"github.com/graves/awful-rustdocs/internal/report"
	"github.com/graves/awful-rustdocs/internal/sanitize"
	"golang.org/x/sync/errgroup"
)

// Options configures a run.
type Options struct {
	Root        string // Item file paths are relative to Root unless absolute.
	Write       bool   // Write patched files. Otherwise the run is a dry run.
	Overwrite   bool   // Replace existing doc blocks.
	Concurrency int    // Files processed at once. <= 0 means GOMAXPROCS.
	Dialect     docpatch.Dialect
	Sanitize    sanitize.Options
	Preview     *preview.Options // When set, a diff is rendered for every file with edits.
	Log         health.Ctx
}

// FileDiff is the rendered preview for one file.
type FileDiff struct {
	Path string
	Diff string
}

// Result is the outcome of a run.
type Result struct {
	Run   *report.Run
	Diffs []FileDiff
}

// Run documents items using src. Per-item and per-file failures are recorded in the run log and never stop other files; the returned error is non-nil only when ctx is canceled.
func Run(ctx context.Context, items []docpatch.Item, src Source, opts Options) (*Result, error) {
	if opts.Dialect.DocMarker == "" {
		opts.Dialect = docpatch.Rust
	}
	if opts.Sanitize.Marker == "" {
		opts.Sanitize.Marker = opts.Dialect.DocMarker
	}
	groups := harvest.ByFile(items)
	env := &runEnv{
		opts:    opts,
		src:     src,
		symbols: generate.NewSymbolIndex(items),
		fns:     functionsOf(items),
	}

	outcomes := make([]fileOutcome, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(max(1, min(limit, len(groups))))
	for i, group := range groups {
		g.Go(func() error {
			outcomes[i] = env.file(gctx, group)
			return nil
		})
	}
	_ = g.Wait()

	run := report.NewRun(opts.Write, opts.Overwrite)
	res := &Result{Run: run}
	for _, o := range outcomes {
		run.Add(o.entries...)
		run.AddFile(o.file)
		if o.diff != "" {
			res.Diffs = append(res.Diffs, FileDiff{Path: o.file.Path, Diff: o.diff})
		}
	}
	return res, ctx.Err()
}

func functionsOf(items []docpatch.Item) []docpatch.Item {
	var fns []docpatch.Item
	for _, it := range items {
		if it.Kind == docpatch.KindFunction {
			fns = append(fns, it)
		}
	}
	return fns
}

type runEnv struct {
	opts    Options
	src     Source
	symbols generate.SymbolIndex
	fns     []docpatch.Item
}

type fileOutcome struct {
	entries []report.Entry
	file    report.FileResult
	diff    string
}

// tracked is an entry plus the decision its edit was planned with, finalized once the file's fate is known.
type tracked struct {
	report.Entry
	dec docpatch.Decision
}

func (env *runEnv) path(it string) string {
	if filepath.IsAbs(it) || env.opts.Root == "" {
		return it
	}
	return filepath.Join(env.opts.Root, it)
}

func (env *runEnv) file(ctx context.Context, group harvest.FileGroup) fileOutcome {
	start := time.Now()
	log := env.opts.Log.With("file", group.Path)
	out := fileOutcome{file: report.FileResult{Path: group.Path}}
	diskPath := env.path(group.Path)

	original, err := os.ReadFile(diskPath)
	if err != nil {
		err = log.LogWrappedErr("could not read source file", err)
		out.file.Err = err.Error()
		for _, it := range group.Items {
			e := baseEntry(it)
			e.Action, e.Reason = report.ActionFailed, "read failed: "+err.Error()
			out.entries = append(out.entries, e)
		}
		return out
	}

	resolver := docpatch.NewResolver(original, env.opts.Dialect)
	planner := docpatch.NewPlanner(group.Path)
	var all []tracked
	for _, it := range group.Items {
		all = append(all, env.item(ctx, log.With("symbol", it.Label()), original, resolver, planner, it)...)
	}

	finish := func(action report.Action, reason string) {
		for _, t := range all {
			if t.EditProduced {
				t.Action = action
				if action == report.ActionFailed {
					t.Reason = reason
				} else if env.opts.Write && t.dec == docpatch.Replace {
					t.Action = report.ActionReplaced
				}
			}
			out.entries = append(out.entries, t.Entry)
		}
	}

	if ctx.Err() != nil {
		out.file.Err = "canceled"
		finish(report.ActionFailed, "canceled")
		return out
	}

	plan, err := planner.Plan()
	if err != nil {
		err = log.LogWrappedErr("could not plan edits", err)
		out.file.Err = err.Error()
		finish(report.ActionFailed, err.Error())
		return out
	}
	patched, err := docpatch.Apply(original, plan)
	if err != nil {
		err = log.LogWrappedErr("could not apply edits", err)
		out.file.Err = err.Error()
		finish(report.ActionFailed, err.Error())
		return out
	}
	out.file.Edits = len(plan.Edits)

	if plan.Empty() {
		finish(report.ActionPlanned, "")
		log.Debug("no edits", "elapsed_ms", time.Since(start).Milliseconds())
		return out
	}
	if env.opts.Preview != nil {
		out.diff = preview.Unified(group.Path, string(original), string(patched), *env.opts.Preview)
	}
	if !env.opts.Write {
		finish(report.ActionPlanned, "")
		log.Log("planned edits", "edits", len(plan.Edits), "elapsed_ms", time.Since(start).Milliseconds())
		return out
	}

	// A file is written whole or not at all.
	if ctx.Err() != nil {
		out.file.Err = "canceled"
		finish(report.ActionFailed, "canceled")
		return out
	}
	if err := writeFile(diskPath, patched); err != nil {
		err = log.LogWrappedErr("could not write patched file", err)
		out.file.Err = err.Error()
		finish(report.ActionFailed, err.Error())
		return out
	}
	out.file.Written = true
	finish(report.ActionInserted, "")
	log.Log("patched file", "edits", len(plan.Edits), "elapsed_ms", time.Since(start).Milliseconds())
	return out
}

// writeFile replaces path with data via a temp file in the same directory, keeping path's permissions.
func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func baseEntry(it docpatch.Item) report.Entry {
	return report.Entry{
		Kind:           it.Kind.String(),
		QualifiedName:  it.Label(),
		Name:           it.Name,
		File:           it.FilePath,
		StartLine:      it.Span.StartLine,
		EndLine:        it.Span.EndLine,
		Span:           it.Span,
		Signature:      it.Signature,
		Visibility:     it.Visibility,
		Callers:        it.Callers,
		HadExistingDoc: it.HasDoc(),
		ExistingDoc:    it.ExistingDoc,
		BodyText:       it.BodyText,
	}
}
