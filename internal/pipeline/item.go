package pipeline

import (
	"context"
	"errors"

	"github.com/graves/awful-rustdocs/internal/docpatch"
	"github.com/graves/awful-rustdocs/internal/generate"
	"github.com/graves/awful-rustdocs/internal/health"
	"github.com/graves/awful-rustdocs/internal/report"
	"github.com/graves/awful-rustdocs/internal/sanitize"
)

// item gates, documents, and resolves one harvested item, adding any edits to planner. It returns the item's entry, followed by one entry per field doc for structs.
func (env *runEnv) item(ctx context.Context, log health.Ctx, src []byte, r *docpatch.Resolver, planner *docpatch.Planner, it docpatch.Item) []tracked {
	switch it.Kind {
	case docpatch.KindFunction:
		return []tracked{env.function(ctx, log, src, r, planner, it)}
	case docpatch.KindStruct:
		return env.structure(ctx, log, src, r, planner, it)
	default:
		e := baseEntry(it)
		e.Action, e.Reason = report.ActionSkipped, "unsupported kind"
		return []tracked{{Entry: e}}
	}
}

func (env *runEnv) function(ctx context.Context, log health.Ctx, src []byte, r *docpatch.Resolver, planner *docpatch.Planner, it docpatch.Item) tracked {
	t := tracked{Entry: baseEntry(it)}
	dec := docpatch.Decide(it.HasDoc(), env.opts.Overwrite)
	if dec == docpatch.Skip {
		t.Action, t.Reason = report.ActionSkipped, "existing doc"
		return t
	}

	body := spanText(src, it.Span)
	req := generate.Request{Item: it, Body: body, ReferencedSymbols: env.symbols.ReferencedSymbols(body, it.QualifiedName)}
	t.ReferencedSymbols = req.ReferencedSymbols
	doc, err := env.src.Doc(ctx, req)
	if err != nil {
		err = log.LogWrappedErr("could not generate doc", err)
		t.Action, t.Reason = report.ActionFailed, err.Error()
		return t
	}
	t.Doc = sanitize.Sanitize(doc.Summary, env.opts.Sanitize)

	slot, err := r.Function(it, t.Doc, dec)
	return env.place(log, planner, t, slot, err, it.Label())
}

func (env *runEnv) structure(ctx context.Context, log health.Ctx, src []byte, r *docpatch.Resolver, planner *docpatch.Planner, it docpatch.Item) []tracked {
	t := tracked{Entry: baseEntry(it)}
	body, bodyErr := r.StructBody(it)
	bodyText := it.BodyText
	if bodyErr == nil {
		bodyText = body.Text
	}

	req := generate.Request{
		Item:                 it,
		Body:                 bodyText,
		ReferencedSymbols:    env.symbols.ReferencedSymbols(bodyText, it.QualifiedName),
		ReferencingFunctions: generate.ReferencingFunctions(it, env.fns, sameFileBody(src, it.FilePath)),
	}
	t.ReferencedSymbols = req.ReferencedSymbols
	doc, err := env.src.Doc(ctx, req)
	if err != nil {
		err = log.LogWrappedErr("could not generate doc", err)
		t.Action, t.Reason = report.ActionFailed, err.Error()
		return []tracked{t}
	}
	t.Doc = sanitize.Sanitize(doc.Summary, env.opts.Sanitize)

	dec := docpatch.Decide(it.HasDoc(), env.opts.Overwrite)
	switch {
	case dec == docpatch.Skip:
		t.Action, t.Reason = report.ActionSkipped, "existing doc"
	case t.Doc == "":
		t.Action, t.Reason = report.ActionSkipped, "no summary"
	default:
		slot, err := r.Struct(it, t.Doc, dec)
		t = env.place(log, planner, t, slot, err, it.Label())
	}

	out := []tracked{t}
	seen := map[string]bool{}
	for _, fd := range doc.Fields {
		ft := tracked{Entry: report.Entry{
			Kind:          docpatch.KindField.String(),
			QualifiedName: it.Label() + "::" + fd.Name,
			Name:          fd.Name,
			Parent:        it.Label(),
			File:          it.FilePath,
			StartLine:     it.Span.StartLine,
			EndLine:       it.Span.EndLine,
			Doc:           sanitize.Sanitize(fd.Doc, env.opts.Sanitize),
		}}
		flog := log.With("field", fd.Name)
		switch {
		case seen[fd.Name]:
			ft.Action, ft.Reason = report.ActionSkipped, "duplicate field doc"
		case bodyErr != nil:
			ft.Action, ft.Reason = report.ActionSkipped, bodyErr.Error()
		default:
			slot, err := r.Field(body, fd.Name, ft.Doc, env.opts.Overwrite)
			if errors.Is(err, docpatch.ErrDocPresent) {
				ft.HadExistingDoc = true
			} else if err == nil && slot.Decision == docpatch.Replace {
				ft.HadExistingDoc = true
			}
			ft = env.place(flog, planner, ft, slot, err, ft.QualifiedName)
		}
		seen[fd.Name] = true
		out = append(out, ft)
	}
	return out
}

// place records the outcome of resolving a slot. Resolution errors that only mean "nothing to do" become skips; anything else fails the entry.
func (env *runEnv) place(log health.Ctx, planner *docpatch.Planner, t tracked, slot docpatch.Slot, err error, label string) tracked {
	switch {
	case err == nil:
	case errors.Is(err, docpatch.ErrDocPresent), errors.Is(err, docpatch.ErrEmptyDoc), errors.Is(err, docpatch.ErrSkipped), errors.Is(err, docpatch.ErrFieldNotFound):
		t.Action, t.Reason = report.ActionSkipped, err.Error()
		log.Debug("no edit", "reason", err.Error())
		return t
	default:
		err = log.LogWrappedErr("could not resolve doc slot", err)
		t.Action, t.Reason = report.ActionFailed, err.Error()
		return t
	}
	if err := planner.Add(slot.Edit("", label)); err != nil {
		t.Action, t.Reason = report.ActionFailed, err.Error()
		return t
	}
	t.EditProduced = true
	t.dec = slot.Decision
	return t
}

// spanText returns src[span.StartByte:span.EndByte], or "" when the span does not fit src.
func spanText(src []byte, span docpatch.Span) string {
	if span.StartByte < 0 || span.EndByte <= span.StartByte || span.EndByte > len(src) {
		return ""
	}
	return string(src[span.StartByte:span.EndByte])
}

// sameFileBody returns a body lookup that only knows functions in file (whose bytes are src).
func sameFileBody(src []byte, file string) func(docpatch.Item) string {
	return func(fn docpatch.Item) string {
		if fn.FilePath != file {
			return ""
		}
		return spanText(src, fn.Span)
	}
}
