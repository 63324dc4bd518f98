package docpatch

import (
	"fmt"
	"sort"
)

// Planner collects the edits for one file.
type Planner struct {
	path  string
	edits []Edit
}

func NewPlanner(path string) *Planner {
	return &Planner{path: path}
}

// Add queues e. An edit with an empty FilePath is attributed to the planner's file; an edit for a different file is rejected.
func (p *Planner) Add(e Edit) error {
	if e.FilePath == "" {
		e.FilePath = p.path
	}
	if e.FilePath != p.path {
		return fmt.Errorf("edit for %q added to planner for %q", e.FilePath, p.path)
	}
	p.edits = append(p.edits, e)
	return nil
}

func (p *Planner) Len() int {
	return len(p.edits)
}

// Plan validates that no two queued edits overlap and returns them ordered by descending start offset. The result does not depend on the order edits were added. On overlap it
// returns an *OverlapError and no plan.
func (p *Planner) Plan() (EditPlan, error) {
	edits := append([]Edit(nil), p.edits...)
	sortDescending(edits)
	for i := 1; i < len(edits); i++ {
		if conflicts(edits[i].Span(), edits[i-1].Span()) {
			return EditPlan{}, &OverlapError{First: edits[i], Second: edits[i-1]}
		}
	}
	return EditPlan{FilePath: p.path, Edits: edits}, nil
}

// PlanFiles groups edits by file and plans each file independently. Files whose edits overlap appear in errs and not in plans; plans are ordered by path.
func PlanFiles(edits []Edit) (plans []EditPlan, errs map[string]error) {
	planners := map[string]*Planner{}
	var paths []string
	for _, e := range edits {
		pl, ok := planners[e.FilePath]
		if !ok {
			pl = NewPlanner(e.FilePath)
			planners[e.FilePath] = pl
			paths = append(paths, e.FilePath)
		}
		_ = pl.Add(e)
	}
	sort.Strings(paths)
	for _, path := range paths {
		plan, err := planners[path].Plan()
		if err != nil {
			if errs == nil {
				errs = map[string]error{}
			}
			errs[path] = err
			continue
		}
		plans = append(plans, plan)
	}
	return plans, errs
}

func sortDescending(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i].Span(), edits[j].Span()
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		if a.End != b.End {
			return a.End > b.End
		}
		return edits[i].NewText < edits[j].NewText
	})
}

// conflicts reports whether lo (the range with the smaller or equal start) and hi intersect. Non-empty ranges conflict when they share a byte. An empty range (an insertion)
// conflicts with a range that strictly contains its offset or starts at it, and with another insertion at the same offset, since the result would depend on order.
func conflicts(lo, hi Range) bool {
	if lo.Start == hi.Start {
		return true
	}
	return hi.Start < lo.End
}
