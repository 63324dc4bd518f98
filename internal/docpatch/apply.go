package docpatch

import (
	"slices"
)

// Apply applies plan to a copy of original and returns the result. Edits are applied from the highest start offset down so earlier offsets stay valid; every offset refers to
// original. An empty plan returns an identical copy. original is never modified.
func Apply(original []byte, plan EditPlan) ([]byte, error) {
	out := slices.Clone(original)
	if out == nil {
		out = []byte{}
	}
	if plan.Empty() {
		return out, nil
	}

	lowest := len(original) + 1
	var prev Edit
	for i, e := range plan.Edits {
		r := e.Span()
		if r.Start < 0 || r.End < r.Start || r.End > len(original) {
			return nil, &RangeError{Edit: e, Size: len(original)}
		}
		if i > 0 && (r.End > lowest || r.Start == lowest) {
			return nil, &OverlapError{First: e, Second: prev}
		}
		out = slices.Concat(out[:r.Start], []byte(e.NewText), out[r.End:])
		lowest = r.Start
		prev = e
	}
	return out, nil
}
