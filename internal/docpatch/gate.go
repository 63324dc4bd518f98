package docpatch

// Decision is the outcome of the overwrite gate for one item.
type Decision int

const (
	Skip Decision = iota
	Insert
	Replace
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	}
	return "unknown"
}

// Decide is the overwrite gate. Items without documentation get an insertion; documented items are replaced only when overwrite is set and are skipped otherwise.
func Decide(hasExistingDoc, overwrite bool) Decision {
	switch {
	case !hasExistingDoc:
		return Insert
	case overwrite:
		return Replace
	default:
		return Skip
	}
}
