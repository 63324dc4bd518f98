package docpatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_EmptyPlanIsIdentity(t *testing.T) {
	src := []byte("fn main() {}\n")
	out, err := Apply(src, EditPlan{FilePath: "a.rs"})
	require.NoError(t, err)
	assert.Equal(t, src, out)

	out, err = Apply(nil, EditPlan{})
	require.NoError(t, err)
	assert.Equal(t, []byte{}, out)
}

func TestApply_OriginalCoordinates(t *testing.T) {
	src := []byte("aaa\nbbb\nccc\n")
	p := NewPlanner("a.rs")
	require.NoError(t, p.Add(ins(0, "/// a\n")))
	require.NoError(t, p.Add(repl(4, 8, "BBB\n")))
	require.NoError(t, p.Add(ins(8, "/// c\n")))
	plan, err := p.Plan()
	require.NoError(t, err)

	out, err := Apply(src, plan)
	require.NoError(t, err)
	assert.Equal(t, "/// a\naaa\nBBB\n/// c\nccc\n", string(out))
	assert.Equal(t, "aaa\nbbb\nccc\n", string(src), "original must not be modified")
}

func TestApply_Errors(t *testing.T) {
	src := []byte("abc")

	_, err := Apply(src, EditPlan{Edits: []Edit{ins(4, "x")}})
	var re *RangeError
	assert.ErrorAs(t, err, &re)

	_, err = Apply(src, EditPlan{Edits: []Edit{ins(0, "x"), ins(2, "y")}})
	assert.ErrorIs(t, err, ErrOverlap, "ascending order is rejected")
}
