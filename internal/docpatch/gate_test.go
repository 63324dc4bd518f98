package docpatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		hasDoc    bool
		overwrite bool
		want      Decision
	}{
		{hasDoc: false, overwrite: false, want: Insert},
		{hasDoc: false, overwrite: true, want: Insert},
		{hasDoc: true, overwrite: false, want: Skip},
		{hasDoc: true, overwrite: true, want: Replace},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(tt.hasDoc, tt.overwrite), "hasDoc=%v overwrite=%v", tt.hasDoc, tt.overwrite)
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" FN ")
	assert.True(t, ok)
	assert.Equal(t, KindFunction, k)
	assert.Equal(t, "struct", KindStruct.String())

	_, ok = ParseKind("enum")
	assert.False(t, ok)
}

func TestItem_HasDoc(t *testing.T) {
	assert.False(t, Item{ExistingDoc: " \n\t"}.HasDoc())
	assert.True(t, Item{ExistingDoc: "Opens."}.HasDoc())
}
