package names_test

import (
	"testing"

	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/value"
	"github.com/stretchr/testify/assert"
)

func TestTokenizePath(t *testing.T) {
	segs, anchored, terminal := names.TokenizePath("/a/b:var")
	assert.True(t, anchored)
	assert.Equal(t, []string{"a", "b"}, segs)
	assert.Equal(t, "var", terminal)

	segs, anchored, terminal = names.TokenizePath("a.b/c:var")
	assert.False(t, anchored)
	assert.Equal(t, []string{"a", "b", "c"}, segs)
	assert.Equal(t, "var", terminal)

	segs, _, terminal = names.TokenizePath("var")
	assert.Nil(t, segs)
	assert.Equal(t, "var", terminal)
}

func TestCaseSensitive(t *testing.T) {
	assert.False(t, names.CaseSensitive(6))
	assert.True(t, names.CaseSensitive(7))
}

func TestFold(t *testing.T) {
	assert.Equal(t, names.Fold("_X"), names.Fold("_x"))
}

type stubLookup struct {
	candidates map[value.StringHandle][]names.Namespace
}

func (s stubLookup) TraitCandidates(n value.StringHandle) []names.Namespace {
	return s.candidates[n]
}

func TestResolveMultinameTieBreakByNamespaceSetOrder(t *testing.T) {
	in := value.NewInterner()
	foo := in.Intern("foo")
	n1 := names.Namespace{Kind: names.Public, URI: in.Intern("N1")}
	n2 := names.Namespace{Kind: names.Public, URI: in.Intern("N2")}

	lookup := stubLookup{candidates: map[value.StringHandle][]names.Namespace{
		foo: {n2, n1},
	}}

	mn := names.Multiname{Name: foo, HasName: true, NSSet: names.NamespaceSet{n1, n2}}
	qn, ok := names.ResolveMultiname(lookup, mn)
	assert.True(t, ok)
	assert.Equal(t, n1, qn.NS)

	// Without n1 in scope, foo still resolves through its n2 declaration.
	mn2 := names.Multiname{Name: foo, HasName: true, NSSet: names.NamespaceSet{n2}}
	_, ok = names.ResolveMultiname(lookup, mn2)
	assert.True(t, ok)
}
