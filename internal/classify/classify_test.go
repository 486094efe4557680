package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyeo/internal/syntax"
)

func classOf(t *testing.T, src string) (*syntax.Class, []byte) {
	t.Helper()
	f, err := syntax.NewParser().Parse(context.Background(), "test.py", []byte(src))
	require.NoError(t, err)
	c, ok := syntax.ClassOf(syntax.NamedChildren(f.Root)[0], f.Source)
	require.True(t, ok)
	return c, f.Source
}

func TestClass(t *testing.T) {
	tests := []struct {
		name  string
		bases string
		want  Kind
	}{
		{"no bases", "", Regular},
		{"plain base", "(House)", Regular},
		{"bare Protocol", "(Protocol)", Protocol},
		{"qualified Protocol", "(typing.Protocol)", Protocol},
		{"generic Protocol", "(Protocol[T])", Protocol},
		{"qualified generic Protocol", "(typing.Protocol[T])", Protocol},
		{"Protocol suffix is not Protocol", "(MyProtocol)", Regular},
		{"Enum suffix", "(IntEnum)", Enum},
		{"qualified Enum", "(enum.Enum)", Enum},
		{"Exception suffix", "(ValueException)", Exception},
		{"Error suffix", "(ValueError)", Exception},
		{"TypedDict", "(TypedDict)", TypedRecord},
		{"qualified TypedDict", "(typing_extensions.TypedDict)", TypedRecord},
		{"keyword argument ignored", "(metaclass=Protocol)", Regular},
		{"call matches nothing", "(make_base())", Regular},
		{"OR over bases", "(Protocol, StrEnum)", Protocol | Enum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, src := classOf(t, "class A"+tt.bases+":\n    pass\n")
			got := Class(c, src)
			assert.Equal(t, tt.want, got, "got %s", got)
			assert.Equal(t, tt.want != Regular, IsNotObjFactory(c, src))
		})
	}
}

func TestKind(t *testing.T) {
	k := Protocol | Exception
	assert.True(t, k.Has(Protocol))
	assert.False(t, k.Has(Enum))
	assert.False(t, k.Has(Regular))
	assert.True(t, k.Any(Enum|Exception))
	assert.Equal(t, "Protocol|Exception", k.String())
	assert.Equal(t, "Regular", Regular.String())
	assert.False(t, Regular.NotPlainObject())
}

func TestPredicates(t *testing.T) {
	c, src := classOf(t, "class Color(Enum):\n    RED = 1\n")
	assert.True(t, IsEnum(c, src))
	assert.False(t, IsProtocol(c, src))
	assert.False(t, IsException(c, src))
	assert.False(t, IsTypedRecord(c, src))
}
