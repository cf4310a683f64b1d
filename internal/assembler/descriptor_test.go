package assembler

import (
	"testing"

	"github.com/hanpama/graphplug/internal/schema"
	"github.com/stretchr/testify/require"
)

func TestParseTypeDescriptor(t *testing.T) {
	cases := []struct {
		in   string
		base string
		want string
	}{
		{"String", "String", "String"},
		{"String!", "String", "String!"},
		{"[String]", "String", "[String]"},
		{"[entity:node!]!", "entity:node", "[entity:node!]!"},
		{" [ [Int!] ]! ", "Int", "[[Int!]]!"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := ParseTypeDescriptor(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.base, d.Base)
			require.Equal(t, tc.want, d.Apply(schema.NamedType(d.Base)).String())
		})
	}
}

func TestParseTypeDescriptorErrors(t *testing.T) {
	for _, in := range []string{"", "!", "[]", "String!!", "[String", "Str ing", "[String]]"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTypeDescriptor(in)
			require.Error(t, err)
		})
	}
}

func TestDecoratorOrder(t *testing.T) {
	listOfRequired := Named("Int", NonNull, List)
	requiredList := Named("Int", List, NonNull)

	require.Equal(t, "[Int!]", listOfRequired.Apply(schema.NamedType("Int")).String())
	require.Equal(t, "[Int]!", requiredList.Apply(schema.NamedType("Int")).String())
	require.Panics(t, func() { MustParseTypeDescriptor("[") })
}
