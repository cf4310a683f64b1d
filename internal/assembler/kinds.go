package assembler

import "github.com/hanpama/graphplug/internal/schema"

// Kind groups type references by the schema type kind they build.
type Kind string

const (
	KindObject    Kind = "object"
	KindInterface Kind = "interface"
	KindUnion     Kind = "union"
	KindScalar    Kind = "scalar"
	KindEnum      Kind = "enum"
	KindInput     Kind = "input"
)

// Kinds lists every type kind in a stable order.
var Kinds = []Kind{KindObject, KindInterface, KindUnion, KindScalar, KindEnum, KindInput}

// SchemaKind returns the schema type kind built for k.
func (k Kind) SchemaKind() schema.TypeKind {
	switch k {
	case KindObject:
		return schema.TypeKindObject
	case KindInterface:
		return schema.TypeKindInterface
	case KindUnion:
		return schema.TypeKindUnion
	case KindScalar:
		return schema.TypeKindScalar
	case KindEnum:
		return schema.TypeKindEnum
	case KindInput:
		return schema.TypeKindInputObject
	}
	return ""
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool { return k.SchemaKind() != "" }
