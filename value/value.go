// Package value defines the tagged runtime value type that flows through
// ObjectIR operand stacks, locals, and arguments.
package value

import "fmt"

// Type identifies the runtime type of a Value. It is a closed enum: every
// stack slot, local, and argument carries exactly one of these tags.
type Type int

const (
	Int32 Type = iota
	Int64
	Float
	Double
	String
	Bool
	Void
	Object
)

var typeNames = map[Type]string{
	Int32:  "System.Int32",
	Int64:  "System.Int64",
	Float:  "System.Float",
	Double: "System.Double",
	String: "System.String",
	Bool:   "System.Boolean",
	Void:   "System.Void",
	Object: "System.Object",
}

// String returns the canonical ObjectIR type name, e.g. "System.Int32".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", t)
}

// ParseType maps a type name to a Type. The "System." prefix is optional
// and case-insensitive, matching the IR text format (spec §6.1). Unknown
// names default to Object, mirroring the parser's lenient posture.
func ParseType(name string) Type {
	normalized := normalizeTypeName(name)
	if t, ok := shortNameTypes[normalized]; ok {
		return t
	}
	return Object
}

var shortNameTypes = map[string]Type{
	"int32":   Int32,
	"int64":   Int64,
	"float":   Float,
	"double":  Double,
	"string":  String,
	"bool":    Bool,
	"boolean": Bool,
	"void":    Void,
	"object":  Object,
}

func normalizeTypeName(name string) string {
	lowered := []rune(name)
	for i, r := range lowered {
		if r >= 'A' && r <= 'Z' {
			lowered[i] = r + ('a' - 'A')
		}
	}
	s := string(lowered)
	const prefix = "system."
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	}
	return s
}

// Value is a single tagged stack slot, local, or argument. Data holds the
// dynamically-typed payload: int64 for Int32/Int64, float64 for
// Float/Double, string for String, bool for Bool, and any host reference
// (possibly nil) for Object. Void is never materialized as a Value.
type Value struct {
	Data any
	Type Type
}

func New(data any, t Type) Value { return Value{Data: data, Type: t} }

func Int32Value(v int64) Value  { return Value{Data: v, Type: Int32} }
func Int64Value(v int64) Value  { return Value{Data: v, Type: Int64} }
func FloatValue(v float64) Value { return Value{Data: v, Type: Float} }
func DoubleValue(v float64) Value { return Value{Data: v, Type: Double} }
func StringValue(v string) Value { return Value{Data: v, Type: String} }
func BoolValue(v bool) Value     { return Value{Data: v, Type: Bool} }
func Null() Value                { return Value{Data: nil, Type: Object} }

// DefaultFor returns the zero value for a type: 0 for integers, 0.0 for
// floating point, false for Bool, and a null Object for everything else.
func DefaultFor(t Type) Value {
	switch t {
	case Int32, Int64:
		return Value{Data: int64(0), Type: t}
	case Float, Double:
		return Value{Data: float64(0), Type: t}
	case Bool:
		return Value{Data: false, Type: Bool}
	default:
		return Value{Data: nil, Type: t}
	}
}

// IsTruthy reports whether the value is boolean true. Used by condition
// evaluation, which only ever treats Bool(true) as true (spec §4.4.4).
func (v Value) IsTruthy() bool {
	return v.Type == Bool && v.Data == true
}

// AsFloat64 coerces a numeric Value's payload to float64 for comparison
// and arithmetic involving floating-point operands.
func (v Value) AsFloat64() (float64, bool) {
	switch d := v.Data.(type) {
	case int64:
		return float64(d), true
	case float64:
		return d, true
	default:
		return 0, false
	}
}

// AsInt64 coerces a numeric Value's payload to int64, truncating any
// floating-point payload toward zero.
func (v Value) AsInt64() (int64, bool) {
	switch d := v.Data.(type) {
	case int64:
		return d, true
	case float64:
		return int64(d), true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%v", v.Data)
}
