package debugger

import (
	"testing"

	"github.com/objectir/objectir/frame"
	"github.com/objectir/objectir/value"
)

func TestExpressionEvaluator_Numbers(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)

	tests := []struct {
		name string
		expr string
		want int64
	}{
		{"Decimal", "42", 42},
		{"Negative", "-1", -1},
		{"Sum", "2 + 3", 5},
		{"Precedence", "2 + 3 * 4", 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateExpression(tt.expr, fr)
			if err != nil {
				t.Fatalf("EvaluateExpression() error = %v", err)
			}
			n, _ := got.AsInt64()
			if n != tt.want {
				t.Errorf("EvaluateExpression() = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_Locals(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)
	fr.SetLocal("i", value.Int32Value(3))
	fr.SetLocal("total", value.Int32Value(10))

	got, err := eval.EvaluateExpression("i < total", fr)
	if err != nil {
		t.Fatalf("EvaluateExpression() error = %v", err)
	}
	if !got.IsTruthy() {
		t.Error("expected i < total to be true")
	}
}

func TestExpressionEvaluator_Args(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", map[string]value.Value{"arg1": value.Int32Value(42)})

	got, err := eval.EvaluateExpression("arg1 == 42", fr)
	if err != nil {
		t.Fatalf("EvaluateExpression() error = %v", err)
	}
	if !got.IsTruthy() {
		t.Error("expected arg1 == 42 to be true")
	}
}

func TestExpressionEvaluator_Strings(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)
	fr.SetLocal("name", value.StringValue("done"))

	got, err := eval.EvaluateExpression(`name == "done"`, fr)
	if err != nil {
		t.Fatalf("EvaluateExpression() error = %v", err)
	}
	if !got.IsTruthy() {
		t.Error("expected name == \"done\" to be true")
	}
}

func TestExpressionEvaluator_LogicalOperators(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)
	fr.SetLocal("i", value.Int32Value(2))

	got, err := eval.EvaluateExpression("i > 0 && i < 5", fr)
	if err != nil {
		t.Fatalf("EvaluateExpression() error = %v", err)
	}
	if !got.IsTruthy() {
		t.Error("expected i > 0 && i < 5 to be true")
	}
}

func TestExpressionEvaluator_Evaluate_Condition(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)
	fr.SetLocal("i", value.Int32Value(4))

	ok, err := eval.Evaluate("i == 4", fr)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !ok {
		t.Error("expected condition to be true")
	}
}

func TestExpressionEvaluator_UnknownIdentifier(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)

	if _, err := eval.EvaluateExpression("missing", fr); err == nil {
		t.Error("expected error for unknown identifier")
	}
}

func TestExpressionEvaluator_ValueHistory(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)

	if _, err := eval.EvaluateExpression("10", fr); err != nil {
		t.Fatalf("EvaluateExpression() error = %v", err)
	}

	got, err := eval.EvaluateExpression("$1 + 5", fr)
	if err != nil {
		t.Fatalf("EvaluateExpression() error = %v", err)
	}
	n, _ := got.AsInt64()
	if n != 15 {
		t.Errorf("EvaluateExpression($1 + 5) = %d, want 15", n)
	}
}

func TestExpressionEvaluator_Reset(t *testing.T) {
	eval := NewExpressionEvaluator()
	fr := frame.New("Main", nil)

	_, _ = eval.EvaluateExpression("1", fr)
	eval.Reset()

	if _, err := eval.GetValue(1); err == nil {
		t.Error("expected error after Reset cleared value history")
	}
}
