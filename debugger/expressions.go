package debugger

import (
	"fmt"

	"github.com/objectir/objectir/frame"
	"github.com/objectir/objectir/value"
)

// ExpressionEvaluator evaluates debugger condition expressions against
// a running frame, and keeps a history of results addressable as $1,
// $2, and so on for later expressions in the same session.
type ExpressionEvaluator struct {
	valueHistory []value.Value
}

func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// EvaluateExpression evaluates expr against fr and records the result
// in the value history.
func (e *ExpressionEvaluator) EvaluateExpression(expr string, fr *frame.Frame) (value.Value, error) {
	result, err := e.evaluate(expr, fr)
	if err != nil {
		return value.Value{}, err
	}
	e.valueHistory = append(e.valueHistory, result)
	return result, nil
}

// Evaluate evaluates expr as a boolean condition, for breakpoint and
// watchpoint conditions.
func (e *ExpressionEvaluator) Evaluate(expr string, fr *frame.Frame) (bool, error) {
	result, err := e.evaluate(expr, fr)
	if err != nil {
		return false, err
	}
	return result.IsTruthy(), nil
}

// HistorySize reports how many results are in the value history.
func (e *ExpressionEvaluator) HistorySize() int {
	return len(e.valueHistory)
}

// GetValue returns a value from history by its 1-based number.
func (e *ExpressionEvaluator) GetValue(number int) (value.Value, error) {
	if number < 1 || number > len(e.valueHistory) {
		return value.Value{}, fmt.Errorf("value $%d not in history", number)
	}
	return e.valueHistory[number-1], nil
}

func (e *ExpressionEvaluator) evaluate(expr string, fr *frame.Frame) (value.Value, error) {
	if expr == "" {
		return value.Value{}, fmt.Errorf("empty expression")
	}

	tokens := NewExprLexer(expr).TokenizeAll()
	parser := NewExprParser(tokens, fr, e)
	return parser.Parse()
}

// Reset clears the value history.
func (e *ExpressionEvaluator) Reset() {
	e.valueHistory = e.valueHistory[:0]
}
