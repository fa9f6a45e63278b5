package debugger

import (
	"fmt"
	"strconv"

	"github.com/objectir/objectir/frame"
	"github.com/objectir/objectir/value"
)

// ExprParser parses a debugger condition expression using precedence
// climbing and evaluates it against a frame's locals and arguments.
// This is a richer, general-purpose boolean expression language than
// the executor's own if/while condition grammar (spec §4.4.4), which
// only supports a single comparison operator per condition; the
// debugger needs compound conditions for breakpoints and watchpoints.
type ExprParser struct {
	tokens []ExprToken
	pos    int
	frame  *frame.Frame
	eval   *ExpressionEvaluator
}

// NewExprParser creates a parser over tokens, resolving identifiers
// against fr and $N history references against eval.
func NewExprParser(tokens []ExprToken, fr *frame.Frame, eval *ExpressionEvaluator) *ExprParser {
	return &ExprParser{tokens: tokens, frame: fr, eval: eval}
}

func (p *ExprParser) currentToken() ExprToken {
	if p.pos >= len(p.tokens) {
		return ExprToken{Type: ExprTokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *ExprParser) advance() { p.pos++ }

// operatorPrecedence ranks the condition language's operators; logical
// operators bind loosest, arithmetic tightest.
func operatorPrecedence(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "==", "!=", "<", "<=", ">", ">=":
		return 3
	case "+", "-":
		return 4
	case "*", "/":
		return 5
	default:
		return 0
	}
}

// Parse parses the whole token stream as one expression.
func (p *ExprParser) Parse() (value.Value, error) {
	result, err := p.parseExpression(0)
	if err != nil {
		return value.Value{}, err
	}
	if p.currentToken().Type != ExprTokenEOF {
		return value.Value{}, fmt.Errorf("unexpected token: %s", p.currentToken().Value)
	}
	return result, nil
}

func (p *ExprParser) parseExpression(minPrecedence int) (value.Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return value.Value{}, err
	}

	for {
		tok := p.currentToken()
		if tok.Type != ExprTokenOperator {
			break
		}
		precedence := operatorPrecedence(tok.Value)
		if precedence == 0 || precedence < minPrecedence {
			break
		}

		op := tok.Value
		p.advance()

		right, err := p.parseExpression(precedence + 1)
		if err != nil {
			return value.Value{}, err
		}

		left, err = applyOperator(left, right, op)
		if err != nil {
			return value.Value{}, err
		}
	}

	return left, nil
}

func (p *ExprParser) parseUnary() (value.Value, error) {
	if tok := p.currentToken(); tok.Type == ExprTokenOperator && (tok.Value == "!" || tok.Value == "-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return value.Value{}, err
		}
		if tok.Value == "!" {
			return value.BoolValue(!operand.IsTruthy()), nil
		}
		if f, ok := operand.AsFloat64(); ok {
			return value.New(-f, operand.Type), nil
		}
		return operand, nil
	}
	return p.parsePrimary()
}

func (p *ExprParser) parsePrimary() (value.Value, error) {
	tok := p.currentToken()

	switch tok.Type {
	case ExprTokenNumber:
		p.advance()
		return parseNumberValue(tok.Value)

	case ExprTokenString:
		p.advance()
		return value.StringValue(tok.Value), nil

	case ExprTokenValueRef:
		p.advance()
		var number int
		if _, err := fmt.Sscanf(tok.Value, "$%d", &number); err != nil {
			return value.Value{}, fmt.Errorf("invalid value reference: %s", tok.Value)
		}
		if p.eval == nil {
			return value.Value{}, fmt.Errorf("no evaluation history available for %s", tok.Value)
		}
		return p.eval.GetValue(number)

	case ExprTokenIdent:
		p.advance()
		switch tok.Value {
		case "true":
			return value.BoolValue(true), nil
		case "false":
			return value.BoolValue(false), nil
		}
		if p.frame != nil {
			if v, err := p.frame.GetLocal(tok.Value); err == nil {
				return v, nil
			}
			if v, err := p.frame.GetArg(tok.Value); err == nil {
				return v, nil
			}
		}
		return value.Value{}, fmt.Errorf("unknown identifier: %s", tok.Value)

	case ExprTokenLParen:
		p.advance()
		result, err := p.parseExpression(0)
		if err != nil {
			return value.Value{}, err
		}
		if p.currentToken().Type != ExprTokenRParen {
			return value.Value{}, fmt.Errorf("expected ')', got %s", p.currentToken().Value)
		}
		p.advance()
		return result, nil

	default:
		return value.Value{}, fmt.Errorf("unexpected token: %s (%s)", tok.Value, tok.Type)
	}
}

func parseNumberValue(s string) (value.Value, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int32Value(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Value{}, err
	}
	return value.DoubleValue(f), nil
}

// applyOperator implements both arithmetic and comparison/logical
// operators over the generic condition language.
func applyOperator(left, right value.Value, op string) (value.Value, error) {
	switch op {
	case "&&":
		return value.BoolValue(left.IsTruthy() && right.IsTruthy()), nil
	case "||":
		return value.BoolValue(left.IsTruthy() || right.IsTruthy()), nil
	}

	if ls, lok := left.Data.(string); lok {
		if rs, rok := right.Data.(string); rok {
			switch op {
			case "==":
				return value.BoolValue(ls == rs), nil
			case "!=":
				return value.BoolValue(ls != rs), nil
			}
		}
	}

	lf, lok := left.AsFloat64()
	rf, rok := right.AsFloat64()
	if !lok || !rok {
		return value.Value{}, fmt.Errorf("incompatible operands for %q", op)
	}

	switch op {
	case "+":
		return value.New(lf+rf, left.Type), nil
	case "-":
		return value.New(lf-rf, left.Type), nil
	case "*":
		return value.New(lf*rf, left.Type), nil
	case "/":
		if rf == 0 {
			return value.Value{}, fmt.Errorf("division by zero")
		}
		return value.New(lf/rf, left.Type), nil
	case "==":
		return value.BoolValue(lf == rf), nil
	case "!=":
		return value.BoolValue(lf != rf), nil
	case "<":
		return value.BoolValue(lf < rf), nil
	case "<=":
		return value.BoolValue(lf <= rf), nil
	case ">":
		return value.BoolValue(lf > rf), nil
	case ">=":
		return value.BoolValue(lf >= rf), nil
	default:
		return value.Value{}, fmt.Errorf("unknown operator: %s", op)
	}
}
