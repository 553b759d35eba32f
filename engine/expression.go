package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

// An Evaluator evaluates a single expression against a context mapping.
// It is invoked by sequence flow condition checks and by IO parameter mappings.
type Evaluator interface {
	Evaluate(expression string, context map[string]any) (any, error)
}

// NewExprEvaluator creates the default [Evaluator], based on expr-lang.
// Undefined variables evaluate to nil instead of failing, so that conditions
// over not-yet-set variables resolve to false.
func NewExprEvaluator() Evaluator {
	return exprEvaluator{}
}

type exprEvaluator struct{}

func (exprEvaluator) Evaluate(expression string, context map[string]any) (any, error) {
	program, err := expr.Compile(expression, expr.Env(context), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %v", expression, err)
	}

	value, err := expr.Run(program, context)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %v", expression, err)
	}

	return value, nil
}

var templateRegexp = regexp.MustCompile(`\$\{([^}]*)\}`)

// Resolve resolves a "${...}" template value.
//
// A value that is a single template expression yields the raw evaluation
// result, preserving its type. A value mixing text and templates yields a
// string with each template substituted. A value without templates is
// returned as is.
func Resolve(evaluator Evaluator, value string, context map[string]any) (any, error) {
	matches := templateRegexp.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(value) {
		return evaluator.Evaluate(value[matches[0][2]:matches[0][3]], context)
	}

	var sb strings.Builder

	offset := 0
	for _, match := range matches {
		sb.WriteString(value[offset:match[0]])

		result, err := evaluator.Evaluate(value[match[2]:match[3]], context)
		if err != nil {
			return nil, err
		}
		if result != nil {
			sb.WriteString(fmt.Sprintf("%v", result))
		}

		offset = match[1]
	}

	sb.WriteString(value[offset:])
	return sb.String(), nil
}

// IsTruthy reports if a condition result fires its sequence flow.
// nil, false, zero numbers and empty strings do not fire.
func IsTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
