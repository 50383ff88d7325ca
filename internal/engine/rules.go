package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"research-backend/internal/metadata"
)

// EvaluateChecks runs every check of the resource against a coerced write
// payload. action is "create" or "update"; on update the record holds only
// the fields being changed.
func EvaluateChecks(res *metadata.Resource, record map[string]any, action string) []ErrorDetail {
	if len(res.Checks) == 0 {
		return nil
	}

	env := map[string]any{
		"record": record,
		"action": action,
	}

	var errs []ErrorDetail
	for _, c := range res.Checks {
		if detail := EvaluateCheck(c, env); detail != nil {
			errs = append(errs, *detail)
		}
	}
	return errs
}

// CompileExpression compiles an expression string into an expr-lang program.
func CompileExpression(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	return prog, nil
}

// EvaluateCheck returns nil if the check passes (expression is false), or an
// ErrorDetail if it is violated (expression is true).
func EvaluateCheck(c *metadata.Check, env map[string]any) *ErrorDetail {
	prog, ok := c.Compiled.(*vm.Program)
	if !ok || prog == nil {
		compiled, err := CompileExpression(c.Expression)
		if err != nil {
			return &ErrorDetail{Field: c.Field, Rule: "expression", Message: fmt.Sprintf("compile error: %v", err)}
		}
		c.Compiled = compiled
		prog = compiled
	}

	result, err := expr.Run(prog, env)
	if err != nil {
		return &ErrorDetail{Field: c.Field, Rule: "expression", Message: fmt.Sprintf("rule evaluation error: %v", err)}
	}

	violated, ok := result.(bool)
	if !ok || !violated {
		return nil
	}

	msg := c.Message
	if msg == "" {
		msg = "Expression rule violated"
	}
	return &ErrorDetail{Field: c.Field, Rule: "expression", Message: msg}
}

// CompileChecks compiles every check of every resource up front so a broken
// expression fails at startup instead of on the first write.
func CompileChecks(resources []*metadata.Resource) error {
	for _, res := range resources {
		for _, c := range res.Checks {
			prog, err := CompileExpression(c.Expression)
			if err != nil {
				return fmt.Errorf("%s check on %q: %w", res.Name, c.Field, err)
			}
			c.Compiled = prog
		}
	}
	return nil
}
