// Package expr evaluates routing condition expressions against a fixed, typed
// context. The grammar is deliberately small: a conjunction of named helper
// predicates over submission fields. Evaluation is total and fail-closed:
// a malformed or unknown expression blocks the route instead of approving it.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Context holds the only values a routing condition may inspect.
type Context struct {
	Amount        float64
	Role          string
	QuotaExceeded bool
}

// Evaluator evaluates routing conditions. It is stateless and safe for
// concurrent use.
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator creates a new condition evaluator.
func NewEvaluator(logger *zap.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

// Evaluate returns the boolean value of expression against ctx. An empty
// expression is "always true". Any evaluation failure is logged and returns
// false; failures are never propagated to the caller.
//
// Supported predicates:
//   - amountBetween(min, max): min inclusive, max exclusive; max < 0 means unbounded
//   - roleIn('A', 'B', ...): submitter role membership
//   - quotaExceeded(): customer credit quota flag
//
// Predicates may be joined with && (conjunction only).
func (e *Evaluator) Evaluate(expression string, ctx Context) bool {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true
	}

	for _, term := range strings.Split(expression, "&&") {
		ok, err := e.evaluateTerm(strings.TrimSpace(term), ctx)
		if err != nil {
			e.logger.Warn("condition evaluation failed, treating as not met",
				zap.String("expression", expression),
				zap.String("term", term),
				zap.Error(err))
			return false
		}
		if !ok {
			return false
		}
	}

	return true
}

// evaluateTerm evaluates a single predicate call of the form name(args).
func (e *Evaluator) evaluateTerm(term string, ctx Context) (bool, error) {
	if term == "" {
		return false, fmt.Errorf("empty term")
	}

	open := strings.IndexByte(term, '(')
	if open < 0 || !strings.HasSuffix(term, ")") {
		return false, fmt.Errorf("term %q is not a predicate call", term)
	}

	name := strings.TrimSpace(term[:open])
	args, err := splitArgs(term[open+1 : len(term)-1])
	if err != nil {
		return false, err
	}

	switch name {
	case "amountBetween":
		return e.amountBetween(args, ctx)
	case "roleIn":
		return e.roleIn(args, ctx)
	case "quotaExceeded":
		if len(args) != 0 {
			return false, fmt.Errorf("quotaExceeded takes no arguments, got %d", len(args))
		}
		return ctx.QuotaExceeded, nil
	default:
		return false, fmt.Errorf("unknown predicate %q", name)
	}
}

// amountBetween checks min <= amount < max; a negative max is unbounded.
func (e *Evaluator) amountBetween(args []string, ctx Context) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("amountBetween expects 2 arguments, got %d", len(args))
	}

	min, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return false, fmt.Errorf("invalid lower bound %q: %w", args[0], err)
	}
	max, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return false, fmt.Errorf("invalid upper bound %q: %w", args[1], err)
	}

	if ctx.Amount < min {
		return false, nil
	}
	if max >= 0 && ctx.Amount >= max {
		return false, nil
	}
	return true, nil
}

// roleIn checks submitter role membership; arguments must be quoted literals.
func (e *Evaluator) roleIn(args []string, ctx Context) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("roleIn expects at least 1 argument")
	}

	for _, arg := range args {
		role, err := unquote(arg)
		if err != nil {
			return false, err
		}
		if ctx.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// splitArgs splits a comma separated argument list, trimming whitespace.
// Quoted literals must not themselves contain commas or quotes.
func splitArgs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	args := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty argument in %q", raw)
		}
		args = append(args, part)
	}
	return args, nil
}

// unquote strips single quotes from a string literal argument.
func unquote(s string) (string, error) {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1], nil
	}
	return "", fmt.Errorf("argument %q is not a quoted string literal", s)
}
