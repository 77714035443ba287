// Package expr is the restricted expression evaluator used for attribute
// assignments and driver selection in problem configurations.
//
// Expressions are parsed as single HCL expressions and evaluated against a
// context that exposes no host variables and only an allowlisted table of
// constructor functions under the "goad" namespace. Literals, collection
// constructors and allowlisted calls are therefore the whole grammar;
// anything else fails to resolve. As an extra guard matching the trust
// boundary of configuration files, any source containing a double
// underscore is rejected before parsing.
package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ForbiddenTokenError reports a restricted-evaluation source that contained
// a forbidden token and was rejected before evaluation.
type ForbiddenTokenError struct {
	Source string
	Token  string
}

func (e *ForbiddenTokenError) Error() string {
	return fmt.Sprintf("forbidden token %q in expression %q", e.Token, e.Source)
}

const forbiddenToken = "__"

// Evaluator evaluates restricted expressions. The zero value is not usable;
// construct with NewEvaluator.
type Evaluator struct {
	ctx *hcl.EvalContext
}

// NewEvaluator builds an evaluator over the allowlisted namespace.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		ctx: &hcl.EvalContext{
			Functions: namespaceFunctions(),
		},
	}
}

// Eval parses and evaluates source as a single expression. Sources
// containing a double underscore are rejected before parsing.
func (e *Evaluator) Eval(source string) (cty.Value, error) {
	if strings.Contains(source, forbiddenToken) {
		return cty.NilVal, &ForbiddenTokenError{Source: source, Token: forbiddenToken}
	}

	parsed, diags := hclsyntax.ParseExpression([]byte(source), "<expression>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("parsing expression %q: %w", source, diags)
	}
	return e.EvalExpression(parsed)
}

// EvalExpression evaluates an already parsed expression against the
// restricted context. Numeric results must be finite: HCL arithmetic
// yields infinity on division by zero instead of failing, and a
// configuration that produces infinity is an authoring error, not a value.
func (e *Evaluator) EvalExpression(expression hcl.Expression) (cty.Value, error) {
	val, diags := expression.Value(e.ctx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if !val.IsNull() && val.Type().Equals(cty.Number) && val.AsBigFloat().IsInf() {
		return cty.NilVal, fmt.Errorf("expression produced a non-finite number")
	}
	return val, nil
}

// Float converts a numeric result to float64.
func Float(v cty.Value) (float64, error) {
	if v == cty.NilVal || !v.Type().Equals(cty.Number) {
		return 0, fmt.Errorf("expected a number, got %s", friendlyType(v))
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}

func friendlyType(v cty.Value) string {
	if v == cty.NilVal {
		return "nil"
	}
	return v.Type().FriendlyName()
}
