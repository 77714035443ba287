package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_NumberLiteral(t *testing.T) {
	t.Parallel()

	val, err := NewEvaluator().Eval("1.0")
	require.NoError(t, err)

	f, err := Float(val)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)
}

func TestEval_RejectsDoubleUnderscore(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()
	for _, source := range []string{
		"__import__('os')",
		"foo__bar",
		"1 + __x",
	} {
		_, err := e.Eval(source)
		var forbidden *ForbiddenTokenError
		require.ErrorAs(t, err, &forbidden, "source: %s", source)
		assert.Equal(t, "__", forbidden.Token)
	}
}

func TestEval_NamespacedSolverConstructor(t *testing.T) {
	t.Parallel()

	val, err := NewEvaluator().Eval("goad::nonlinear_block_gs({maxiter = 30, rtol = 1e-8})")
	require.NoError(t, err)

	spec, ok := AsSolverSpec(val)
	require.True(t, ok)
	assert.Equal(t, "nonlinear_block_gs", spec.Kind)
	assert.Equal(t, 30, spec.MaxIter)
	assert.Equal(t, 1e-8, spec.RTol)
}

func TestEval_SolverConstructorDefaults(t *testing.T) {
	t.Parallel()

	val, err := NewEvaluator().Eval("nonlinear_block_gs()")
	require.NoError(t, err)

	spec, ok := AsSolverSpec(val)
	require.True(t, ok)
	assert.Equal(t, 50, spec.MaxIter)
}

func TestEval_DriverConstructor(t *testing.T) {
	t.Parallel()

	val, err := NewEvaluator().Eval("goad::slsqp_driver({maxiter = 500})")
	require.NoError(t, err)

	spec, ok := AsDriverSpec(val)
	require.True(t, ok)
	assert.Equal(t, "slsqp", spec.Kind)
	assert.Equal(t, 500, spec.MaxIter)
}

func TestEval_RejectsNonFiniteResult(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()
	for _, source := range []string{
		"1/0",
		"-1/0",
		"2 / (3 - 3)",
	} {
		_, err := e.Eval(source)
		require.Error(t, err, "source: %s", source)
		assert.Contains(t, err.Error(), "non-finite", "source: %s", source)
	}
}

func TestEval_UnknownIdentifierFails(t *testing.T) {
	t.Parallel()

	_, err := NewEvaluator().Eval("os.system")
	assert.Error(t, err)
}

func TestEval_UnknownFunctionFails(t *testing.T) {
	t.Parallel()

	_, err := NewEvaluator().Eval("exec(\"rm -rf /\")")
	assert.Error(t, err)
}

func TestEval_UnknownOptionFails(t *testing.T) {
	t.Parallel()

	_, err := NewEvaluator().Eval("nonlinear_block_gs({bogus = 1})")
	assert.Error(t, err)
}
