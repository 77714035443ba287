// Package runtime executes an assembled model: it seeds a value table from
// the provided inputs, schedules components topologically, and resolves
// feedback loops with block Gauss-Seidel sweeps under the group's nonlinear
// solver.
package runtime

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/vk/goad/internal/ctxlog"
	"github.com/vk/goad/internal/model"
	"github.com/vk/goad/internal/registry"
	"github.com/vk/goad/internal/variable"
)

// ConvergenceError reports a solver loop that ran out of iterations before
// reaching its tolerance.
type ConvergenceError struct {
	RunID      string
	Iterations int
	Residual   float64
	RTol       float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("run %s did not converge after %d iterations (residual %.3e, rtol %.3e)",
		e.RunID, e.Iterations, e.Residual, e.RTol)
}

// MissingInputsError reports mandatory inputs still at the NaN sentinel when
// an execution was requested.
type MissingInputsError struct {
	Names []string
}

func (e *MissingInputsError) Error() string {
	return fmt.Sprintf("cannot run: mandatory inputs have no value: %s", strings.Join(e.Names, ", "))
}

// Result is the outcome of one execution.
type Result struct {
	RunID      string
	Iterations int
	Residual   float64
	Outputs    *variable.Set
}

// Runner drives a setup model. It is stateless between runs; every Run
// starts from a fresh value table.
type Runner struct {
	model *model.Model
}

// New wraps a model for execution. The model must already have been setup.
func New(m *model.Model) *Runner {
	return &Runner{model: m}
}

// Run executes the model once. Provided input variables override the
// declared defaults of unconnected inputs; connected values are produced by
// the components themselves. Feedback loops require a nonlinear solver on
// the root group.
func (r *Runner) Run(ctx context.Context, inputs *variable.Set) (*Result, error) {
	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", runID)

	table, err := r.seedTable(inputs)
	if err != nil {
		return nil, err
	}
	if err := r.checkMandatory(table); err != nil {
		return nil, err
	}

	order, cyclic := r.schedule()
	result := &Result{RunID: runID}

	if !cyclic {
		logger.Debug("Executing acyclic model.", "components", len(order))
		for _, comp := range order {
			if err := executeComponent(ctx, comp, table); err != nil {
				return nil, err
			}
		}
		result.Iterations = 1
	} else {
		solver := r.model.Root().Solver()
		if solver == nil {
			return nil, fmt.Errorf("model contains a feedback loop and no nonlinear solver is configured")
		}
		logger.Debug("Executing model with feedback.",
			"solver", solver.Kind, "maxiter", solver.MaxIter, "rtol", solver.RTol)

		iterations, residual, err := r.solveSweeps(ctx, solver.MaxIter, solver.RTol, table)
		result.Iterations = iterations
		result.Residual = residual
		if err != nil {
			if conv, ok := err.(*ConvergenceError); ok {
				conv.RunID = runID
			}
			return result, err
		}
		logger.Debug("Solver converged.", "iterations", iterations, "residual", residual)
	}

	outputs, err := r.collectOutputs(table)
	if err != nil {
		return nil, err
	}
	result.Outputs = outputs
	return result, nil
}

// seedTable builds the initial value table: declared defaults for every
// unconnected input, declared output defaults as starting guesses for
// feedback values, then the caller's inputs on top.
func (r *Runner) seedTable(inputs *variable.Set) (map[string][]float64, error) {
	table := make(map[string][]float64)

	defaults, err := r.model.UnconnectedInputVariables(true)
	if err != nil {
		return nil, err
	}
	for _, v := range defaults.Variables() {
		table[v.Name()] = append([]float64(nil), v.Value()...)
	}

	outputs, err := r.model.OutputVariables()
	if err != nil {
		return nil, err
	}
	for _, v := range outputs.Variables() {
		table[v.Name()] = append([]float64(nil), v.Value()...)
	}

	if inputs != nil {
		for _, v := range inputs.Variables() {
			table[v.Name()] = append([]float64(nil), v.Value()...)
		}
	}
	return table, nil
}

func (r *Runner) checkMandatory(table map[string][]float64) error {
	required, err := r.model.UnconnectedInputVariables(false)
	if err != nil {
		return err
	}
	var missing []string
	for _, name := range required.Names() {
		if variable.AllNaN(table[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingInputsError{Names: missing}
	}
	return nil
}

// schedule orders the components by data dependency via Kahn's algorithm.
// When a dependency cycle exists the declaration order is returned instead
// and cyclic is true; the caller must then iterate.
func (r *Runner) schedule() (order []*model.Component, cyclic bool) {
	comps := r.model.Components()

	producers := make(map[string][]int)
	for i, comp := range comps {
		for _, port := range comp.System().Def.Outputs {
			producers[port.Name] = append(producers[port.Name], i)
		}
	}

	indegree := make([]int, len(comps))
	dependents := make([][]int, len(comps))
	for i, comp := range comps {
		for _, port := range comp.System().Def.Inputs {
			for _, p := range producers[port.Name] {
				if p == i {
					continue
				}
				dependents[p] = append(dependents[p], i)
				indegree[i]++
			}
		}
	}

	var queue []int
	for i := range comps {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, comps[i])
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(order) < len(comps) {
		return comps, true
	}
	return order, false
}

// solveSweeps runs block Gauss-Seidel sweeps in declaration order until the
// relative change of the output vector drops below rtol.
func (r *Runner) solveSweeps(ctx context.Context, maxIter int, rtol float64, table map[string][]float64) (int, float64, error) {
	comps := r.model.Components()
	prev := r.outputVector(table)
	residual := math.Inf(1)

	for iter := 1; iter <= maxIter; iter++ {
		for _, comp := range comps {
			if err := executeComponent(ctx, comp, table); err != nil {
				return iter, residual, err
			}
		}

		cur := r.outputVector(table)
		if len(cur) == len(prev) && len(cur) > 0 {
			residual = floats.Distance(prev, cur, 2) / (floats.Norm(cur, 2) + 1e-30)
		}
		if residual <= rtol {
			return iter, residual, nil
		}
		prev = cur
	}
	return maxIter, residual, &ConvergenceError{Iterations: maxIter, Residual: residual, RTol: rtol}
}

// outputVector flattens all promoted output values in declaration order.
func (r *Runner) outputVector(table map[string][]float64) []float64 {
	names, err := r.model.PromotedOutputNames()
	if err != nil {
		return nil
	}
	var vec []float64
	for _, name := range names {
		vec = append(vec, table[name]...)
	}
	return vec
}

func (r *Runner) collectOutputs(table map[string][]float64) (*variable.Set, error) {
	outputs, err := r.model.OutputVariables()
	if err != nil {
		return nil, err
	}
	for _, v := range outputs.Variables() {
		if value, ok := table[v.Name()]; ok {
			if err := v.SetValue(value); err != nil {
				return nil, err
			}
		}
	}
	return outputs, nil
}

func executeComponent(ctx context.Context, comp *model.Component, table map[string][]float64) error {
	sys := comp.System()

	in := make(map[string][]float64, len(sys.Def.Inputs))
	for _, port := range sys.Def.Inputs {
		value, ok := table[port.Name]
		if !ok {
			value = port.InputDefault()
		}
		in[port.Name] = value
	}

	out := make(map[string][]float64, len(sys.Def.Outputs))
	call := registry.NewCall(in, out, sys.Options)
	if err := sys.Compute(ctx, call); err != nil {
		return fmt.Errorf("component %s: %w", comp.Path(), err)
	}

	for _, port := range sys.Def.Outputs {
		if value, ok := out[port.Name]; ok {
			table[port.Name] = value
		}
	}
	return nil
}
