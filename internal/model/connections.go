package model

import (
	"context"
	"sort"

	"github.com/vk/goad/internal/ctxlog"
	"github.com/vk/goad/internal/variable"
)

// UnconnectedInputs partitions the input ports that no output of the model
// feeds. An input port is identified by its absolute name; it is mandatory
// when its declared default is the NaN sentinel, optional otherwise. The
// partition is recomputed on every call, never cached.
func (m *Model) UnconnectedInputs() (mandatory, optional []string, err error) {
	if !m.setupDone {
		return nil, nil, &NotReadyError{Operation: "analysis of unconnected inputs"}
	}

	for _, promoted := range m.inputOrder {
		if _, connected := m.promotedOutputs[promoted]; connected {
			continue
		}
		for _, ref := range m.inputRefs[promoted] {
			if variable.AllNaN(ref.Def.InputDefault()) {
				mandatory = append(mandatory, ref.AbsName)
			} else {
				optional = append(optional, ref.AbsName)
			}
		}
	}
	return mandatory, optional, nil
}

// UnconnectedInputVariables consolidates the unconnected inputs into a
// variable set keyed by promoted name. Mandatory identities are processed
// before optional ones and a promoted name is recorded only once, so a name
// that is mandatory on one path and optional on another stays mandatory
// with the NaN default. A name that is optional through several distinct
// defaults keeps the first default encountered in declaration order; this
// tie-break is deterministic and deliberate, not a correctness claim.
func (m *Model) UnconnectedInputVariables(withOptional bool) (*variable.Set, error) {
	mandatory, optional, err := m.UnconnectedInputs()
	if err != nil {
		return nil, err
	}

	refsByAbs := make(map[string]*PortRef)
	for _, refs := range m.inputRefs {
		for _, ref := range refs {
			refsByAbs[ref.AbsName] = ref
		}
	}

	set := variable.NewSet()
	processed := make(map[string]struct{})
	appendPorts := func(absNames []string) error {
		for _, absName := range absNames {
			ref := refsByAbs[absName]
			if _, done := processed[ref.Promoted]; done {
				continue
			}
			processed[ref.Promoted] = struct{}{}

			v, err := variable.New(ref.Promoted, variable.Metadata{
				Value: ref.Def.InputDefault(),
				Units: ref.Def.Units,
				Desc:  ref.Def.Desc,
			})
			if err != nil {
				return err
			}
			if err := set.Append(v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := appendPorts(mandatory); err != nil {
		return nil, err
	}
	if withOptional {
		if err := appendPorts(optional); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// LogUnconnectedInputs reports the partition through the context logger:
// missing mandatory inputs are errors, optional ones warnings with the
// default that will be used.
func (m *Model) LogUnconnectedInputs(ctx context.Context) error {
	mandatory, optional, err := m.UnconnectedInputs()
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	if len(mandatory) > 0 {
		sorted := append([]string(nil), mandatory...)
		sort.Strings(sorted)
		logger.Error("Following inputs are required and not connected:")
		for _, absName := range sorted {
			logger.Error("    " + absName)
		}
	}
	if len(optional) > 0 {
		sorted := append([]string(nil), optional...)
		sort.Strings(sorted)
		logger.Warn("Following inputs are not connected so their default value will be used:")
		for _, absName := range sorted {
			logger.Warn("    " + absName)
		}
	}
	return nil
}

// OutputVariables returns one variable per promoted output name, carrying
// the declared metadata of the first identity found for that name.
func (m *Model) OutputVariables() (*variable.Set, error) {
	if !m.setupDone {
		return nil, &NotReadyError{Operation: "output collection"}
	}

	set := variable.NewSet()
	for _, promoted := range m.outputOrder {
		ref := m.outputRefs[promoted][0]
		v, err := variable.New(promoted, variable.Metadata{
			Value: ref.Def.OutputDefault(),
			Units: ref.Def.Units,
			Desc:  ref.Def.Desc,
		})
		if err != nil {
			return nil, err
		}
		if err := set.Append(v); err != nil {
			return nil, err
		}
	}
	return set, nil
}
