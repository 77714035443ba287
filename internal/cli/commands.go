package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/goad/internal/datafile"
	"github.com/vk/goad/internal/registry"
	"github.com/vk/goad/internal/systems"
)

func newGenInputsCmd() *cobra.Command {
	var withOptional bool
	var sourceFormat string

	cmd := &cobra.Command{
		Use:   "gen-inputs <config> [source-data-file]",
		Short: "Generate the input data file the configured problem needs",
		Long: "Generates the input file listing the mandatory unconnected " +
			"inputs of the configured model with the NaN placeholder; " +
			"--with-optional includes optional inputs and their defaults. " +
			"Values found in the optional source data file pre-fill the " +
			"generated entries.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfigurator(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 2 {
				source = args[1]
			}
			formatter, err := sourceFormatter(sourceFormat)
			if err != nil {
				return err
			}
			if err := c.WriteNeededInputs(cmd.Context(), source, formatter, withOptional); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Input file written to %s\n", c.Config().InputPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&withOptional, "with-optional", false, "also list optional inputs with their defaults")
	cmd.Flags().StringVar(&sourceFormat, "source-format", "", "format of the source data file (yaml, xml); inferred from its extension when unset")
	return cmd
}

// sourceFormatter maps the --source-format flag to a formatter; empty means
// extension-based inference.
func sourceFormatter(name string) (datafile.Formatter, error) {
	switch name {
	case "":
		return nil, nil
	case "yaml", "yml":
		return &datafile.YAMLFormatter{}, nil
	case "xml":
		return &datafile.XMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown source format %q", name)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config>",
		Short: "Run the configured problem and write its outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfigurator(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := c.GetProblem(cmd.Context(), true)
			if err != nil {
				return err
			}
			result, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := p.WriteOutputs(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s finished after %d iteration(s)\n", result.RunID, result.Iterations)
			fmt.Fprintf(cmd.OutOrStdout(), "Output file written to %s\n", p.OutputPath())
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <config>",
		Short: "Show the assembled model tree and its unconnected inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfigurator(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := c.GetProblem(cmd.Context(), false)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), p.Model().Describe())

			mandatory, optional, err := p.Model().UnconnectedInputs()
			if err != nil {
				return err
			}
			if len(mandatory) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Mandatory unconnected inputs:")
				for _, name := range mandatory {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
			}
			if len(optional) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Optional unconnected inputs (defaults apply):")
				for _, name := range optional {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
			}
			return nil
		},
	}
}

func newListModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-modules [config]",
		Short: "List the available component identifiers",
		Long: "Lists the built-in component identifiers. With a configuration " +
			"file, the module folders it declares are explored first and their " +
			"components included.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reg *registry.Registry
			if len(args) == 1 {
				c, err := loadConfigurator(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				reg = c.Registry()
			} else {
				reg = registry.New()
				if err := systems.RegisterAll(reg); err != nil {
					return err
				}
			}
			for _, id := range reg.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
