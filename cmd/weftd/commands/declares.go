package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/weftrpc/weft/internal/cli/output"
	"github.com/weftrpc/weft/pkg/declare"
)

var (
	declaresOutput  string
	declaresModules []string
)

var declaresCmd = &cobra.Command{
	Use:   "declares",
	Short: "List the method surface a set of modules would register",
	Long: `Load one or more declare module plugins and list the Declares they
register, without starting a server. Useful for checking a plugin before
pointing "weftd start --module" at it in production.

Examples:
  weftd declares --module ./helloworld.so
  weftd declares --module ./helloworld.so --output json`,
	RunE: runDeclares,
}

func init() {
	declaresCmd.Flags().StringSliceVar(&declaresModules, "module", nil, "Path to a declare module plugin (.so); repeatable")
	declaresCmd.Flags().StringVarP(&declaresOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

type declareInfo struct {
	Name     string `json:"name" yaml:"name"`
	MinArity int    `json:"min_arity" yaml:"min_arity"`
	MaxArity int    `json:"max_arity" yaml:"max_arity"`
	Mode     string `json:"mode" yaml:"mode"`
}

func (d declareInfo) arityString() string {
	if d.MaxArity < 0 {
		return fmt.Sprintf("%d..", d.MinArity)
	}
	if d.MinArity == d.MaxArity {
		return strconv.Itoa(d.MinArity)
	}
	return fmt.Sprintf("%d..%d", d.MinArity, d.MaxArity)
}

type declareTable []declareInfo

func (t declareTable) Headers() []string { return []string{"Name", "Arity", "Mode"} }

func (t declareTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, d := range t {
		rows = append(rows, []string{d.Name, d.arityString(), d.Mode})
	}
	return rows
}

func runDeclares(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(declaresOutput)
	if err != nil {
		return err
	}

	reg := declare.NewRegistry()
	if len(declaresModules) > 0 {
		if err := LoadModules(declaresModules, reg); err != nil {
			return fmt.Errorf("failed to load modules: %w", err)
		}
	}

	names := reg.Names()
	infos := make(declareTable, 0, len(names))
	for _, name := range names {
		d := reg.Resolve(name)
		infos = append(infos, declareInfo{
			Name:     d.Name,
			MinArity: d.MinArity,
			MaxArity: d.MaxArity,
			Mode:     d.Mode.String(),
		})
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, infos)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, infos)
	default:
		if len(infos) == 0 {
			fmt.Println("No declares registered.")
			return nil
		}
		return output.PrintTable(os.Stdout, infos)
	}
}
