package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/suite"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

// ValidatorInfo describes one suite validator for `lorecheck validators`.
type ValidatorInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

var validatorsCmd = &cobra.Command{
	Use:   "validators",
	Short: "List validators in run order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		enabled, err := suite.Select(cfg.EnabledValidators(), nil, nil)
		if err != nil {
			return handleError(out, ErrConfigInvalid, err, "Fix the [validators] section of lorecheck.toml")
		}

		var infos []ValidatorInfo
		for _, name := range suite.Names() {
			desc, _ := suite.Describe(name)
			infos = append(infos, ValidatorInfo{Name: name, Description: desc, Enabled: enabled[name]})
		}

		if isJSONOutput() {
			outputSuccess(out, infos, &Meta{Count: len(infos)})
			return nil
		}

		t := ui.NewTable(ui.NewDisplayContext(os.Stdout),
			ui.Column{Header: ""},
			ui.Column{Header: "NAME"},
			ui.Column{Header: "DESCRIPTION", MaxWidth: 70},
		)
		for _, info := range infos {
			t.AddRow(ui.StatusSymbol(info.Enabled, !info.Enabled, 0), info.Name, info.Description)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validatorsCmd)
}
