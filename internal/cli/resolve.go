package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/ui"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <type> <token>",
	Short: "Show how a reference token resolves",
	Long: `Resolve a reference token against one entity type the way the
references validator does: by id, then by normalized title or alias. Slugged
ids also match when the schema sets normalization.slug_ids.

Examples:
  lorecheck resolve character C1
  lorecheck resolve poem "quiet night thought"`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	typeName, token := args[0], args[1]

	sch, err := loadSchema(cmd)
	if err != nil {
		return err
	}
	if _, ok := sch.Entity(typeName); !ok {
		return handleErrorMsg(out, ErrTypeNotFound,
			fmt.Sprintf("unknown entity type %q", typeName),
			"Known types: "+strings.Join(sch.EntityTypes(), ", "))
	}

	snap, err := buildSnapshot(cmd.Context(), sch)
	if err != nil {
		return handleError(out, ErrInternal, err, "")
	}
	res := snap.Index.ResolveString(token, typeName)

	if res.Ambiguous {
		if isJSONOutput() {
			outputError(out, ErrRefAmbiguous, fmt.Sprintf("%q matches %d %s", token, len(res.Matches), typeName),
				map[string]any{"matches": res.Matches, "via": res.Via.String()}, "Use an id instead")
			return &silentError{err: fmt.Errorf("ambiguous reference %q", token)}
		}
		return fmt.Errorf("ambiguous reference %q in %s: matches %s", token, typeName, strings.Join(res.Matches, ", "))
	}
	if !res.Resolved() {
		return handleErrorMsg(out, ErrRefNotFound,
			fmt.Sprintf("%q does not resolve to any %s", token, typeName), "")
	}

	if isJSONOutput() {
		data := map[string]any{
			"type":  typeName,
			"token": token,
			"id":    res.ID,
			"via":   res.Via.String(),
		}
		if e, ok := snap.Index.Lookup(typeName, res.ID); ok {
			data["document"] = e.Document
		}
		outputSuccess(out, data, nil)
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", ui.Success(res.ID), ui.Hint("via "+res.Via.String()))
	return nil
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
