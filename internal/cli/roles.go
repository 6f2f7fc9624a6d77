package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var roleHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))

func newRolesCmd() *cobra.Command {
	var rolesFile string

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List the registered discussion roles",
		Long: `List the built-in roles plus any roles merged from a YAML role pack,
with their capabilities and weighted requirements.

Examples:
  moot roles
  moot roles --roles-file team-roles.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := buildRegistry(rolesFile)
			if err != nil {
				return err
			}

			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(registry.List())
			}

			out := cmd.OutOrStdout()
			for _, role := range registry.List() {
				fmt.Fprintln(out, roleHeaderStyle.Render(fmt.Sprintf("%s (%s)", role.Name, role.ID)))
				fmt.Fprintf(out, "  capability: %s", role.Primary)
				if len(role.Secondary) > 0 {
					secs := make([]string, len(role.Secondary))
					for i, s := range role.Secondary {
						secs[i] = string(s)
					}
					fmt.Fprintf(out, " (+%s)", strings.Join(secs, ", "))
				}
				fmt.Fprintln(out)
				for _, req := range role.Requirements {
					fmt.Fprintf(out, "  requirement: %-24s validator=%-22s weight=%.1f\n",
						req.Name, req.Validator, req.Weight)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rolesFile, "roles-file", "", "YAML role pack to merge into the registry")
	return cmd
}
