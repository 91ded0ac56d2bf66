package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"guardian/internal/guardian"
)

func (a *app) newPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and validate decision policies.",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active policy and its hash.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.policy()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format, _ := cmd.Flags().GetString("output"); format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Policy guardian.Policy `json:"policy"`
					Hash   string          `json:"hash"`
				}{p, p.Hash()})
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(p)
			case "table", "":
				return writePolicy(out, p)
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
		},
	}
	show.Flags().StringP("output", "o", "table", "Output format: table, json or yaml")

	validate := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check policy files for errors.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				p, err := guardian.LoadPolicy(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %v\n", errColor.Sprint("invalid"), path, err)
					continue
				}
				fmt.Fprintf(out, "%s %s: version %s, hash %s\n", okColor.Sprint("valid"), path, p.Version, shortHash(p.Hash()))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d policy files are invalid", failed, len(args))
			}
			return nil
		},
	}

	cmd.AddCommand(show, validate)
	return cmd
}
