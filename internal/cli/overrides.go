package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pangea-projects/internal/app"
)

type overridesOptions struct {
	OverrideFiles []string
	URL           string
	Kind          string
	Branch        string
}

func newOverridesCommand() *cobra.Command {
	opts := overridesOptions{}
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Show the override rules that apply to a packaging repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOverrides(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "", "Packaging repository URL")
	cmd.Flags().StringSliceVar(&opts.OverrideFiles, "overrides", nil, "Override files, later files win")
	cmd.Flags().StringVar(&opts.Kind, "type", "git", "SCM type")
	cmd.Flags().StringVar(&opts.Branch, "branch", "kubuntu_unstable", "Packaging branch")
	_ = viper.BindPFlag("override_files", cmd.Flags().Lookup("overrides"))
	return cmd
}

func runOverrides(cmd *cobra.Command, opts overridesOptions) error {
	service := newAppService()
	result, err := service.Overrides(app.OverridesRequest{
		OverrideFiles: resolveStrings(cmd, opts.OverrideFiles, "override_files", "overrides"),
		Kind:          opts.Kind,
		URL:           opts.URL,
		Branch:        opts.Branch,
	})
	if err != nil {
		return err
	}
	fmt.Println(result.SCM.String())
	members := make([]string, 0, len(result.Rules))
	for member := range result.Rules {
		members = append(members, member)
	}
	sort.Strings(members)
	for _, member := range members {
		rule := result.Rules[member]
		if rule.Null {
			fmt.Printf("%s: null\n", member)
			continue
		}
		fields := make([]string, 0, len(rule.Fields))
		for field := range rule.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			value := "null"
			if rule.Fields[field] != nil {
				value = *rule.Fields[field]
			}
			fmt.Printf("%s.%s: %s\n", member, field, value)
		}
	}
	return nil
}
