package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pangea-projects/internal/app"
)

type validateOptions struct {
	ProjectsConfig string
	OverrideFiles  []string
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the project configuration and override files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.ProjectsConfig, "projects", "", "Project configuration file")
	cmd.Flags().StringSliceVar(&opts.OverrideFiles, "overrides", nil, "Override files")
	_ = viper.BindPFlag("projects_config", cmd.Flags().Lookup("projects"))
	_ = viper.BindPFlag("override_files", cmd.Flags().Lookup("overrides"))
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		ConfigPath:    resolveString(cmd, opts.ProjectsConfig, "projects_config", "projects"),
		OverrideFiles: resolveStrings(cmd, opts.OverrideFiles, "override_files", "overrides"),
	})
	if err != nil {
		return err
	}
	for _, section := range result.Sections {
		fmt.Printf("%s (%s): %d entries\n", section.Type, section.Backend, section.Entries)
	}
	fmt.Printf("override rules: %d\n", result.OverrideRules)
	fmt.Println("validated")
	return nil
}
