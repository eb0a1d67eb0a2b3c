package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pangea-projects/internal/app"
)

type inspectOptions struct {
	OutputDir string
	Top       int
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a written project graph and its report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "Number of most depended-on projects to show")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(app.InspectRequest{
		OutputDir: resolveString(cmd, opts.OutputDir, "output", "output"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("projects: %d\n", result.ProjectCount)
	buckets := make([]string, 0, len(result.Components))
	for bucket := range result.Components {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	for _, bucket := range buckets {
		fmt.Printf("- %s: %d\n", bucket, result.Components[bucket])
	}
	fmt.Println("most depended on:")
	for i, summary := range result.Projects {
		if i >= opts.Top {
			break
		}
		fmt.Printf("- %s: %d dependees, %d dependencies\n", summary.ID, summary.Dependees, summary.Dependencies)
	}
	fmt.Printf("report: %d built, %d skipped, %d aborted, %d collisions\n",
		result.Report.Built, len(result.Report.Skipped), len(result.Report.Aborted), len(result.Report.Collisions))
	for _, record := range result.Report.Aborted {
		fmt.Printf("- aborted %s (%s): %s\n", record.Project, record.Kind, record.Reason)
	}
	return nil
}
