package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pangea-projects/internal/app"
)

type listOptions struct {
	Backend   string
	Namespace string
	Contains  string
	Backends  backendOptions
}

func newListCommand() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the repositories a backend holds under a namespace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "Configuration key naming the backend, e.g. github.com")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "Namespace to list")
	cmd.Flags().StringVar(&opts.Contains, "contains", "", "Only list names containing this pattern")
	addBackendFlags(cmd, &opts.Backends)
	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, opts listOptions) error {
	service := newAppService()
	result, err := service.List(ctx, app.ListRequest{
		Backend:   opts.Backend,
		Namespace: opts.Namespace,
		Contains:  opts.Contains,
		Backends:  resolveBackends(cmd, opts.Backends),
	})
	if err != nil {
		return err
	}
	for _, name := range result.Names {
		fmt.Println(name)
	}
	return nil
}
