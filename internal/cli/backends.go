package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pangea-projects/internal/adapters"
	"pangea-projects/internal/app"
)

// backendOptions carries the repository host settings that are exposed as
// flags. Host layout keys are read from config or environment only.
type backendOptions struct {
	GitHubToken  string
	GitLabToken  string
	GitLabURL    string
	SSHKey       string
	SSHKnownHost string
	NeonURLBase  string
}

func addBackendFlags(cmd *cobra.Command, opts *backendOptions) {
	cmd.Flags().StringVar(&opts.GitHubToken, "github-token", "", "GitHub API token")
	cmd.Flags().StringVar(&opts.GitLabToken, "gitlab-token", "", "GitLab API token")
	cmd.Flags().StringVar(&opts.GitLabURL, "gitlab-url", "", "GitLab API base URL")
	cmd.Flags().StringVar(&opts.SSHKey, "ssh-key", "", "SSH private key for git and listing hosts")
	cmd.Flags().StringVar(&opts.SSHKnownHost, "ssh-known-hosts", "", "SSH known_hosts file")
	cmd.Flags().StringVar(&opts.NeonURLBase, "neon-url-base", "", "Packaging URL base for the neon host")
	_ = viper.BindPFlag("github_token", cmd.Flags().Lookup("github-token"))
	_ = viper.BindPFlag("gitlab_token", cmd.Flags().Lookup("gitlab-token"))
	_ = viper.BindPFlag("gitlab_url", cmd.Flags().Lookup("gitlab-url"))
	_ = viper.BindPFlag("ssh_key", cmd.Flags().Lookup("ssh-key"))
	_ = viper.BindPFlag("ssh_known_hosts", cmd.Flags().Lookup("ssh-known-hosts"))
	_ = viper.BindPFlag("neon_url_base", cmd.Flags().Lookup("neon-url-base"))
}

func resolveBackends(cmd *cobra.Command, opts backendOptions) app.BackendSettings {
	return app.BackendSettings{
		NeonGitHost:      viper.GetString("neon_git_host"),
		NeonURLBase:      resolveString(cmd, opts.NeonURLBase, "neon_url_base", "neon-url-base"),
		DebianGitHost:    viper.GetString("debian_git_host"),
		DebianGitRoot:    viper.GetString("debian_git_root"),
		DebianURLBase:    viper.GetString("debian_url_base"),
		GitHubToken:      resolveString(cmd, opts.GitHubToken, "github_token", "github-token"),
		GitHubAPIURL:     viper.GetString("github_api_url"),
		GitHubURLBase:    viper.GetString("github_url_base"),
		GitLabToken:      resolveString(cmd, opts.GitLabToken, "gitlab_token", "gitlab-token"),
		GitLabURL:        resolveString(cmd, opts.GitLabURL, "gitlab_url", "gitlab-url"),
		GitLabURLBase:    viper.GetString("gitlab_url_base"),
		LaunchpadURLBase: viper.GetString("launchpad_url_base"),
		L10nHost:         viper.GetString("l10n_host"),
		L10nRoot:         viper.GetString("l10n_root"),
		L10nURLBase:      viper.GetString("l10n_url_base"),
		GitSSHUser:       viper.GetString("git_ssh_user"),
		SSH: adapters.SSHConfig{
			KeyPath:         resolveString(cmd, opts.SSHKey, "ssh_key", "ssh-key"),
			KnownHostsPath:  resolveString(cmd, opts.SSHKnownHost, "ssh_known_hosts", "ssh-known-hosts"),
			InsecureHostKey: viper.GetBool("ssh_insecure_host_key"),
			Password:        viper.GetString("ssh_password"),
			Timeout:         viper.GetDuration("ssh_timeout"),
		},
	}
}
