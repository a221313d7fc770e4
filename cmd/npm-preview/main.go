package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/kyokomi/emoji"
	"github.com/spf13/cobra"

	"github.com/holon-run/npm-preview/pkg/config"
	"github.com/holon-run/npm-preview/pkg/git"
	"github.com/holon-run/npm-preview/pkg/github"
	holonlog "github.com/holon-run/npm-preview/pkg/log"
	"github.com/holon-run/npm-preview/pkg/publisher"
	"github.com/holon-run/npm-preview/pkg/runner"
	"github.com/holon-run/npm-preview/pkg/workspace"
)

var (
	stagingDir     string
	logLevel       string
	registryURL    string
	publishCommand string
	resultFile     string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "npm-preview <github-url>",
	Short: "Publish preview packages of a GitHub repository to pkg.pr.new",
	Long: `Publish preview builds of every public package in a GitHub repository.

The URL may point at a repository (latest commit on the default branch),
a branch or tag (/tree/<ref>), a commit (/commit/<sha>) or a pull request
(/pull/<number>). Runs only inside CI.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPublish(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&stagingDir, "staging-dir", "", "Directory the repository is cloned into (default \"temp\")")
	rootCmd.Flags().StringVar(&registryURL, "registry-url", "", "Base URL of preview package links in the summary")
	rootCmd.Flags().StringVar(&publishCommand, "publish-command", "", "Command that publishes the packages (default \"npx pkg-pr-new publish\")")
	rootCmd.Flags().StringVar(&resultFile, "result-file", "", "Write the run result as JSON to this path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Stream install, build and publish output (implied at debug level)")
	rootCmd.AddCommand(resolveCmd, versionCmd)
}

// settings is the effective configuration of one invocation
type settings struct {
	env     config.Env
	project *config.ProjectConfig
}

func loadSettings() (*settings, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	project, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, err
	}

	level, source := project.ResolveLogLevel(logLevel, config.DefaultLogLevel)
	if source == "default" && env.LogLevel != "" {
		level, source = env.LogLevel, "env"
	}
	if err := holonlog.SetLevel(level); err != nil {
		return nil, err
	}
	holonlog.Debug("configured log level", "level", level, "source", source)

	return &settings{env: env, project: project}, nil
}

func newResolver(env config.Env) *github.Resolver {
	client := github.NewClient(env.Token)
	auth := "anonymous"
	if client.HasToken() {
		auth = "token"
	}
	holonlog.Debug("using GitHub API", "auth", auth)
	return github.NewResolver(client)
}

func runPublish(ctx context.Context, out io.Writer, repoURL string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	staging, _ := s.project.ResolveStagingDir(stagingDir)
	registry, _ := s.project.ResolveRegistryURL(registryURL)
	command, _ := s.project.ResolvePublishCommand(publishCommand)

	sh := runner.NewShellRunner()
	if verbose || holonlog.Enabled(holonlog.LevelDebug) {
		sh.Output = os.Stderr
	}

	p := &publisher.Publisher{
		Resolver:    newResolver(s.env),
		Cloner:      git.NewShallowCloner(),
		Discoverer:  workspace.NewNodeDiscoverer(),
		Runner:      sh,
		CLI:         publisher.NewPkgPRNew(sh, command),
		Env:         s.env,
		StagingDir:  staging,
		RegistryURL: registry,
		Out:         out,
	}

	result, err := p.Publish(ctx, repoURL)
	if err != nil {
		return err
	}

	if resultFile != "" {
		if err := publisher.WriteResult(resultFile, *result); err != nil {
			return err
		}
		holonlog.Info("wrote run result", "path", resultFile)
	}
	return nil
}

var failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

// reportFailure prints the failure line for a run, plus a token hint when
// GitHub rate limited the request.
func reportFailure(w io.Writer, _ fang.Styles, err error) {
	fmt.Fprintln(w, failureStyle.Render(emoji.Sprint(":x:Process failed:"))+" "+err.Error())
	if github.IsRateLimitError(err) {
		fmt.Fprintln(w, "Set GITHUB_TOKEN to use the authenticated GitHub API rate limit.")
	}
}

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(reportFailure),
	); err != nil {
		os.Exit(1)
	}
}
