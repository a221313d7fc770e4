package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <github-url>",
	Short: "Resolve a GitHub URL to a repository and ref",
	Long: `Resolve a GitHub URL and print the repository and ref as JSON.

Bare repository URLs resolve to the latest commit on the default branch;
pull request URLs resolve to the head repository and branch.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		ref, err := newResolver(s.env).Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ref)
	},
}
