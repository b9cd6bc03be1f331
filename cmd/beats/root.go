package main

import (
	"github.com/spf13/cobra"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	vaultRoot    string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "beats",
	Short: "AI scene beats for a manuscript vault",
	Long: `Beats reviews the scenes of a manuscript three at a time and writes the
analysis back into each scene's frontmatter.

Each scene is sent to the configured AI provider together with its previous
and next scene. The answer is parsed into three lists:
  - previousSceneAnalysis: how the previous scene sets this one up
  - currentSceneAnalysis:  a graded review of the scene itself
  - nextSceneAnalysis:     how well this scene hands off to the next

Scenes are chosen by mode (force-all, unprocessed, flagged, smart). Smart
mode remembers which windows were processed and skips them on later runs.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.beats/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "beats home directory (default: ~/.beats)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "", "output format: yaml, json or table",
	)
	rootCmd.PersistentFlags().StringVar(
		&vaultRoot, "vault", "", "manuscript folder (overrides vault.root)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "debug logging",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(scenesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(transcriptsCmd)
	rootCmd.AddCommand(promptsCmd)
}
