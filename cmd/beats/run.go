package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/batch"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/config"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/selection"
)

var (
	runMode     string
	runGroup    string
	runYes      bool
	runProvider string
	runModel    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze scenes and write beats into their frontmatter",
	Long: `Run selects scenes by mode, shows how many will be processed and how long
it should take, then asks the provider about each scene in manuscript order.

Modes:
  force-all    every ready scene
  unprocessed  ready scenes without any analysis yet
  flagged      ready scenes with "Beats Update: Yes"
  smart        flagged scenes whose window was not processed before

Press Ctrl+C to stop; the scene in flight is not written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := loadApp(ctx, providerOverrides{provider: runProvider, model: runModel})
		if err != nil {
			return err
		}
		defer a.Close()

		modeName := runMode
		if modeName == "" {
			modeName = a.cfg.Batch.Mode
		}
		mode, err := selection.ParseMode(modeName)
		if err != nil {
			return err
		}

		orch, err := a.orchestrator(newTerminalProgress())
		if err != nil {
			return err
		}

		// Run configuration is read once; edits only affect the next run.
		a.cfgMgr.OnChange(func(*config.Config) {
			a.logger.Warn("config file changed; changes apply to the next run")
		})
		a.cfgMgr.WatchConfig()

		stop := context.AfterFunc(ctx, orch.Abort)
		defer stop()

		req := batch.Request{Mode: mode, Group: runGroup}
		plan, err := orch.Confirm(ctx, req)
		for {
			if err != nil {
				return err
			}
			if plan.Total == 0 {
				fmt.Fprintf(os.Stderr, "No scenes to process in %s mode.\n", plan.Mode)
				return nil
			}
			printPlan(plan, a.provider.Provider, a.provider.Model)
			if !runYes {
				if !stdinIsTerminal() {
					return fmt.Errorf("refusing to run without --yes when stdin is not a terminal")
				}
				if !confirm("Proceed?") {
					fmt.Fprintln(os.Stderr, "Cancelled.")
					return nil
				}
			}

			var sum *batch.Summary
			sum, err = orch.Run(ctx, plan)
			if err != nil {
				return err
			}
			logThrottling(a)
			if err := api.Output(sum); err != nil {
				return err
			}

			switch sum.State {
			case batch.StateFailed:
				return fmt.Errorf("%s", sum.Message)
			case batch.StateAborted:
				if ctx.Err() != nil || !stdinIsTerminal() || !confirm(fmt.Sprintf("Resume in %s mode?", sum.Mode)) {
					return nil
				}
				plan, err = orch.Resume(ctx)
				continue
			}
			return nil
		}
	},
}

// logThrottling reports time spent waiting on the local requests-per-minute cap.
func logThrottling(a *app) {
	st, ok := a.gateway.RateLimitStatus(a.provider.Provider)
	if !ok {
		return
	}
	level := slog.LevelDebug
	if st.TotalWaited > 0 {
		level = slog.LevelInfo
	}
	a.logger.Log(context.Background(), level, "request rate cap",
		"provider", a.provider.Provider, "limit_per_minute", st.TokensLimit,
		"requests", st.TotalConsumed, "waited", st.TotalWaited.Round(time.Millisecond))
}

func printPlan(plan *batch.Plan, provider, model string) {
	scope := "manuscript"
	if plan.Group != "" {
		scope = "group " + plan.Group
	}
	fmt.Fprintf(os.Stderr, "%d scenes to process (%s mode, %s) with %s/%s\n",
		plan.Total, plan.Mode, scope, provider, model)
	fmt.Fprintf(os.Stderr, "Estimated time %s, about %d input tokens\n",
		plan.Estimate.Duration.Round(time.Second), plan.Estimate.InputTokens)
}

func init() {
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "", "force-all, unprocessed, flagged or smart (default: batch.mode)")
	runCmd.Flags().StringVarP(&runGroup, "group", "g", "", "only process scenes of this subplot")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "provider to use (overrides provider)")
	runCmd.Flags().StringVar(&runModel, "model", "", "model to use (overrides the provider's model)")
}
