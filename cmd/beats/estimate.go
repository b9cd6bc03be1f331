package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/batch"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/processed"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/selection"
)

var estimateGroup string

type modeEstimate struct {
	Mode     selection.Mode `json:"mode" yaml:"mode"`
	Scenes   int            `json:"scenes" yaml:"scenes"`
	Duration time.Duration  `json:"duration" yaml:"duration"`
}

type estimateReport struct {
	Group  string         `json:"group,omitempty" yaml:"group,omitempty"`
	Modes  []modeEstimate `json:"modes" yaml:"modes"`
	Scenes int            `json:"scenes_in_scope" yaml:"scenes_in_scope"`
}

func (r estimateReport) TableHeader() []string {
	return []string{"Mode", "Scenes", "Est. Time"}
}

func (r estimateReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Modes))
	for _, m := range r.Modes {
		rows = append(rows, []string{string(m.Mode), strconv.Itoa(m.Scenes), m.Duration.Round(time.Second).String()})
	}
	return rows
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Show how many scenes each mode would process",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx, providerOverrides{})
		if err != nil {
			return err
		}
		defer a.Close()

		orch, err := a.orchestrator(nil)
		if err != nil {
			return err
		}

		units, err := a.vault.Load(ctx)
		if err != nil {
			return err
		}
		view, err := processed.Snapshot(ctx, a.set)
		if err != nil {
			return err
		}

		filter := orch.Filter(batch.Request{Group: estimateGroup}, view)
		counts := filter.Counts(units)
		perScene := a.cfg.Batch.ExpectedCallLatency + a.cfg.Batch.InterIterationDelay

		report := estimateReport{Group: estimateGroup, Scenes: len(filter.Select(selection.ModeForceAll, units).Context)}
		for _, m := range selection.Modes {
			report.Modes = append(report.Modes, modeEstimate{
				Mode:     m,
				Scenes:   counts[m],
				Duration: time.Duration(counts[m]) * perScene,
			})
		}
		return api.Output(report)
	},
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateGroup, "group", "g", "", "only count scenes of this subplot")
}
