package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/batch"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/processed"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/selection"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/triplet"
)

var scenesGroup string

type sceneRow struct {
	Number    string `json:"number" yaml:"number"`
	Title     string `json:"title" yaml:"title"`
	Status    string `json:"status" yaml:"status"`
	Words     int    `json:"words" yaml:"words"`
	Ready     bool   `json:"ready" yaml:"ready"`
	Flagged   bool   `json:"flagged" yaml:"flagged"`
	Analyzed  bool   `json:"analyzed" yaml:"analyzed"`
	Processed bool   `json:"processed" yaml:"processed"`
	Key       string `json:"key" yaml:"key"`
}

type sceneList []sceneRow

func (l sceneList) TableHeader() []string {
	return []string{"#", "Title", "Status", "Words", "Ready", "Flagged", "Analyzed", "Processed"}
}

func (l sceneList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{
			s.Number, s.Title, s.Status, strconv.Itoa(s.Words),
			mark(s.Ready), mark(s.Flagged), mark(s.Analyzed), mark(s.Processed),
		})
	}
	return rows
}

func mark(b bool) string {
	if b {
		return "✓"
	}
	return ""
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List scenes with their readiness and analysis state",
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

		filter := orch.Filter(batch.Request{Group: scenesGroup}, view)
		sel := filter.Select(selection.ModeForceAll, units)

		list := make(sceneList, 0, len(sel.Context))
		for i, tr := range triplet.Build(sel.Context, sel.Context, filter.Triplets) {
			u := sel.Context[i]
			key := triplet.KeyFor(tr, scenesGroup)
			list = append(list, sceneRow{
				Number:    u.Number(),
				Title:     u.Title,
				Status:    strings.Join(u.Metadata.Strings(scene.FieldStatus), ", "),
				Words:     u.Words(),
				Ready:     filter.Ready(u),
				Flagged:   u.Metadata.UpdateRequested(),
				Analyzed:  u.Metadata.HasAnalysis(),
				Processed: view.Contains(key),
				Key:       key,
			})
		}
		return api.Output(list)
	},
}

func init() {
	scenesCmd.Flags().StringVarP(&scenesGroup, "group", "g", "", "only list scenes of this subplot")
}
