package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/home"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/llmcall"
)

var (
	transcriptsScene  string
	transcriptsFailed bool
	transcriptsLimit  int
)

type transcriptList []llmcall.Call

func (l transcriptList) TableHeader() []string {
	return []string{"Time", "Scene", "Provider", "Model", "Tokens", "Latency", "OK", "ID"}
}

func (l transcriptList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		rows = append(rows, []string{
			c.Timestamp.Local().Format(time.DateTime),
			c.Scene,
			c.Provider,
			c.Model,
			fmt.Sprintf("%d/%d", c.InputTokens, c.OutputTokens),
			(time.Duration(c.LatencyMs) * time.Millisecond).String(),
			mark(c.Success),
			c.ID,
		})
	}
	return rows
}

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Browse recorded provider calls (logging.transcripts)",
}

var transcriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		filter := llmcall.QueryFilter{Scene: transcriptsScene, Limit: transcriptsLimit}
		if transcriptsFailed {
			ok := false
			filter.Success = &ok
		}
		calls, err := llmcall.NewStore(h.TranscriptsDir()).List(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return api.Output(transcriptList(calls))
	},
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one recorded call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		call, err := llmcall.NewStore(h.TranscriptsDir()).Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if call == nil {
			return fmt.Errorf("no transcript with id %s", args[0])
		}
		fmt.Printf("# %s  scene %s  %s/%s  success=%s\n", call.ID, call.Scene, call.Provider, call.Model, strconv.FormatBool(call.Success))
		if call.Error != "" {
			fmt.Printf("error: %s\n", call.Error)
		}
		fmt.Printf("\n## System\n\n%s\n\n## User\n\n%s\n\n## Response\n\n%s\n", call.System, call.User, call.Response)
		return nil
	},
}

var transcriptsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token use and latency of recorded calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		st, err := llmcall.NewStore(h.TranscriptsDir()).Stats(cmd.Context(), llmcall.QueryFilter{Scene: transcriptsScene})
		if err != nil {
			return err
		}
		return api.Output(st)
	},
}

func init() {
	transcriptsStatsCmd.Flags().StringVar(&transcriptsScene, "scene", "", "only calls for this scene number")
	transcriptsListCmd.Flags().StringVar(&transcriptsScene, "scene", "", "only calls for this scene number")
	transcriptsListCmd.Flags().BoolVar(&transcriptsFailed, "failed", false, "only failed calls")
	transcriptsListCmd.Flags().IntVarP(&transcriptsLimit, "limit", "n", 50, "maximum calls to list (0 = all)")
	transcriptsCmd.AddCommand(transcriptsListCmd)
	transcriptsCmd.AddCommand(transcriptsShowCmd)
	transcriptsCmd.AddCommand(transcriptsStatsCmd)
}
