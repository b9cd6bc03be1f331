package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/processed"
)

var cacheClearYes bool

type cacheList []processed.Entry

func (l cacheList) TableHeader() []string {
	return []string{"Key", "Recorded"}
}

func (l cacheList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{e.Key, e.RecordedAt.Local().Format(time.DateTime)})
	}
	return rows
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the record of processed scene windows",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx, providerOverrides{})
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.set.Keys(ctx)
		if err != nil {
			return err
		}
		return api.Output(cacheList(entries))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every processed window so smart mode reprocesses flagged scenes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx, providerOverrides{})
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.set.Len(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(os.Stderr, "Processed set is already empty.")
			return nil
		}
		if !cacheClearYes && !confirm(fmt.Sprintf("Forget %d processed windows?", n)) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
		if err := a.set.Clear(ctx); err != nil {
			return err
		}
		a.logger.Info("processed set cleared", "keys", n, "path", a.set.Path())
		return api.Output(map[string]int{"cleared": n})
	},
}

func init() {
	cacheClearCmd.Flags().BoolVarP(&cacheClearYes, "yes", "y", false, "skip the confirmation prompt")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
