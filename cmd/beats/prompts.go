package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/api"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/home"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/prompts"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/prompts/beats"
)

var promptsEjectForce bool

type promptRow struct {
	Key        string   `json:"key" yaml:"key"`
	Hash       string   `json:"hash" yaml:"hash"`
	Overridden bool     `json:"overridden" yaml:"overridden"`
	Path       string   `json:"path" yaml:"path"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

type promptList []promptRow

func (l promptList) TableHeader() []string {
	return []string{"Key", "Hash", "Override", "Path"}
}

func (l promptList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		rows = append(rows, []string{p.Key, p.Hash[:12], mark(p.Overridden), p.Path})
	}
	return rows
}

func promptResolver() (*prompts.Resolver, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	r := prompts.NewResolver(h.PromptsDir(), nil)
	beats.RegisterPrompts(r)
	return r, nil
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect or customize the prompt templates",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt templates and whether they are overridden",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := promptResolver()
		if err != nil {
			return err
		}
		var list promptList
		for _, key := range r.Keys() {
			p, err := r.Resolve(key)
			if err != nil {
				return err
			}
			list = append(list, promptRow{
				Key:        key,
				Hash:       p.Hash,
				Overridden: p.IsOverride,
				Path:       r.OverridePath(key),
				Variables:  p.Variables,
			})
		}
		return api.Output(list)
	},
}

var promptsEjectCmd = &cobra.Command{
	Use:   "eject <key>",
	Short: "Copy a built-in template to the override directory for editing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := promptResolver()
		if err != nil {
			return err
		}
		p, err := r.Resolve(args[0])
		if err != nil {
			return err
		}
		path := r.OverridePath(args[0])
		if _, err := os.Stat(path); err == nil && !promptsEjectForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(p.Text), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

func init() {
	promptsEjectCmd.Flags().BoolVar(&promptsEjectForce, "force", false, "overwrite an existing override")
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsEjectCmd)
}
