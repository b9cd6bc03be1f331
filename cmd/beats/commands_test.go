package main

import (
	"testing"
	"time"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/config"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/selection"
)

func TestRedacted(t *testing.T) {
	t.Setenv("BEATS_TEST_SET_KEY", "secret")

	cfg := config.DefaultConfig()
	cfg.Providers["anthropic"] = config.ProviderCfg{APIKey: "sk-ant-literal"}
	cfg.Providers["openai"] = config.ProviderCfg{APIKey: "${BEATS_TEST_SET_KEY}"}
	cfg.Providers["gemini"] = config.ProviderCfg{APIKey: "${BEATS_TEST_UNSET_KEY}"}

	out := redacted(cfg)

	tests := map[string]string{
		"anthropic": "********",
		"openai":    "${BEATS_TEST_SET_KEY} (set)",
		"gemini":    "${BEATS_TEST_UNSET_KEY} (unset)",
	}
	for name, want := range tests {
		if got := out.Providers[name].APIKey; got != want {
			t.Errorf("%s key = %q, want %q", name, got, want)
		}
	}
	if cfg.Providers["anthropic"].APIKey != "sk-ant-literal" {
		t.Error("redacted modified the original config")
	}
}

func TestTableRows(t *testing.T) {
	t.Run("scenes", func(t *testing.T) {
		rows := sceneList{{Number: "2", Title: "Arrival", Words: 120, Ready: true}}.TableRows()
		want := []string{"2", "Arrival", "", "120", "✓", "", "", ""}
		if len(rows) != 1 || len(rows[0]) != len(want) {
			t.Fatalf("rows = %v", rows)
		}
		for i := range want {
			if rows[0][i] != want[i] {
				t.Errorf("col %d = %q, want %q", i, rows[0][i], want[i])
			}
		}
	})

	t.Run("estimate", func(t *testing.T) {
		r := estimateReport{Modes: []modeEstimate{{Mode: selection.ModeSmart, Scenes: 3, Duration: 66400 * time.Millisecond}}}
		rows := r.TableRows()
		if len(rows) != 1 || rows[0][0] != "smart" || rows[0][1] != "3" || rows[0][2] != "1m6s" {
			t.Errorf("rows = %v", rows)
		}
	})

	t.Run("headers match rows", func(t *testing.T) {
		if len(sceneList{}.TableHeader()) != 8 {
			t.Error("scene header width")
		}
		if len(cacheList{}.TableHeader()) != 2 || len(transcriptList{}.TableHeader()) != 8 {
			t.Error("header width")
		}
	})
}
