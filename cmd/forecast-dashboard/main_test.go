package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const results = `ID,Model,MAE,RMSE
1001,SES_0.1,5.0,6.0
1001,Holt_0.1_0.1,3.0,7.0
1001,Holt-Winters_0.1_0.1_0.1,4.0,2.0
1002,SES_0.3,1.0,1.5
1002,Holt_0.5_0.5,2.0,1.0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummarizePretty(t *testing.T) {
	data := writeFile(t, "results.csv", results)
	cfg := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := runRoot(t, "summarize", "--config", cfg, "--log-level", "error", "--file", data)
	require.NoError(t, err)
	assert.Contains(t, out, "--- Best model per ID by MAE ---")
	assert.Contains(t, out, "1001 | Holt_0.1_0.1 | 3.0000")
	assert.Contains(t, out, "1002 | SES_0.3 | 1.0000")
	assert.Contains(t, out, "Holt | 1 | 50.00%")
}

func TestSummarizeCSVWithMetric(t *testing.T) {
	data := writeFile(t, "results.csv", results)
	cfg := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := runRoot(t, "summarize", "--config", cfg, "--log-level", "error",
		"--file", data, "--metric", "rmse", "--output-format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "1001,Holt-Winters_0.1_0.1_0.1,4.0,2.0\n1002,Holt_0.5_0.5,2.0,1.0\n")
	assert.Contains(t, out, "Holt-Winters,1,50.00")
}

func TestSummarizeErrors(t *testing.T) {
	data := writeFile(t, "results.csv", results)
	cfg := filepath.Join(t.TempDir(), "missing.yaml")

	tests := map[string][]string{
		"missing file flag": {"summarize", "--config", cfg},
		"unknown metric":    {"summarize", "--config", cfg, "--file", data, "--metric", "SMAPE"},
		"bad output format": {"summarize", "--config", cfg, "--file", data, "--output-format", "xml"},
		"metric column":     {"summarize", "--config", cfg, "--file", data, "--metric", "MAPE"},
		"no such file":      {"summarize", "--config", cfg, "--file", filepath.Join(t.TempDir(), "nope.csv")},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := runRoot(t, append(args, "--log-level", "error")...)
			assert.Error(t, err)
		})
	}
}

func TestInvalidConfiguration(t *testing.T) {
	data := writeFile(t, "results.csv", results)
	cfg := writeFile(t, "dashboard.yaml", "dashboard:\n  defaultMetric: MAPE\n  metrics: [MAE]\n")

	_, err := runRoot(t, "summarize", "--config", cfg, "--file", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestPruneInterval(t *testing.T) {
	assert.Equal(t, 30*time.Minute, pruneInterval(2*time.Hour))
	assert.Equal(t, time.Minute, pruneInterval(time.Minute))
}
