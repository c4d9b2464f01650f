package main

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wkitt4/tcprtt/internal/ping"
)

func listen(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	return ln.Addr().String()
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, ping.ExitOK, run([]string{"-h"}, &out))
	assert.Contains(t, out.String(), "Destination format")
}

func TestRunUsageError(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, ping.ExitFailure, run([]string{"-4", "-6", "localhost"}, &out))
	assert.Contains(t, out.String(), "Only one IP version can be specified")
	assert.Contains(t, out.String(), "Destination format")
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, ping.ExitOK, run([]string{"-v", "--no-color"}, &out))
	assert.Equal(t, "tcprtt version \n", out.String())
}

func TestRunAgainstListener(t *testing.T) {
	addr := listen(t)

	var out bytes.Buffer
	code := run([]string{"--no-color", "-n", "2", "-i", "1", addr}, &out)
	assert.Equal(t, ping.ExitOK, code)

	text := out.String()
	assert.Contains(t, text, "    0: Reply from 127.0.0.1 - rto=")
	assert.Contains(t, text, "    1: Reply from 127.0.0.1 - rto=")
	assert.Contains(t, text, "    2 pings sent.\n")
	assert.Contains(t, text, "    2 successful. Success Rate: 100.00%\n")
}

func TestRunRefusedExitsWithFailure(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	var out bytes.Buffer
	code := run([]string{"--no-color", "-n", "1", addr}, &out)
	assert.Equal(t, ping.ExitFailure, code)
	assert.Contains(t, out.String(), "    0: No reply - rto=")
	assert.Contains(t, out.String(), "No statistics collected.")
}

func TestRunResolutionError(t *testing.T) {
	var out bytes.Buffer
	code := run([]string{"--no-color", "-n", "1", "-6", "127.0.0.1"}, &out)
	assert.Equal(t, ping.ExitFailure, code)
	assert.Contains(t, out.String(), "IPv6 address is not found")
	assert.NotContains(t, out.String(), "Summary")
}

func TestRunJSONWithSinks(t *testing.T) {
	addr := listen(t)
	dir := t.TempDir()

	var out bytes.Buffer
	code := run([]string{
		"-j", "-n", "1",
		"--csv", filepath.Join(dir, "run.csv"),
		"--db", filepath.Join(dir, "run.db"),
		"--log-file", filepath.Join(dir, "run.log"),
		addr,
	}, &out)
	assert.Equal(t, ping.ExitOK, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var types []string
	for _, line := range lines {
		var event struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{"start", "probe", "statistics"}, types)

	assert.FileExists(t, filepath.Join(dir, "run.csv"))
	assert.FileExists(t, filepath.Join(dir, "run_stats.csv"))
	assert.FileExists(t, filepath.Join(dir, "run.db"))
	assert.FileExists(t, filepath.Join(dir, "run.log"))
}

func TestRunReportsSinkWriteError(t *testing.T) {
	addr := listen(t)
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "run_stats.csv"), 0o755))

	var out bytes.Buffer
	code := run([]string{"--no-color", "-n", "1", "--csv", filepath.Join(dir, "run.csv"), addr}, &out)
	assert.Equal(t, ping.ExitFailure, code)
	assert.Contains(t, out.String(), "    1 successful. Success Rate: 100.00%\n")
	assert.Contains(t, out.String(), "failed to write output: ")
}
