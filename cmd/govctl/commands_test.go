package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"girthgov/internal/app/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunStageInMemoryPrintsReport(t *testing.T) {
	out, err := execute(t, "--memory", "run", pipeline.StageSynthesis)
	require.NoError(t, err)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, pipeline.StageSynthesis, report.Stage)
	assert.False(t, report.Skipped)
	assert.Equal(t, 0, report.Items)
}

func TestRunUnknownStageFails(t *testing.T) {
	_, err := execute(t, "--memory", "run", "unknown")
	require.Error(t, err)
}

func TestStagesListsPipeline(t *testing.T) {
	out, err := execute(t, "--memory", "stages")
	require.NoError(t, err)
	assert.Contains(t, out, pipeline.StageForge)
	assert.Contains(t, out, pipeline.StageVotingRelay)
}

func TestBrakeEngageRequiresReason(t *testing.T) {
	_, err := execute(t, "--memory", "brake", "engage")
	require.Error(t, err)

	out, err := execute(t, "--memory", "brake", "engage", "--reason", "exploit under review", "--duration", "2h")
	require.NoError(t, err)
	assert.Contains(t, out, `"Active": true`)
}
