package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/notequiz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCalls(t *testing.T, dir string, calls ...store.LLMRequestEventData) {
	t.Helper()
	s, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	defer s.Close()
	for _, c := range calls {
		require.NoError(t, s.EventRepo().AppendLLMRequest(context.Background(), c))
	}
}

func pipelineCalls() []store.LLMRequestEventData {
	return []store.LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4.1-mini", Purpose: "extract", InputTokens: 120, OutputTokens: 60, LatencyMs: 900, Success: true,
			RequestBody: "[user]\nnotes", ResponseBody: `{"concepts":["goroutines"]}`},
		{Provider: "openai", Model: "gpt-4.1-mini", Purpose: "quiz-gen", InputTokens: 400, OutputTokens: 700, LatencyMs: 2100, Success: true},
		{Provider: "openai", Model: "gpt-4.1-mini", Purpose: "quiz-gen", InputTokens: 400, OutputTokens: 0, LatencyMs: 30000, Success: false, ErrorMessage: "context deadline exceeded"},
	}
}

func TestLLMListEmpty(t *testing.T) {
	out, err := execute(t, "llm", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No model calls recorded.")
}

func TestLLMListFailedOnly(t *testing.T) {
	t.Cleanup(func() { _ = llmListCmd.Flags().Set("failed", "false") })
	dir := t.TempDir()
	seedCalls(t, dir, pipelineCalls()...)

	out, err := executeIn(t, dir, "llm", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "extract")
	assert.Contains(t, out, "120/60")

	out, err = executeIn(t, dir, "llm", "list", "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, "failed: context deadline")
	assert.NotContains(t, out, "extract")
	assert.NotContains(t, out, "120/60")
}

func TestLLMListRejectsUnknownPurpose(t *testing.T) {
	t.Cleanup(func() { _ = llmListCmd.Flags().Set("purpose", "") })
	_, err := execute(t, "llm", "list", "--purpose", "skill-gen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fact-check")
}

func TestLLMStatsFollowsPipelineOrder(t *testing.T) {
	dir := t.TempDir()
	seedCalls(t, dir, pipelineCalls()...)

	out, err := executeIn(t, dir, "llm", "stats")
	require.NoError(t, err)

	// quiz-gen has more calls but still prints after the earlier stages.
	order := []string{"classify", "extract", "fact-check", "quiz-gen", "explain"}
	last := -1
	for _, stage := range order {
		i := strings.Index(out, "\n"+stage+" ")
		require.GreaterOrEqual(t, i, 0, "stage %s missing from\n%s", stage, out)
		assert.Greater(t, i, last, "stage %s out of order", stage)
		last = i
	}
	assert.Contains(t, out, "Estimated cost (USD)")
}

func TestLLMViewPrettyPrintsReply(t *testing.T) {
	dir := t.TempDir()
	seedCalls(t, dir, pipelineCalls()[0])

	out, err := executeIn(t, dir, "llm", "view", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "extract (concept extraction)")
	assert.Contains(t, out, "\"concepts\": [\n")

	_, err = executeIn(t, dir, "llm", "view", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOrderByStageKeepsUnknownPurposes(t *testing.T) {
	rows := orderByStage([]store.PurposeUsage{
		{Purpose: "legacy", Calls: 1},
		{Purpose: "explain", Calls: 3},
	})
	require.Len(t, rows, len(pipelineStages)+1)
	assert.Equal(t, "classify", rows[0].Purpose)
	assert.Zero(t, rows[0].Calls)
	assert.Equal(t, 3, rows[4].Calls)
	assert.Equal(t, "legacy", rows[5].Purpose)
}

func TestTruncateIsRuneSafe(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "конс…", truncate("конспект", 5))
}
