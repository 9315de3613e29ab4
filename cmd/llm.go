package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/store"
	"github.com/spf13/cobra"
)

// pipelineStages lists purpose labels in the order a quiz run issues them.
var pipelineStages = []struct {
	purpose string
	what    string
}{
	{llm.PurposeClassify, "note classification"},
	{llm.PurposeExtract, "concept extraction"},
	{llm.PurposeFactCheck, "fact checking"},
	{llm.PurposeQuiz, "question generation"},
	{llm.PurposeExplain, "wrong-answer explanations"},
}

func stageDescription(purpose string) string {
	for _, s := range pipelineStages {
		if s.purpose == purpose {
			return s.what
		}
	}
	return "unknown stage"
}

func validPurpose(purpose string) error {
	if purpose == "" {
		return nil
	}
	names := make([]string, len(pipelineStages))
	for i, s := range pipelineStages {
		if s.purpose == purpose {
			return nil
		}
		names[i] = s.purpose
	}
	return fmt.Errorf("unknown purpose %q (want one of %s)", purpose, strings.Join(names, ", "))
}

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the model calls made by the note pipeline",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")
		if err := validPurpose(purpose); err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{
			Limit:   limit,
			Purpose: purpose,
			Failed:  failed,
		})
		if err != nil {
			return fmt.Errorf("query model calls: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No model calls recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-16s  %-10s  %-24s  %-11s  %7s  %s\n",
			"ID", "When", "Stage", "Model", "Tokens", "Latency", "Result")
		rule(out, 96)
		for _, e := range events {
			result := "ok"
			if !e.Success {
				result = "failed: " + truncate(e.ErrorMessage, 30)
			}
			fmt.Fprintf(out, "%-5d  %-16s  %-10s  %-24s  %-11s  %7s  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				e.Purpose,
				truncate(e.Model, 24),
				fmt.Sprintf("%d/%d", e.InputTokens, e.OutputTokens),
				formatLatency(e.LatencyMs),
				result,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and raw reply of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid call ID %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get model call: %w", err)
		}
		if e == nil {
			return fmt.Errorf("model call %d not found", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Call %d, %s (%s)\n", e.ID, e.Purpose, stageDescription(e.Purpose))
		fmt.Fprintf(out, "  at       %s\n", e.Timestamp.Local().Format(time.DateTime))
		fmt.Fprintf(out, "  model    %s via %s\n", e.Model, e.Provider)
		fmt.Fprintf(out, "  tokens   %d in, %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "  latency  %s\n", formatLatency(e.LatencyMs))
		if e.Success {
			fmt.Fprintln(out, "  result   ok")
		} else {
			fmt.Fprintf(out, "  result   failed: %s\n", e.ErrorMessage)
		}

		section(out, "Prompt", e.RequestBody)
		section(out, "Reply", prettyJSON(e.ResponseBody))
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Token usage per pipeline stage and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		usage, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(usage) == 0 {
			fmt.Fprintln(out, "No model calls recorded.")
			return nil
		}

		writeStageUsage(out, orderByStage(usage))

		models, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		fmt.Fprintln(out)
		writeModelCost(out, models)
		return nil
	},
}

// orderByStage returns one row per pipeline stage, in pipeline order,
// followed by any purposes the pipeline does not know about.
func orderByStage(usage []store.PurposeUsage) []store.PurposeUsage {
	byPurpose := make(map[string]store.PurposeUsage, len(usage))
	for _, u := range usage {
		byPurpose[u.Purpose] = u
	}

	rows := make([]store.PurposeUsage, 0, len(pipelineStages)+len(usage))
	for _, s := range pipelineStages {
		u, ok := byPurpose[s.purpose]
		if !ok {
			u = store.PurposeUsage{Purpose: s.purpose}
		}
		rows = append(rows, u)
		delete(byPurpose, s.purpose)
	}
	for _, u := range usage {
		if _, ok := byPurpose[u.Purpose]; ok {
			rows = append(rows, u)
		}
	}
	return rows
}

func writeStageUsage(out io.Writer, rows []store.PurposeUsage) {
	fmt.Fprintln(out, "Usage by stage")
	rule(out, 78)
	fmt.Fprintf(out, "%-11s  %6s  %6s  %10s  %10s  %10s  %9s\n",
		"Stage", "Calls", "Failed", "Input", "Output", "Total", "Avg")
	rule(out, 78)

	var calls, failed, in, outTok int
	for _, u := range rows {
		if u.Calls == 0 {
			fmt.Fprintf(out, "%-11s  %6s\n", u.Purpose, "-")
			continue
		}
		fmt.Fprintf(out, "%-11s  %6d  %6d  %10d  %10d  %10d  %9s\n",
			u.Purpose, u.Calls, u.Failures, u.InputTokens, u.OutputTokens,
			u.InputTokens+u.OutputTokens, formatLatency(u.AvgLatencyMs))
		calls += u.Calls
		failed += u.Failures
		in += u.InputTokens
		outTok += u.OutputTokens
	}
	rule(out, 78)
	fmt.Fprintf(out, "%-11s  %6d  %6d  %10d  %10d  %10d\n",
		"all", calls, failed, in, outTok, in+outTok)
}

func writeModelCost(out io.Writer, models []store.ModelUsage) {
	fmt.Fprintln(out, "Estimated cost (USD)")
	rule(out, 78)

	var total float64
	var unpriced []string
	for _, m := range models {
		cost := "?"
		if price := llm.LookupCost(m.Model); price != nil {
			c := price.Cost(m.InputTokens, m.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, m.Model)
		}
		fmt.Fprintf(out, "%-32s  %6d calls  %10s\n", truncate(m.Model, 32), m.Calls, cost)
	}
	rule(out, 78)

	label := "all models"
	if len(unpriced) > 0 {
		label += " (partial)"
	}
	fmt.Fprintf(out, "%-32s  %12s  %10s\n", label, "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

func rule(out io.Writer, width int) {
	fmt.Fprintln(out, strings.Repeat("─", width))
}

func section(out io.Writer, title, body string) {
	fmt.Fprintf(out, "\n%s\n", title)
	rule(out, 60)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(out, body)
}

// prettyJSON indents model replies that are valid JSON and returns
// anything else untouched.
func prettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

func formatLatency(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(10 * time.Millisecond).String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only this stage (classify, extract, fact-check, quiz-gen, explain)")
	llmListCmd.Flags().Bool("failed", false, "Only calls that returned an error")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
