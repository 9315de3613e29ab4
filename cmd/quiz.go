package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/notequiz/internal/app"
	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/pipeline"
	"github.com/abhisek/notequiz/internal/quiz"
)

var quizCmd = &cobra.Command{
	Use:   "quiz <file>",
	Short: "Quiz yourself on a study note",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuiz,
}

func init() {
	f := quizCmd.Flags()
	f.StringP("difficulty", "d", "", "Question difficulty: easy, medium or hard")
	f.IntP("questions", "q", 0, "Number of questions to generate (1-20)")
	f.StringP("model", "m", "", "Model for the configured provider")
	f.BoolP("force", "f", false, "Re-parse the note even if its concepts are cached")
	f.Bool("ignore-history", false, "Allow questions that were asked before")
	f.Bool("tui", false, "Use the full-screen interface")
	f.String("export", "", "Write the generated quiz to this YAML file")
}

func runQuiz(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read note: %w", err)
	}

	f := cmd.Flags()
	count, _ := f.GetInt("questions")
	if !f.Changed("questions") {
		count = rt.cfg.Quiz.Count
	}
	diffName, _ := f.GetString("difficulty")
	if diffName == "" {
		diffName = rt.cfg.Quiz.Difficulty
	}
	difficulty, err := quiz.ParseDifficulty(diffName)
	if err != nil {
		return err
	}
	model, _ := f.GetString("model")
	force, _ := f.GetBool("force")
	ignoreHistory, _ := f.GetBool("ignore-history")
	useTUI, _ := f.GetBool("tui")
	exportPath, _ := f.GetString("export")

	llmCfg, err := rt.cfg.ResolveLLM()
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}
	if model != "" {
		llmCfg.SetModel(model)
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo(), rt.log)
	if err != nil {
		return err
	}
	client := llm.NewClient(provider, llm.ClientConfig{Timeout: llmCfg.Timeout}, rt.log)

	cacheStore, closeCache, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	coord, err := pipeline.New(pipeline.Deps{
		Client:   client,
		Cache:    cacheStore,
		History:  st.HistoryRepo(),
		Sessions: st.SessionRepo(),
	}, rt.cfg.PipelineConfig(), rt.log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processing %s with %s...\n", path, client.ModelID())

	res, err := coord.Process(ctx, pipeline.ProcessRequest{
		Text:          string(text),
		Count:         count,
		Difficulty:    difficulty,
		ForceReparse:  force,
		IgnoreHistory: ignoreHistory,
	})
	if err != nil {
		return err
	}
	if res.Status == pipeline.StatusError {
		return errors.New(res.Message)
	}
	fmt.Fprintln(out, res.Message)

	exporter := func(dest string) error {
		return quiz.ExportFile(dest, quiz.Export{
			GeneratedAt: time.Now().UTC(),
			Source:      path,
			Difficulty:  difficulty,
			Questions:   res.Quiz,
		})
	}
	if exportPath != "" {
		if err := exporter(exportPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Quiz saved to %s\n", exportPath)
	}

	defer func() {
		if err := coord.Finish(ctx); err != nil {
			rt.log.Warn("record session", "error", err)
		}
	}()

	if useTUI {
		return app.Run(ctx, app.Options{Quiz: coord, Questions: res.Quiz, Export: exporter})
	}
	return askLoop(ctx, coord, res.Quiz, cmd.InOrStdin(), out)
}
