package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/notequiz/internal/pipeline"
	"github.com/abhisek/notequiz/internal/quiz"
	"github.com/abhisek/notequiz/internal/ui/theme"
)

// answerer is the part of the coordinator the line interface drives.
type answerer interface {
	SubmitAnswer(ctx context.Context, questionID, answer string) pipeline.AnswerResult
	Stats() pipeline.Stats
}

// askLoop asks each question on out and reads numbered answers from in.
// "exit" or "quit" ends early. Statistics are printed either way.
func askLoop(ctx context.Context, q answerer, questions []quiz.Question, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	total := len(questions)

	fmt.Fprintln(out, theme.Hint.Render("Type the number of your answer, or 'exit' to stop."))

loop:
	for i, question := range questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		printQuestion(out, i+1, total, question)

		for {
			fmt.Fprintf(out, "Your answer (1-%d): ", len(question.Options))
			if !sc.Scan() {
				fmt.Fprintln(out)
				break loop
			}
			input := strings.TrimSpace(sc.Text())
			if isExit(input) {
				break loop
			}

			answer, ok := pickOption(input, question.Options)
			if !ok {
				fmt.Fprintf(out, "Please enter a number between 1 and %d.\n", len(question.Options))
				continue
			}
			printVerdict(out, q.SubmitAnswer(ctx, question.ID, answer))
			break
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read answer: %w", err)
	}

	printStats(out, q.Stats())
	return nil
}

func isExit(s string) bool {
	s = strings.ToLower(s)
	return s == "exit" || s == "quit"
}

// pickOption maps a 1-based number to its option.
func pickOption(input string, options []string) (string, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(options) {
		return "", false
	}
	return options[n-1], true
}

func printQuestion(out io.Writer, n, total int, q quiz.Question) {
	fmt.Fprintln(out)
	header := fmt.Sprintf("Question %d/%d", n, total)
	if q.RelatedConcept != "" && q.RelatedConcept != quiz.GeneralConcept {
		header += " · " + q.RelatedConcept
	}
	fmt.Fprintln(out, theme.Title.Render(header))
	fmt.Fprintln(out, q.Text)
	if q.CodeContext != "" {
		fmt.Fprintf(out, "```\n%s\n```\n", q.CodeContext)
	}
	for i, opt := range q.Options {
		fmt.Fprintf(out, "  %d. %s\n", i+1, opt)
	}
}

func printVerdict(out io.Writer, res pipeline.AnswerResult) {
	switch res.Status {
	case pipeline.AnswerCorrect:
		fmt.Fprintln(out, theme.Correct.Render("✓ Correct!"))
	case pipeline.AnswerIncorrect:
		fmt.Fprintln(out, theme.Incorrect.Render("✗ Wrong.")+" Correct answer: "+res.CorrectAnswer)
		if res.Explanation != "" {
			fmt.Fprintln(out, theme.Explanation.Render(res.Explanation))
		}
		if res.MnemonicImage != "" {
			fmt.Fprintln(out, theme.Mnemonic.Render("Picture this: "+res.MnemonicImage))
		}
	default:
		fmt.Fprintln(out, theme.Incorrect.Render(res.Message))
	}
}

func printStats(out io.Writer, st pipeline.Stats) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Title.Render("Results"))
	fmt.Fprintf(out, "Score:     %d/%d\n", st.Score, st.Answered)
	fmt.Fprintf(out, "Questions: %d\n", st.TotalQuestions)
	fmt.Fprintf(out, "Accuracy:  %.2f%%\n", st.Accuracy)
	fmt.Fprintf(out, "LLM:       %d requests, %d tokens\n", st.LLM.Requests, st.LLM.TotalTokens)
}
