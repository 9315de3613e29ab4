package quiz

import (
	"strings"
	"text/template"
)

var quizTemplate = template.Must(template.New("quiz").Funcs(template.FuncMap{"indent": indent}).Parse(`You are a quiz generator for a self-study tool. Your questions test understanding of concepts, not recall of definitions.

Using the concepts and definitions below:
{{range .Concepts}}
- {{.Term}}: {{.Definition}}{{if .CodeSnippet}}
  Code:
{{indent .CodeSnippet}}{{end}}{{end}}

Write {{.Count}} unique questions at {{.Difficulty}} difficulty, in {{.Language}}.
Mix the types: about 75% "multiple_choice" and 25% "true_false".

Rules:
- Each question checks understanding of exactly one concept from the list.
- Put that concept's term, exactly as written above, in "related_concept".
- Questions must differ in meaning and wording. Do not paraphrase one another.
- Avoid absolute words such as "always" and "never".
- multiple_choice: 4 plausible options; "correct_answer" is the full text of the correct option.
- true_false: "options" is ["True", "False"]; "correct_answer" is "True" or "False".
{{- if .Code}}
- Where a concept has code, ask about what the code does or how to change it.
{{- end}}
{{- if .Avoid}}

Do NOT write questions similar in meaning, topic or structure to these:
{{range .Avoid}}- {{.}}
{{end}}{{end}}
Answer with a JSON array of objects with the fields "question", "type", "options", "correct_answer" and "related_concept". No text before or after the JSON.`))

type promptData struct {
	Concepts   []Concept
	Count      int
	Difficulty Difficulty
	Language   string
	Code       bool
	Avoid      []string
}

// buildPrompt renders the generation prompt. avoid is capped to the most
// recent maxAvoid entries.
func buildPrompt(concepts []Concept, opts Options, avoid []string, maxAvoid int) (string, error) {
	if maxAvoid > 0 && len(avoid) > maxAvoid {
		avoid = avoid[len(avoid)-maxAvoid:]
	}
	data := promptData{
		Concepts:   concepts,
		Count:      opts.Count,
		Difficulty: opts.Difficulty,
		Language:   opts.Language,
		Avoid:      avoid,
	}
	for _, c := range concepts {
		if c.CodeSnippet != "" {
			data.Code = true
			break
		}
	}

	var b strings.Builder
	if err := quizTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
