package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/notequiz/internal/llm"
	"github.com/abhisek/notequiz/internal/quiz"
)

func newExplainer(cfg Config, responses ...llm.MockResponse) (*Explainer, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return New(llm.NewClient(mock, llm.ClientConfig{}, nil), cfg, nil), mock
}

var goodReq = Request{
	UserAnswer:    "A thread",
	CorrectAnswer: "A function running concurrently",
	Question:      "What is a goroutine?",
	Concept:       &quiz.Concept{Term: "Goroutine", Definition: "A lightweight concurrent function."},
}

func TestExplain_JSONReply(t *testing.T) {
	e, mock := newExplainer(Config{Style: StyleVivid, Language: "russian"},
		llm.MockText("```json\n{\"explanation\": \" Goroutines are not threads. \", \"mnemonic_image\": \"A gopher juggling.\"}\n```"))

	res, err := e.Explain(context.Background(), goodReq)
	require.NoError(t, err)
	assert.Equal(t, "Goroutines are not threads.", res.Explanation)
	assert.Equal(t, "A gopher juggling.", res.MnemonicImage)

	assert.Equal(t, []string{llm.PurposeExplain}, mock.Purposes())
	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "vivid and memorable")
	assert.Contains(t, prompt, "Answer only in russian.")
	assert.Contains(t, prompt, "Concept: Goroutine")
}

func TestExplain_ProseReply(t *testing.T) {
	e, _ := newExplainer(Config{}, llm.MockText(`A goroutine is scheduled by the runtime, not the OS.`))
	res, err := e.Explain(context.Background(), goodReq)
	require.NoError(t, err)
	assert.Equal(t, "A goroutine is scheduled by the runtime, not the OS.", res.Explanation)
	assert.Empty(t, res.MnemonicImage)
}

func TestExplain_DefaultsAndNoConcept(t *testing.T) {
	e, mock := newExplainer(Config{}, llm.MockText(`{"explanation": "x", "mnemonic_image": "y"}`))
	req := goodReq
	req.Concept = nil
	_, err := e.Explain(context.Background(), req)
	require.NoError(t, err)

	prompt := mock.Calls[0].Messages[0].Content
	assert.Contains(t, prompt, "absurd, crazy and funny")
	assert.Contains(t, prompt, "Answer only in english.")
	assert.NotContains(t, prompt, "Concept:")
}

func TestExplain_InvalidInput(t *testing.T) {
	e, mock := newExplainer(Config{})
	cases := map[string]Request{
		"blank user":     {UserAnswer: " ", CorrectAnswer: "b", Question: "q"},
		"blank correct":  {UserAnswer: "a", CorrectAnswer: "", Question: "q"},
		"blank question": {UserAnswer: "a", CorrectAnswer: "b", Question: "\t"},
		"same answer":    {UserAnswer: " TRUE", CorrectAnswer: "true ", Question: "q"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Explain(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Zero(t, mock.CallCount())
}

func TestExplain_Failures(t *testing.T) {
	e, _ := newExplainer(Config{},
		llm.MockError(&llm.ErrProviderUnavailable{Err: errors.New("down")}),
		llm.MockText(`{"mnemonic_image": "only an image"}`),
	)
	_, err := e.Explain(context.Background(), goodReq)
	var unavailable *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)

	_, err = e.Explain(context.Background(), goodReq)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no explanation"))
}

func TestExplainBatch(t *testing.T) {
	e, mock := newExplainer(Config{},
		llm.MockText(`{"explanation": "first"}`),
		llm.MockText(`{"explanation": "third"}`),
	)
	results := e.ExplainBatch(context.Background(), []Request{
		goodReq,
		{UserAnswer: "x", CorrectAnswer: "x", Question: "q"},
		goodReq,
	})
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Result.Explanation)
	assert.ErrorIs(t, results[1].Err, ErrInvalidInput)
	assert.Equal(t, "third", results[2].Result.Explanation)
	assert.Equal(t, 2, mock.CallCount())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results = e.ExplainBatch(ctx, []Request{goodReq})
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
