package jsonrepair

import "testing"

func TestSpanStep(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{`x {"a": "}"} y`, `{"a": "}"}`, true},
		{`[1, [2, 3]] tail`, `[1, [2, 3]]`, true},
		{`{"a": 1}`, `{"a": 1}`, false},
		{`no brackets`, `no brackets`, false},
		{`cut {"a": [1, 2`, `{"a": [1, 2`, true},
	}
	for _, tt := range tests {
		got, ok := SpanStep{}.Rewrite(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Rewrite(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCommentStep_KeepsSlashesInStrings(t *testing.T) {
	in := `{"url": "https://example.com/*path*/"} // trailing`
	got, ok := CommentStep{}.Rewrite(in)
	if !ok {
		t.Fatal("expected rewrite")
	}
	want := `{"url": "https://example.com/*path*/"} `
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommentStep_IgnoresProseBeforeJSON(t *testing.T) {
	in := `See https://example.com: {"a": 1}`
	if got, ok := (CommentStep{}).Rewrite(in); ok || got != in {
		t.Errorf("got %q, %v; want input unchanged", got, ok)
	}

	in = "Ref https://x.io {\"a\": 1 // one\n}"
	want := "Ref https://x.io {\"a\": 1 \n}"
	if got, ok := (CommentStep{}).Rewrite(in); !ok || got != want {
		t.Errorf("got %q, %v; want %q", got, ok, want)
	}
}

func TestLiteralStep_EscapedSingleQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"q": "it\'s"}`, `{"q": "it's"}`},
		{`{'q': 'it\'s'}`, `{"q": "it's"}`},
	}
	for _, tt := range tests {
		if got, _ := (LiteralStep{}).Rewrite(tt.in); got != tt.want {
			t.Errorf("Rewrite(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFenceStep_Unterminated(t *testing.T) {
	got, ok := FenceStep{}.Rewrite("```json\n{\"a\": 1}")
	if !ok || got != `{"a": 1}` {
		t.Errorf("got %q, %v", got, ok)
	}
}

func TestLiteralStep_NoChange(t *testing.T) {
	in := `{"a": [1, 2]}`
	if _, ok := (LiteralStep{}).Rewrite(in); ok {
		t.Error("expected no change for valid JSON")
	}
}
