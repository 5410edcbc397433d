package handler

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain", input: "  slept well  ", expected: "slept well"},
		{name: "tags", input: "<b>good</b> <i>week</i>", expected: "good week"},
		{name: "script", input: "fine<script>alert(1)</script>", expected: "fine"},
		{name: "entities", input: "Tom &amp; Jerry", expected: "Tom & Jerry"},
		{name: "only tags", input: "<p></p>", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.input); got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCleanTextPtr(t *testing.T) {
	if cleanTextPtr(nil) != nil {
		t.Fatal("expected nil to stay nil")
	}
	raw := " <em>x</em> "
	if got := cleanTextPtr(&raw); got == nil || *got != "x" {
		t.Fatalf("expected x, got %v", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	if got := renderMarkdown("   "); got != "" {
		t.Fatalf("expected blank description to render empty, got %q", got)
	}

	got := renderMarkdown("**Drink** water\n\n[link](javascript:alert(1))")
	if !strings.Contains(got, "<strong>Drink</strong>") {
		t.Fatalf("expected bold markup, got %q", got)
	}
	if strings.Contains(got, "javascript:") {
		t.Fatalf("expected unsafe link to be stripped, got %q", got)
	}
}
