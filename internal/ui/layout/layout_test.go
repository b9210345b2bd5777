package layout

import (
	"strings"
	"testing"
)

func TestRenderFooter_DropsHintsThatDoNotFit(t *testing.T) {
	hints := []KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select a very long option label"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	got := RenderFooter(hints, 40)
	if !strings.Contains(got, "Quit") {
		t.Error("expected the last hint to be kept")
	}
	if strings.Contains(got, "very long") {
		t.Error("expected the long hint to be dropped")
	}
}

func TestRenderHeader_CollapsesStatus(t *testing.T) {
	st := Status{Online: false, Provider: "gemini", Model: "gemini-1.5-pro-latest"}
	if got := RenderHeader("Chat", st, 120); !strings.Contains(got, "offline") {
		t.Error("expected offline label in a wide header")
	}
	if got := RenderHeader("Chat", st, 40); strings.Contains(got, "gemini") {
		t.Error("expected the model to be hidden in a narrow header")
	}
}
