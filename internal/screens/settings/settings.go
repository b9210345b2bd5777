// Package settings is the LLM settings screen: provider and model
// selection, API key entry and key verification.
package settings

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/samber/lo"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/screen"
	cfg "github.com/examwhisperer/whisper/internal/settings"
	"github.com/examwhisperer/whisper/internal/ui/components"
	"github.com/examwhisperer/whisper/internal/ui/layout"
	"github.com/examwhisperer/whisper/internal/ui/theme"
)

// Verifier checks an LLM selection against the provider.
type Verifier interface {
	Verify(ctx context.Context, c backend.LLMConfig) ([]string, error)
}

// Form rows, in focus order. rowCustom is skipped unless the custom model
// entry is selected.
const (
	rowProvider = iota
	rowModel
	rowCustom
	rowKey
	rowVerify
	numRows
)

// verifiedMsg carries the outcome of a key check.
type verifiedMsg struct {
	Models []string
	Err    error
}

// SettingsScreen implements screen.Screen for the LLM settings.
type SettingsScreen struct {
	store    *cfg.Store
	verifier Verifier
	spinner  spinner.Model

	row    int
	key    components.TextInput
	custom components.TextInput

	verifying bool
	notice    string
	err       error

	ctx    context.Context
	cancel context.CancelFunc
}

var _ screen.Screen = (*SettingsScreen)(nil)
var _ screen.KeyHintProvider = (*SettingsScreen)(nil)

// New creates a SettingsScreen editing store.
func New(store *cfg.Store, verifier Verifier) *SettingsScreen {
	ctx, cancel := context.WithCancel(context.Background())

	key := components.NewSecretInput("paste your API key")
	key.Blur()
	custom := components.NewTextInput("model name, e.g. qwen2.5", false, 64)
	custom.SetValue(store.CustomModel())
	custom.Blur()

	s := &SettingsScreen{
		store:    store,
		verifier: verifier,
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		key:      key,
		custom:   custom,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.spinner.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return s
}

func (s *SettingsScreen) Init() tea.Cmd {
	return nil
}

func (s *SettingsScreen) Title() string {
	return "Settings"
}

// Close cancels a running verification.
func (s *SettingsScreen) Close() {
	s.cancel()
}

func (s *SettingsScreen) KeyHints() []layout.KeyHint {
	switch s.row {
	case rowProvider, rowModel:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "←→", Description: "Change"},
			{Key: "Esc", Description: "Back"},
		}
	case rowKey, rowCustom:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Save"},
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Verify key"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SettingsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case verifiedMsg:
		s.verifying = false
		if msg.Err != nil {
			s.err = msg.Err
			s.notice = ""
			return s, nil
		}
		s.err = nil
		s.notice = fmt.Sprintf("Key accepted. %d models available.", len(msg.Models))
		return s, nil

	case spinner.TickMsg:
		if !s.verifying {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s.updateInput(msg)
}

func (s *SettingsScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "down", "tab":
		return s, s.move(1)
	case "up", "shift+tab":
		return s, s.move(-1)
	case "left":
		if s.row == rowProvider || s.row == rowModel {
			s.cycle(-1)
			return s, nil
		}
	case "right":
		if s.row == rowProvider || s.row == rowModel {
			s.cycle(1)
			return s, nil
		}
	case "enter":
		return s, s.submit()
	}
	return s.updateInput(msg)
}

func (s *SettingsScreen) updateInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch s.row {
	case rowKey:
		s.key, cmd = s.key.Update(msg)
	case rowCustom:
		s.custom, cmd = s.custom.Update(msg)
	}
	return s, cmd
}

func (s *SettingsScreen) customSelected() bool {
	return s.store.Model() == cfg.CustomModel
}

func (s *SettingsScreen) move(delta int) tea.Cmd {
	row := (s.row + delta + numRows) % numRows
	if row == rowCustom && !s.customSelected() {
		row = (row + delta + numRows) % numRows
	}
	s.row = row
	s.key.Blur()
	s.custom.Blur()
	switch row {
	case rowKey:
		return s.key.Focus()
	case rowCustom:
		return s.custom.Focus()
	}
	return nil
}

// cycle steps the provider or model selection and saves it.
func (s *SettingsScreen) cycle(delta int) {
	s.notice = ""
	s.err = nil
	switch s.row {
	case rowProvider:
		names := cfg.ProviderNames()
		next := step(names, s.store.Provider(), delta)
		s.err = s.store.SetProvider(s.ctx, next)
	case rowModel:
		next := step(s.store.Models(), s.store.Model(), delta)
		s.err = s.store.SetModel(s.ctx, next)
	}
}

func step(list []string, current string, delta int) string {
	if len(list) == 0 {
		return current
	}
	_, i, ok := lo.FindIndexOf(list, func(v string) bool { return v == current })
	if !ok {
		return list[0]
	}
	return list[(i+delta+len(list))%len(list)]
}

func (s *SettingsScreen) submit() tea.Cmd {
	s.notice = ""
	s.err = nil
	switch s.row {
	case rowKey:
		if strings.TrimSpace(s.key.Value()) == "" {
			return nil
		}
		if s.err = s.store.SetAPIKey(s.ctx, s.key.Value()); s.err == nil {
			s.key.Reset()
			s.notice = "API key saved."
		}
	case rowCustom:
		if s.err = s.store.SetCustomModel(s.ctx, s.custom.Value()); s.err == nil {
			s.notice = "Model name saved."
		}
	case rowVerify:
		return s.verify()
	}
	return nil
}

func (s *SettingsScreen) verify() tea.Cmd {
	if s.verifier == nil || s.verifying {
		return nil
	}
	s.verifying = true
	ctx := s.ctx
	c := s.store.Config()
	return tea.Batch(
		func() tea.Msg {
			models, err := s.verifier.Verify(ctx, c)
			return verifiedMsg{Models: models, Err: err}
		},
		s.spinner.Tick,
	)
}

func (s *SettingsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	p, _ := cfg.Lookup(s.store.Provider())

	row := func(r int, label, value string) string {
		l := theme.Unselected.Render("  " + label)
		if s.row == r {
			l = theme.Selected.Render("▸ " + label)
		}
		return lipgloss.NewStyle().Width(16).Render(l) + value
	}
	choice := func(r int, v string) string {
		if s.row == r {
			return theme.Selected.Render("‹ " + v + " ›")
		}
		return theme.Body.Render("  " + v)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("LLM settings"))
	b.WriteString("\n\n")
	b.WriteString(row(rowProvider, "Provider", choice(rowProvider, p.Label)))
	b.WriteString("\n\n")
	b.WriteString(row(rowModel, "Model", choice(rowModel, s.store.Model())))
	if s.customSelected() {
		b.WriteString("\n\n")
		b.WriteString(row(rowCustom, "Model name", s.custom.View()))
	}
	b.WriteString("\n\n")

	keyValue := s.key.View()
	if !s.key.Focused() {
		switch {
		case !p.RequiresKey():
			keyValue = theme.Hint.Render("not needed for local models")
		case s.store.APIKey() == "":
			keyValue = theme.ErrorMessage.Render("not set")
		default:
			keyValue = theme.Body.Render(s.store.MaskedKey())
		}
	}
	b.WriteString(row(rowKey, "API key", keyValue))
	b.WriteString("\n\n")
	b.WriteString(components.Button{Label: "Verify key", Active: s.row == rowVerify}.View())

	switch {
	case s.verifying:
		b.WriteString("\n\n" + s.spinner.View() + theme.Hint.Render(" Checking with "+p.Label+"..."))
	case s.err != nil:
		b.WriteString("\n\n" + components.ErrorLine(s.err.Error()))
	case s.notice != "":
		b.WriteString("\n\n" + theme.Correct.Render(s.notice))
	}

	return components.Centered(components.Card(b.String(), cw), width, height)
}
