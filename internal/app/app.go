// Package app hosts the root Bubble Tea model: the screen stack framed by
// a header and footer, plus backend status fan-out.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/examwhisperer/whisper/internal/liveness"
	"github.com/examwhisperer/whisper/internal/logger"
	"github.com/examwhisperer/whisper/internal/router"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/screens/home"
	"github.com/examwhisperer/whisper/internal/ui/layout"
)

// Options configures Run.
type Options struct {
	Deps home.Deps
	// Initial, when set, opens above the home screen, e.g. a quiz started
	// from the command line.
	Initial screen.Screen
}

// statusChangedMsg wakes the model after a liveness transition.
type statusChangedMsg struct{}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	initial screen.Screen
	deps    home.Deps
	monitor *liveness.Monitor
	log     *logger.Logger
	changed chan struct{}
	online  bool
	width   int
	height  int
}

// newAppModel creates an AppModel with the home screen at the bottom of
// the stack.
func newAppModel(opts Options) AppModel {
	log := opts.Deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	m := AppModel{
		router:  router.New(home.New(opts.Deps)),
		initial: opts.Initial,
		deps:    opts.Deps,
		monitor: opts.Deps.Monitor,
		log:     log,
		// One slot: a pending wake-up already covers later transitions.
		changed: make(chan struct{}, 1),
		online:  true,
	}
	if m.monitor != nil {
		m.online = m.monitor.Online()
		changed := m.changed
		m.monitor.OnChange(func(bool) {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init()}
	if m.initial != nil {
		cmds = append(cmds, m.router.Push(m.initial))
	}
	if m.monitor != nil {
		cmds = append(cmds, m.waitForStatus())
	}
	return tea.Batch(cmds...)
}

func (m AppModel) waitForStatus() tea.Cmd {
	changed := m.changed
	return func() tea.Msg {
		<-changed
		return statusChangedMsg{}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		if m.monitor != nil {
			m.monitor.Resume()
		}
		return m, nil

	case statusChangedMsg:
		status := screen.BackendStatusMsg{Online: m.monitor.Online(), Reason: m.monitor.Reason()}
		m.online = status.Online
		m.log.Info("backend status changed", "online", status.Online, "reason", status.Reason)
		return m, tea.Batch(m.router.Broadcast(status), m.waitForStatus())

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if bi, ok := m.router.Active().(screen.BackInterceptor); ok && bi.InterceptBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(), m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

func (m AppModel) status() layout.Status {
	s := layout.Status{Online: m.online}
	if m.deps.Settings != nil {
		c := m.deps.Settings.Config()
		s.Provider, s.Model = c.Provider, c.Model
	}
	return s
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	var hints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	} else {
		hints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
		}
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the Bubble Tea program and closes every open screen when it
// exits.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	final, err := p.Run()
	if m, ok := final.(AppModel); ok {
		m.router.CloseAll()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
