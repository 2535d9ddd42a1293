package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/wsbuild/pkg/observability"
)

// maxFinishedLines bounds the finished packages kept on screen.
const maxFinishedLines = 8

var (
	tuiRunningStyle = lipgloss.NewStyle().Foreground(colorCyan)
	tuiDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type runStartMsg struct{ names []string }

type pkgStartMsg struct{ name string }

type pkgActionMsg struct{ name, phase, title string }

type pkgDoneMsg struct {
	name     string
	duration time.Duration
	err      error
}

type pkgSkippedMsg struct{ name, reason string }

type runDoneMsg struct{}

// =============================================================================
// Hooks
// =============================================================================

// tuiHooks forwards scheduler and plugin events to a running program.
type tuiHooks struct {
	send func(tea.Msg)
}

var (
	_ observability.SchedulerHooks = tuiHooks{}
	_ observability.PluginHooks    = tuiHooks{}
)

func (h tuiHooks) OnRunStart(_ context.Context, names []string) {
	h.send(runStartMsg{names: names})
}

func (h tuiHooks) OnPackageStart(_ context.Context, name string) {
	h.send(pkgStartMsg{name: name})
}

func (h tuiHooks) OnPackageDone(_ context.Context, name string, d time.Duration, err error) {
	h.send(pkgDoneMsg{name: name, duration: d, err: err})
}

func (h tuiHooks) OnPackageSkipped(_ context.Context, name, reason string) {
	h.send(pkgSkippedMsg{name: name, reason: reason})
}

func (h tuiHooks) OnRunComplete(context.Context, int, int, time.Duration) {
	h.send(runDoneMsg{})
}

func (h tuiHooks) OnActionStart(_ context.Context, pkg, phase, title string) {
	h.send(pkgActionMsg{name: pkg, phase: phase, title: title})
}

func (tuiHooks) OnActionDone(context.Context, string, string, string, time.Duration, error) {}

// =============================================================================
// Model
// =============================================================================

type finishedLine struct {
	name   string
	took   time.Duration
	err    error
	reason string
}

// runModel shows the running packages with their current action above a
// progress bar.
type runModel struct {
	verb    string
	total   int
	running []string
	action  map[string]string
	recent  []finishedLine
	done    int
	failed  int

	spinner spinner.Model
	bar     progressbar.Model

	// cancel stops the run when the user quits.
	cancel   context.CancelFunc
	finished bool
}

func newRunModel(verb string, cancel context.CancelFunc) runModel {
	return runModel{
		verb:    verb,
		action:  make(map[string]string),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleIconSpinner)),
		bar:     progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithWidth(40), progressbar.WithoutPercentage()),
		cancel:  cancel,
	}
}

func (m runModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 10), 60)
	case runStartMsg:
		m.total = len(msg.names)
	case pkgStartMsg:
		m.running = append(m.running, msg.name)
	case pkgActionMsg:
		m.action[msg.name] = msg.phase + ": " + msg.title
	case pkgDoneMsg:
		m.remove(msg.name)
		if msg.err != nil {
			m.failed++
		} else {
			m.done++
		}
		m.push(finishedLine{name: msg.name, took: msg.duration, err: msg.err})
	case pkgSkippedMsg:
		m.push(finishedLine{name: msg.name, reason: msg.reason})
	case runDoneMsg:
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *runModel) remove(name string) {
	for i, n := range m.running {
		if n == name {
			m.running = append(m.running[:i], m.running[i+1:]...)
			break
		}
	}
	delete(m.action, name)
}

func (m *runModel) push(l finishedLine) {
	m.recent = append(m.recent, l)
	if len(m.recent) > maxFinishedLines {
		m.recent = m.recent[len(m.recent)-maxFinishedLines:]
	}
}

func (m runModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("wsbuild %s", m.verb)))
	b.WriteString("\n\n")

	for _, l := range m.recent {
		switch {
		case l.reason != "":
			fmt.Fprintf(&b, "%s %s %s\n", tuiDimStyle.Render(iconSkipped), tuiDimStyle.Render(l.name), tuiDimStyle.Render("("+l.reason+")"))
		case l.err != nil:
			fmt.Fprintf(&b, "%s %s\n", styleIconError.Render(iconError), l.name)
		default:
			fmt.Fprintf(&b, "%s %s %s\n", styleIconSuccess.Render(iconSuccess), l.name, tuiDimStyle.Render(l.took.Round(time.Millisecond).String()))
		}
	}
	for _, name := range m.running {
		line := m.spinner.View() + " " + tuiRunningStyle.Render(name)
		if a := m.action[name]; a != "" {
			line += " " + tuiDimStyle.Render(a)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.fraction()))
	fmt.Fprintf(&b, "  %d/%d", m.done+m.failed, m.total)
	if m.failed > 0 {
		b.WriteString("  " + StyleError.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	b.WriteString("\n")
	if !m.finished {
		b.WriteString(tuiDimStyle.Render("q to cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m runModel) fraction() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done+m.failed) / float64(m.total)
}

// =============================================================================
// Program
// =============================================================================

// runWithTUI runs fn while a progress view renders the events of the hooks
// it is given. Quitting the view cancels fn's context; runWithTUI returns
// once fn has returned.
func runWithTUI(ctx context.Context, verb string, opts []tea.ProgramOption, fn func(context.Context, tuiHooks) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newRunModel(verb, cancel), opts...)
	hooks := tuiHooks{send: p.Send}

	errc := make(chan error, 1)
	go func() {
		err := fn(ctx, hooks)
		p.Send(runDoneMsg{})
		errc <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return err
	}
	return <-errc
}
