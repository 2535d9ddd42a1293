package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m runModel, msgs ...tea.Msg) runModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(runModel)
	}
	return m
}

func TestRunModel(t *testing.T) {
	m := update(t, newRunModel("build", nil),
		runStartMsg{names: []string{"core", "util", "app"}},
		pkgStartMsg{name: "core"},
		pkgActionMsg{name: "core", phase: "build", title: "make"},
	)

	view := m.View()
	if !strings.Contains(view, "core") || !strings.Contains(view, "build: make") {
		t.Errorf("running package missing from view:\n%s", view)
	}
	if !strings.Contains(view, "0/3") {
		t.Errorf("counter missing from view:\n%s", view)
	}

	m = update(t, m,
		pkgDoneMsg{name: "core", duration: time.Second},
		pkgStartMsg{name: "util"},
		pkgDoneMsg{name: "util", err: errors.New("exit status 2")},
		pkgSkippedMsg{name: "app", reason: "not started"},
	)
	if len(m.running) != 0 {
		t.Errorf("running = %v, want none", m.running)
	}
	if m.done != 1 || m.failed != 1 {
		t.Errorf("done = %d, failed = %d", m.done, m.failed)
	}
	view = m.View()
	for _, want := range []string{"2/3", "1 failed", "(not started)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
	if got := m.fraction(); got < 0.66 || got > 0.67 {
		t.Errorf("fraction() = %v", got)
	}
}

func TestRunModelQuitCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := newRunModel("test", cancel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if ctx.Err() == nil {
		t.Error("ctrl+c should cancel the run")
	}
}

func TestRunModelKeepsRecentLines(t *testing.T) {
	m := newRunModel("build", nil)
	for i := 0; i < maxFinishedLines+5; i++ {
		m = update(t, m, pkgDoneMsg{name: "p"})
	}
	if len(m.recent) != maxFinishedLines {
		t.Errorf("recent = %d lines, want %d", len(m.recent), maxFinishedLines)
	}
}

func TestTUIHooksForward(t *testing.T) {
	var got []tea.Msg
	h := tuiHooks{send: func(msg tea.Msg) { got = append(got, msg) }}
	ctx := context.Background()

	h.OnRunStart(ctx, []string{"a"})
	h.OnPackageStart(ctx, "a")
	h.OnActionStart(ctx, "a", "build", "make")
	h.OnActionDone(ctx, "a", "build", "make", time.Second, nil)
	h.OnPackageDone(ctx, "a", time.Second, nil)
	h.OnRunComplete(ctx, 1, 0, time.Second)

	if len(got) != 5 {
		t.Fatalf("forwarded %d messages, want 5", len(got))
	}
	if _, ok := got[4].(runDoneMsg); !ok {
		t.Errorf("last message = %T, want runDoneMsg", got[4])
	}
}
