package viz

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/hvasim/internal/config"
	"github.com/san-kum/hvasim/internal/experiment"
	"github.com/san-kum/hvasim/internal/storage"
)

type (
	ProgressMsg experiment.Progress
	FinishedMsg struct{ Err error }
	tickMsg     time.Time
)

type conditionState struct {
	fraction float64
	done     bool
	err      error
}

// ProgressModel shows one progress bar per condition of a running
// experiment.
type ProgressModel struct {
	title    string
	conds    []config.Condition
	state    map[string]*conditionState
	cancel   func()
	frame    int
	start    time.Time
	elapsed  time.Duration
	finished bool
	canceled bool
	err      error
}

func NewProgressModel(title string, conds []config.Condition, cancel func()) ProgressModel {
	m := ProgressModel{
		title:  title,
		conds:  conds,
		state:  make(map[string]*conditionState, len(conds)),
		cancel: cancel,
		start:  time.Now(),
	}
	for _, c := range conds {
		m.state[c.Label] = &conditionState{}
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd { return tick() }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.canceled && m.cancel != nil {
				m.cancel()
			}
			m.canceled = true
		}
	case ProgressMsg:
		st, ok := m.state[msg.Condition.Label]
		if !ok {
			return m, nil
		}
		if msg.Fraction > st.fraction {
			st.fraction = msg.Fraction
		}
		if msg.Done {
			st.done, st.err = true, msg.Err
		}
	case FinishedMsg:
		m.finished, m.err = true, msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		return m, tick()
	}
	return m, nil
}

// Fraction is the completed share of condition label.
func (m ProgressModel) Fraction(label string) float64 {
	if st, ok := m.state[label]; ok {
		return st.fraction
	}
	return 0
}

// Completed counts conditions that reported Done.
func (m ProgressModel) Completed() int {
	n := 0
	for _, st := range m.state {
		if st.done {
			n++
		}
	}
	return n
}

func (m ProgressModel) Finished() bool { return m.finished }
func (m ProgressModel) Canceled() bool { return m.canceled }

func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title) + "\n\n")

	width := 0
	for _, c := range m.conds {
		width = max(width, len(c.Label))
	}
	for _, c := range m.conds {
		st := m.state[c.Label]
		mark := StatusRunning.Render(AnimatedSpinner(m.frame))
		switch {
		case st.done && st.err != nil:
			mark = StatusFailed.Render("✗")
		case st.done:
			mark = StatusRunning.Render("✓")
		}
		fmt.Fprintf(&b, "%s %-*s %s %5.1f%%\n", mark, width, c.Label, ProgressBar(st.fraction, 30), 100*st.fraction)
	}

	b.WriteString("\n")
	b.WriteString(MetricLabel.Render("done ") + MetricValue.Render(fmt.Sprintf("%d/%d", m.Completed(), len(m.conds))))
	switch {
	case m.finished && m.err != nil:
		b.WriteString("  " + StatusFailed.Render(m.err.Error()))
	case m.finished:
		b.WriteString("  " + Subtle.Render(m.elapsed.Round(time.Millisecond).String()))
	case m.canceled:
		b.WriteString("  " + StatusFailed.Render("canceling"))
	default:
		b.WriteString("  " + KeyHint.Render("q to cancel"))
	}
	return b.String() + "\n"
}

// RunWithProgress runs exp while drawing a ProgressModel on out.
func RunWithProgress(ctx context.Context, title string, exp *experiment.Experiment, out io.Writer) ([]*storage.Bundle, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title, exp.Conditions(), cancel), tea.WithOutput(out))

	var (
		bundles []*storage.Bundle
		runErr  error
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)

		events := make(chan experiment.Progress, 64)
		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			for ev := range events {
				p.Send(ProgressMsg(ev))
			}
		}()

		bundles, runErr = exp.Run(ctx, events)
		close(events)
		<-forwarded
		p.Send(FinishedMsg{Err: runErr})
	}()

	_, uiErr := p.Run()
	if uiErr != nil {
		cancel()
	}
	<-done

	if runErr != nil {
		return nil, runErr
	}
	if uiErr != nil && ctx.Err() == nil {
		return nil, uiErr
	}
	return bundles, nil
}
