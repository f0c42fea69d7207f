package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/iontrim/internal/sim"
)

// RunFunc starts a run, reporting progress through the callback.
type RunFunc func(progress func(done, total int)) (*sim.Results, error)

type progressMsg struct{ done, total int }

type doneMsg struct {
	res *sim.Results
	err error
}

type TickMsg time.Time

// ProgressModel shows a running ensemble and lets the user stop it early.
type ProgressModel struct {
	run     RunFunc
	stop    func()
	updates chan progressMsg
	results chan doneMsg

	done, total int
	start       time.Time
	frame       int
	stopping    bool

	res *sim.Results
	err error
}

func NewProgressModel(run RunFunc, stop func()) *ProgressModel {
	return &ProgressModel{
		run:     run,
		stop:    stop,
		updates: make(chan progressMsg, 64),
		results: make(chan doneMsg, 1),
	}
}

// Result returns the run outcome once the program has exited.
func (m *ProgressModel) Result() (*sim.Results, error) { return m.res, m.err }

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *ProgressModel) waitUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-m.updates:
			return u
		case r := <-m.results:
			return r
		}
	}
}

func (m *ProgressModel) Init() tea.Cmd {
	m.start = time.Now()
	go func() {
		res, err := m.run(func(done, total int) {
			// non-blocking; intermediate counts may be skipped
			select {
			case m.updates <- progressMsg{done, total}:
			default:
			}
		})
		m.results <- doneMsg{res, err}
	}()
	return tea.Batch(tick(), m.waitUpdate())
}

func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.stopping && m.stop != nil {
				m.stopping = true
				m.stop()
			}
		}
	case progressMsg:
		m.done, m.total = msg.done, msg.total
		return m, m.waitUpdate()
	case doneMsg:
		m.res, m.err = msg.res, msg.err
		return m, tea.Quit
	case TickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m *ProgressModel) View() string {
	var b strings.Builder

	status := StatusRunning.Render(spinner[m.frame%len(spinner)] + " running")
	if m.stopping {
		status = StatusStopped.Render("stopping after ions in flight")
	}
	b.WriteString(status + "\n\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	b.WriteString(ProgressBar(pct, 40))
	b.WriteString(fmt.Sprintf(" %d/%d ions", m.done, m.total))

	elapsed := time.Since(m.start)
	if m.done > 0 && m.total > m.done {
		eta := time.Duration(float64(elapsed) / float64(m.done) * float64(m.total-m.done))
		b.WriteString(Subtle.Render(fmt.Sprintf("  eta %s", eta.Round(time.Second))))
	}
	b.WriteString("\n\n" + KeyHint.Render("q: stop"))
	return b.String()
}
