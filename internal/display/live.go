package display

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sereven/lmfit/internal/lm"
)

const (
	liveWidth  = 70
	liveHeight = 12
)

type TickMsg time.Time

// LiveModel replays a stored convergence trace iteration by iteration.
// The fit itself runs to completion first; replay is presentation only.
type LiveModel struct {
	problem string
	res     *lm.Result
	head    int
	playing bool
}

func NewLiveModel(problem string, res *lm.Result) LiveModel {
	return LiveModel{
		problem: problem,
		res:     res,
		head:    1,
		playing: true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if m.playing && m.head < len(m.res.Trace) {
			m.head++
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "r":
			m.head = 1
			m.playing = true
		}
	}
	return m, nil
}

func (m LiveModel) View() string {
	if len(m.res.Trace) == 0 {
		return headerStyle.Render("no trace recorded") + "\n" + helpStyle.Render("q quit")
	}
	trace := m.res.Trace[:m.head]

	var stats strings.Builder
	last := trace[len(trace)-1]
	stats.WriteString(labelStyle.Render("iteration"))
	stats.WriteString(valueStyle.Render(fmt.Sprintf("%d / %d", last.Iter, m.res.Iter)))
	stats.WriteString("\n")
	stats.WriteString(labelStyle.Render("ssr"))
	stats.WriteString(valueStyle.Render(fmt.Sprintf("%.6e", last.SSR)))
	stats.WriteString("\n")
	stats.WriteString(labelStyle.Render("|grad|inf"))
	stats.WriteString(valueStyle.Render(fmt.Sprintf("%.6e", last.MaxAbsGr)))
	stats.WriteString("\n")
	stats.WriteString(labelStyle.Render("delta"))
	stats.WriteString(valueStyle.Render(fmt.Sprintf("%.3e", last.Aux["delta"])))
	stats.WriteString("\n")
	stats.WriteString(labelStyle.Render("rho"))
	stats.WriteString(valueStyle.Render(fmt.Sprintf("%+.3f", last.Aux["rho"])))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		Convergence(trace, liveWidth, liveHeight),
		statsStyle.Render(stats.String()),
	)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s · %s", m.problem, m.res.Method)))
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("space pause · r restart · q quit"))
	return sb.String()
}
