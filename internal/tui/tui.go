package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/cyber-clicker/internal/engine"
	"github.com/tatianab/cyber-clicker/internal/events"
	"github.com/tatianab/cyber-clicker/internal/game"
	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/tutor"
)

type sessionState int

const (
	stateLoading sessionState = iota
	statePlaying
	stateError
)

const refreshInterval = 200 * time.Millisecond

type model struct {
	state    sessionState
	session  *game.Session
	tutor    tutor.Tutor
	upgrades []models.Upgrade
	events   <-chan events.Event
	unsub    func()
	viewport viewport.Model
	xpBar    progress.Model
	err      error
	gameLog  string
	width    int
	height   int
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D787")).
			Bold(true).
			Underline(true)

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	affordableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D787"))

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	lessonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			PaddingLeft(1)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	logStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2)
)

// NewModel subscribes to the session right away so no event emitted during
// load is missed.
func NewModel(sess *game.Session, tu tutor.Tutor) model {
	ch, unsub := sess.Subscribe()
	return model{
		state:    stateLoading,
		session:  sess,
		tutor:    tu,
		upgrades: sess.Engine().Catalog().List(),
		events:   ch,
		unsub:    unsub,
		viewport: viewport.New(40, 10),
		xpBar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

type loadedMsg struct{}

type eventMsg struct {
	event events.Event
}

type eventsClosedMsg struct{}

type lessonMsg struct {
	text string
}

type refreshMsg struct{}

type errMsg struct {
	err error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.listen(), refresh())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.unsub()
			return m, tea.Quit
		}
		if m.state != statePlaying {
			return m, nil
		}
		switch key := msg.String(); key {
		case " ", "space", "enter":
			if err := m.session.ManualAction(context.Background()); err != nil {
				m.appendLog(eventStyle.Render("Click ignored: " + err.Error()))
			}
		case "s":
			m.session.Flush(context.Background())
			if m.session.LastSaveOK() {
				m.appendLog(helpStyle.Render("Game saved."))
			} else {
				m.appendLog(eventStyle.Render("Saving failed, progress is kept in memory only."))
			}
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				i := int(key[0] - '1')
				if i < len(m.upgrades) {
					// Failures arrive as PurchaseFailed events.
					_ = m.session.Purchase(context.Background(), m.upgrades[i].ID)
				}
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.45)
		m.viewport.Height = msg.Height - 6
		m.viewport.SetContent(m.gameLog)
		return m, nil

	case loadedMsg:
		m.state = statePlaying
		st, _ := m.session.State()
		m.appendLog(statStyle.Render(fmt.Sprintf("Welcome back, agent. You are level %d.", st.Level)))
		return m, nil

	case eventMsg:
		line, cmd := m.describe(msg.event)
		if line != "" {
			m.appendLog(line)
		}
		return m, tea.Batch(cmd, m.listen())

	case eventsClosedMsg:
		return m, nil

	case lessonMsg:
		m.appendLog(lessonStyle.Width(max(m.viewport.Width-2, 20)).Render("Lesson: " + msg.text))
		return m, nil

	case refreshMsg:
		return m, refresh()

	case errMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	return m, nil
}

func (m *model) appendLog(line string) {
	if m.gameLog != "" {
		m.gameLog += "\n"
	}
	m.gameLog += line
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

// describe turns a session event into a log line and, for level-ups and
// first purchases, a command fetching a lesson.
func (m model) describe(ev events.Event) (string, tea.Cmd) {
	switch data := ev.Data.(type) {
	case events.LevelUpData:
		return eventStyle.Render(fmt.Sprintf("LEVEL UP! You reached level %d and your clicks got stronger.", data.NewLevel)),
			m.lesson(tutor.Request{Level: data.NewLevel})
	case events.PurchaseSucceededData:
		u, _ := m.session.Engine().Catalog().Get(data.UpgradeID)
		line := statStyle.Render(fmt.Sprintf("Bought %s for %.0f packets (owned: %d).", u.Name, data.Cost, data.OwnedCount))
		if data.OwnedCount == 1 {
			st, _ := m.session.State()
			return line, m.lesson(tutor.Request{Level: st.Level, Upgrade: &u})
		}
		return line, nil
	case events.PurchaseFailedData:
		return lockedStyle.Render("Can't buy that yet: " + data.Reason), nil
	case events.AchievementUnlockedData:
		return eventStyle.Render("Achievement unlocked: " + data.Name), nil
	}
	return "", nil
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateLoading:
		s = "\n  Loading your save... please wait.\n"

	case statePlaying:
		left := lipgloss.JoinVertical(lipgloss.Left,
			m.renderStats(),
			"",
			m.renderUpgrades(),
			"",
			m.renderAchievements(),
		)
		leftWidth := int(float64(m.width) * 0.5)
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(leftWidth).Render(left),
			logStyle.Render(m.viewport.View()),
		)
		help := helpStyle.Render("space: collect packets  1-9: buy upgrade  s: save  q: quit")
		s = lipgloss.JoinVertical(lipgloss.Left, mainView, "\n"+help)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func (m model) renderStats() string {
	st, err := m.session.State()
	if err != nil {
		return ""
	}
	eng := m.session.Engine()
	out := titleStyle.Render("CYBER DEFENSE HQ") + "\n"
	out += statStyle.Render(fmt.Sprintf("Packets:     %.0f", math.Floor(st.Currency))) + "\n"
	out += statStyle.Render(fmt.Sprintf("Click power: %g", st.ClickPower)) + "\n"
	out += statStyle.Render(fmt.Sprintf("Auto rate:   %g/s", st.AutoRate)) + "\n"
	out += statStyle.Render(fmt.Sprintf("Level:       %d  (%.0f/%.0f XP)", st.Level, st.Experience, eng.Threshold(st.Level))) + "\n"
	out += m.xpBar.ViewAs(eng.Progress(st))
	return out
}

func (m model) renderUpgrades() string {
	st, err := m.session.State()
	if err != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("UPGRADES"))
	for i, u := range m.upgrades {
		if i >= 9 {
			break
		}
		cost := engine.UpgradeCost(u, st.Owned(u.ID))
		line := fmt.Sprintf("[%d] %-24s %8.0f  x%d", i+1, u.Name, cost, st.Owned(u.ID))
		style := lockedStyle
		if st.Currency >= cost {
			style = affordableStyle
		}
		b.WriteString("\n" + style.Render(line))
	}
	return b.String()
}

func (m model) renderAchievements() string {
	st, err := m.session.State()
	if err != nil {
		return ""
	}
	unlocked := engine.DeriveAchievements(st)
	out := titleStyle.Render(fmt.Sprintf("ACHIEVEMENTS (%d/%d)", len(unlocked), len(engine.Achievements())))
	if len(unlocked) == 0 {
		return out + "\n" + lockedStyle.Render("(none yet)")
	}
	for _, a := range unlocked {
		out += "\n" + affordableStyle.Render("* "+a.Name) + " " + helpStyle.Render(a.Description)
	}
	return out
}

func (m model) load() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Load(context.Background()); err != nil && !errors.Is(err, game.ErrAlreadyLoaded) {
			return errMsg{err}
		}
		return loadedMsg{}
	}
}

func (m model) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{ev}
	}
}

func (m model) lesson(req tutor.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		text, err := m.tutor.Lesson(ctx, req)
		if err != nil || text == "" {
			return nil
		}
		return lessonMsg{text}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

// Run blocks until the player quits or ctx is cancelled. The caller owns
// closing the session.
func Run(ctx context.Context, sess *game.Session, tu tutor.Tutor) error {
	p := tea.NewProgram(NewModel(sess, tu), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
