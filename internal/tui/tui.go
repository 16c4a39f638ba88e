package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tatianab/wumpus/internal/agent"
	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/engine"
	"github.com/tatianab/wumpus/internal/logging"
	"github.com/tatianab/wumpus/internal/models"
)

type sessionState int

const (
	statePlaying sessionState = iota
	stateThinking
	stateError
)

// Options configures an interactive session.
type Options struct {
	Engine  *engine.Engine
	Size    int
	Density float64
	Seed    uint64
	// Tick is the auto-play pace.
	Tick time.Duration
	// NewPlayer builds the AI for an episode. Nil means the heuristic.
	NewPlayer func(ep *engine.Episode) driver.Player
	// Observers see every step, whoever chose it.
	Observers []driver.Observer
	// OnFinish runs once when an episode ends. player is "human" if any
	// move was typed, otherwise the AI's name.
	OnFinish func(ep *engine.Episode, player string) error
	Logger   *zap.Logger
}

type model struct {
	state    sessionState
	opts     Options
	engine   *engine.Engine
	logger   *zap.Logger
	episode  *engine.Episode
	beliefs  agent.Beliefs
	player   driver.Player
	viewport viewport.Model
	err      error
	width    int
	height   int

	seed     uint64
	reveal   bool
	autoplay bool
	// gen invalidates pending ticks when auto-play is toggled or a new game starts.
	gen      int
	typed    bool
	finished bool
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Padding(0, 1)

	cellStyles = map[rune]lipgloss.Style{
		'P': lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")),
		'W': lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
		'G': lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		'!': lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8700")),
		'+': lipgloss.NewStyle().Foreground(lipgloss.Color("#87D787")),
		'?': lipgloss.NewStyle().Foreground(lipgloss.Color("#4E4E4E")),
	}
	playerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5F5F87")).Bold(true)
)

var facingGlyph = map[models.Direction]string{
	models.Up:    "^",
	models.Right: ">",
	models.Down:  "v",
	models.Left:  "<",
}

var keyActions = map[string]models.Action{
	"f":     models.MoveForward,
	"up":    models.MoveForward,
	"a":     models.TurnLeft,
	"left":  models.TurnLeft,
	"d":     models.TurnRight,
	"right": models.TurnRight,
	"g":     models.Grab,
	"s":     models.Shoot,
	"c":     models.Climb,
}

const helpText = "f/↑ forward  a/← left  d/→ right  g grab  s shoot  c climb  ·  n AI step  p auto-play  r reveal  x new game  q quit"

// NewModel starts the first episode.
func NewModel(opts Options) (model, error) {
	if opts.Engine == nil {
		opts.Engine = engine.NewEngine(opts.Logger)
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	m := model{
		opts:     opts,
		engine:   opts.Engine,
		logger:   logging.OrNop(opts.Logger),
		viewport: viewport.New(60, 10),
	}
	if err := m.newGame(opts.Seed); err != nil {
		return model{}, err
	}
	return m, nil
}

func (m *model) newGame(seed uint64) error {
	ep, err := m.engine.NewEpisode(seed, m.opts.Size, m.opts.Density)
	if err != nil {
		return err
	}
	m.episode = ep
	m.seed = seed
	m.beliefs = agent.Update(agent.NewBeliefs(ep.State.Size()), ep.State)
	if m.opts.NewPlayer != nil {
		m.player = m.opts.NewPlayer(ep)
	} else {
		m.player = driver.Heuristic{Rand: ep.Rand}
	}
	m.state = statePlaying
	m.autoplay = false
	m.reveal = false
	m.typed = false
	m.finished = false
	m.err = nil
	m.gen++
	m.refreshLog()
	return nil
}

func (m model) Init() tea.Cmd {
	return nil
}

type aiActionMsg struct {
	gen    int
	turn   int
	action models.Action
	err    error
}

type tickMsg struct {
	gen int
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.6)
		m.viewport.Height = max(msg.Height-m.episode.State.Size()-8, 3)
		m.refreshLog()

	case tickMsg:
		if msg.gen != m.gen || !m.autoplay || m.state != statePlaying {
			return m, nil
		}
		return m.askAI()

	case aiActionMsg:
		if msg.gen != m.gen || msg.turn != m.episode.State.Turn {
			return m, nil
		}
		m.state = statePlaying
		if msg.err != nil {
			m.err = msg.err
			m.autoplay = false
			m.logger.Warn("AI player failed", zap.Error(msg.err))
			return m, nil
		}
		m.apply(msg.action)
		if m.autoplay && !m.episode.State.GameOver {
			return m, m.tick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	case "x":
		if err := m.newGame(m.seed + 1); err != nil {
			m.err = err
			m.state = stateError
		}
		return m, nil
	case "r":
		m.reveal = !m.reveal
		return m, nil
	}

	if m.state != statePlaying || m.episode.State.GameOver {
		return m, nil
	}

	switch key {
	case "n":
		return m.askAI()
	case "p":
		m.autoplay = !m.autoplay
		m.gen++
		if m.autoplay {
			return m, m.tick()
		}
		return m, nil
	}

	if a, ok := keyActions[key]; ok {
		m.typed = true
		m.autoplay = false
		m.gen++
		m.apply(a)
	}
	return m, nil
}

func (m model) askAI() (tea.Model, tea.Cmd) {
	m.state = stateThinking
	player, beliefs, state, gen := m.player, m.beliefs, m.episode.State, m.gen
	return m, func() tea.Msg {
		a, err := player.Choose(context.Background(), beliefs, state)
		return aiActionMsg{gen: gen, turn: state.Turn, action: a, err: err}
	}
}

func (m model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.opts.Tick, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m *model) apply(a models.Action) {
	state := m.engine.Step(m.episode, a)
	m.beliefs = agent.Update(m.beliefs, state)

	step := driver.Step{EpisodeID: m.episode.ID, Action: a, State: state, Beliefs: m.beliefs}
	for _, o := range m.opts.Observers {
		if err := o.Observe(step); err != nil {
			m.logger.Warn("observer failed", zap.Error(err))
		}
	}

	if state.GameOver && !m.finished {
		m.finished = true
		m.autoplay = false
		m.reveal = true
		if m.opts.OnFinish != nil {
			name := m.player.Name()
			if m.typed {
				name = "human"
			}
			if err := m.opts.OnFinish(m.episode, name); err != nil {
				m.err = err
				m.logger.Error("failed to record episode", zap.Error(err))
			}
		}
	}
	m.refreshLog()
}

func (m *model) refreshLog() {
	width := m.viewport.Width
	var sb strings.Builder
	for i, line := range m.episode.State.Log {
		if i > 0 {
			sb.WriteString("\n")
		}
		if i == len(m.episode.State.Log)-1 {
			sb.WriteString(userStyle.Width(width).Render("> " + line))
		} else {
			sb.WriteString(gameStyle.Width(width).Render(line))
		}
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m model) View() string {
	var s string

	switch m.state {
	case statePlaying, stateThinking:
		left := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("WUMPUS WORLD  seed %d", m.seed)),
			boardStyle.Render(m.renderBoard()),
			m.viewport.View(),
		)
		mainView := lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderState())

		status := ""
		if m.state == stateThinking {
			status = "\n  thinking..."
		} else if m.err != nil {
			status = fmt.Sprintf("\n  Error: %v", m.err)
		}
		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			status,
			"\n"+helpStyle.Render(helpText),
		)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

// boardGlyphs returns one rune per square. Unrevealed squares the player has
// not visited show what the beliefs say about them.
func (m model) boardGlyphs() [][]rune {
	st := m.episode.State
	rows := st.Grid.Rows()
	out := make([][]rune, len(rows))
	for y, row := range rows {
		out[y] = []rune(row)
		for x := range out[y] {
			p := models.Position{X: x, Y: y}
			if m.reveal || st.WasVisited(p) || p == st.Position {
				continue
			}
			switch {
			case m.beliefs.Dangerous.Has(p):
				out[y][x] = '!'
			case m.beliefs.Safe.Has(p):
				out[y][x] = '+'
			default:
				out[y][x] = '?'
			}
		}
	}
	return out
}

func (m model) renderBoard() string {
	st := m.episode.State
	var sb strings.Builder
	for y, row := range m.boardGlyphs() {
		if y > 0 {
			sb.WriteString("\n")
		}
		for x, r := range row {
			if x > 0 {
				sb.WriteString(" ")
			}
			if (models.Position{X: x, Y: y}) == st.Position {
				sb.WriteString(playerStyle.Render(facingGlyph[st.Facing]))
				continue
			}
			if style, ok := cellStyles[r]; ok {
				sb.WriteString(style.Render(string(r)))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

func (m model) renderState() string {
	st := m.episode.State

	statusTitle := titleStyle.Render("STATUS") + "\n"
	status := fmt.Sprintf("Score: %d\nTurn: %d\nPosition: %s facing %s\nState: %s\n", st.Score, st.Turn, st.Position, st.Facing, st.Status)
	if st.HasGold {
		status += "Carrying the gold\n"
	}
	if st.WumpusAlive {
		status += "Wumpus: alive\n"
	} else {
		status += "Wumpus: dead\n"
	}
	if m.autoplay {
		status += fmt.Sprintf("Auto-play: %s every %s\n", m.player.Name(), m.opts.Tick)
	}
	status += "\n"

	perceptTitle := titleStyle.Render("PERCEPTS") + "\n"
	percepts := "(none)"
	if names := st.Percept.Names(); len(names) > 0 {
		percepts = strings.Join(names, ", ")
	}
	percepts += "\n\n"

	aiTitle := titleStyle.Render("AI") + "\n"
	content := statusTitle + status + perceptTitle + percepts + aiTitle + agent.Explain(m.beliefs, st)

	stateWidth := int(float64(m.width) * 0.38)
	if stateWidth < 30 {
		stateWidth = 30
	}
	return stateStyle.Width(stateWidth).Render(content)
}

// Run plays interactively until the user quits.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
