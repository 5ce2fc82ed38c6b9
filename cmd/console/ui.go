package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/platform-eight/commute-engine/pkg/game"
)

const PlaceHolderText = "c2 to inspect commuter 2, t to ride on..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config           *ConsoleConfig
	client           *http.Client
	session          *game.Session
	platformViewport viewport.Model
	statusViewport   viewport.Model
	textarea         textarea.Model
	ready            bool
	width            int
	height           int
	err              error
	loading          bool

	// Rolling feed of day notes and click outcomes.
	journal []string

	// Scene selection state
	showSceneModal bool
	scenes         []string
	sceneMap       map[string]string
	selectedScene  int
	loadingScenes  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type scenesLoadedMsg struct {
	scenes   []string
	sceneMap map[string]string
	err      error
}

type sessionCreatedMsg struct {
	session *game.Session
	err     error
}

type clickDoneMsg struct {
	resp *ClickResponse
	err  error
}

type trainDoneMsg struct {
	resp *TrainResponse
	err  error
}

type sessionRefreshedMsg struct {
	session *game.Session
	err     error
}

type copiedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	platformPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(1).
				PaddingLeft(3).
				PaddingRight(0)

	statusPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(0).
				PaddingLeft(0).
				PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	slotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	foundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	journalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var displayCaser = cases.Title(language.English)

// displayName turns a snake_case content token into a readable label.
func displayName(token string) string {
	return displayCaser.String(strings.ReplaceAll(token, "_", " "))
}

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 50
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	platformVp := viewport.New(50, 20)
	platformVp.MouseWheelEnabled = true

	statusVp := viewport.New(20, 20)

	return ConsoleUI{
		config:           cfg,
		client:           client,
		textarea:         ta,
		platformViewport: platformVp,
		statusViewport:   statusVp,
		ready:            false,
		showSceneModal:   true,
		loadingScenes:    true,
		selectedScene:    0,
	}
}

// writePlatformContent rebuilds the platform roster view for the current width.
func (m *ConsoleUI) writePlatformContent() {
	width := m.platformViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("MORNING PLATFORM") + "\n\n")
	content.WriteString("Something about this platform changes from day to day.\n")
	content.WriteString("If you spot the difference, call it out.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	if m.session == nil {
		m.platformViewport.SetContent(content.String())
		return
	}

	content.WriteString(slotStyle.Render("Commuters") + "\n")
	for i, e := range m.session.Registry.Commuters {
		line := fmt.Sprintf("  c%d  %s, %s", i+1, displayName(e.Type), displayName(e.CurrentVariation))
		content.WriteString(line + "\n")
	}
	if len(m.session.Registry.Commuters) == 0 {
		content.WriteString("  (the platform is empty)\n")
	}

	content.WriteString("\n" + slotStyle.Render("Around the platform") + "\n")
	for i, e := range m.session.Registry.SetDressing {
		line := fmt.Sprintf("  s%d  %s, %s", i+1, displayName(e.Type), displayName(e.CurrentVariation))
		content.WriteString(line + "\n")
	}
	if len(m.session.Registry.SetDressing) == 0 {
		content.WriteString("  (nothing of note)\n")
	}

	content.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, entry := range m.journal {
		content.WriteString(wordwrap.String(entry, width) + "\n")
	}

	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}

	m.platformViewport.SetContent(content.String())
	m.platformViewport.GotoBottom()
}

func (m *ConsoleUI) writeStatusContent() {
	if m.session == nil {
		return
	}
	s := m.session

	var content strings.Builder
	content.WriteString(titleStyle.Render("COMMUTE") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(s.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Day %d\n", s.Day))
	switch s.State {
	case game.StateCompleted:
		content.WriteString(foundStyle.Render("Fully aware") + "\n")
	case game.StateGameOver:
		content.WriteString(errorStyle.Render("Commute over") + "\n")
	default:
		if s.CanClick {
			content.WriteString("Something is different today.\n")
		} else {
			content.WriteString("A quiet morning.\n")
		}
	}
	content.WriteString("\n")

	content.WriteString(fmt.Sprintf("Awareness: level %d\n", s.Awareness.Level))
	content.WriteString(m.renderXPBar() + "\n")
	if !s.Awareness.AtMax(s.Balance) {
		content.WriteString(fmt.Sprintf("%d / %d xp\n", s.Awareness.XP, s.Balance.Requirement(s.Awareness.Level)))
	}
	content.WriteString("\n")

	content.WriteString("Record:\n")
	content.WriteString(fmt.Sprintf("Days ridden: %d\n", s.Stats.DaysRidden))
	content.WriteString(fmt.Sprintf("Found: %d\n", s.Stats.ChangesFound))
	content.WriteString(fmt.Sprintf("Missed: %d\n\n", s.Stats.ChangesMissed))

	content.WriteString("Commands:\n")
	content.WriteString("• c1..c8: Point at a commuter\n")
	content.WriteString("• s1..s8: Point at set dressing\n")
	content.WriteString("• t: Take the train\n")
	content.WriteString("• /copy: Copy session ID\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.statusViewport.SetContent(content.String())
}

// renderXPBar draws progress toward the next level.
func (m ConsoleUI) renderXPBar() string {
	s := m.session
	width := 14

	req := s.Balance.Requirement(s.Awareness.Level)
	if s.Awareness.AtMax(s.Balance) || req <= 0 {
		return foundStyle.Render(strings.Repeat("█", width))
	}

	filled := (s.Awareness.XP * width) / req
	if filled > width {
		filled = width
	}
	return foundStyle.Render(strings.Repeat("█", filled)) +
		separatorStyle.Render(strings.Repeat("░", width-filled))
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showSceneModal {
		return m.loadScenes()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle scene modal first
	if m.showSceneModal {
		return m.updateSceneModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		svCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writePlatformContent()
		m.writeStatusContent()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.ToLower(strings.TrimSpace(m.textarea.Value()))
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m.handleInput(input)
		}

	case clickDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.journal = append(m.journal, errorStyle.Render("Error: "+msg.err.Error()))
		} else {
			m.session = msg.resp.Session
			m.journal = append(m.journal, m.describeClick(msg.resp.Result))
		}
		m.writePlatformContent()
		m.writeStatusContent()
		return m, nil

	case trainDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.journal = append(m.journal, errorStyle.Render("Error: "+msg.err.Error()))
		} else {
			m.session = msg.resp.Session
			m.journal = append(m.journal, m.describeTrain(msg.resp.Result)...)
		}
		m.writePlatformContent()
		m.writeStatusContent()
		return m, nil

	case sessionRefreshedMsg:
		if msg.err != nil {
			m.journal = append(m.journal, errorStyle.Render("Error: "+msg.err.Error()))
		} else if msg.session != nil {
			m.session = msg.session
		}
		m.writePlatformContent()
		m.writeStatusContent()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.journal = append(m.journal, errorStyle.Render("Could not copy session ID: "+msg.err.Error()))
		} else {
			m.journal = append(m.journal, journalStyle.Render("Session ID copied to clipboard."))
		}
		m.writePlatformContent()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writePlatformContent()
			return m, progressTick()
		}
	}

	// Update components for remaining events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.platformViewport, vpCmd = m.platformViewport.Update(msg)
	m.statusViewport, svCmd = m.statusViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, svCmd)
}

func (m *ConsoleUI) resize() {
	platformWidth := int(float64(m.width)*0.72) - 4
	statusWidth := m.width - platformWidth - 6

	m.platformViewport.Width = platformWidth - 2
	m.platformViewport.Height = m.height - 7
	m.statusViewport.Width = statusWidth - 2
	m.statusViewport.Height = m.height - 4
	m.textarea.SetWidth(platformWidth - 4)
}

// handleInput routes a typed command: an entity shorthand is a click, "t"
// rides the train, slash commands are local.
func (m ConsoleUI) handleInput(input string) (tea.Model, tea.Cmd) {
	switch input {
	case "t", "train":
		m.loading = true
		m.progressTick = 0
		m.writePlatformContent()
		return m, tea.Batch(m.rideTrain(), progressTick())

	case "/copy", "copy":
		return m, m.copySessionID()

	case "/sync", "sync":
		return m, m.refreshSession()

	case "/help", "help":
		m.journal = append(m.journal,
			journalStyle.Render("Point at an entity (c2, s1) to call out a change. Type t to ride to the next day."))
		m.writePlatformContent()
		return m, nil
	}

	if entityID, ok := m.resolveEntity(input); ok {
		m.loading = true
		m.progressTick = 0
		m.writePlatformContent()
		return m, tea.Batch(m.click(entityID), progressTick())
	}

	m.journal = append(m.journal, errorStyle.Render(fmt.Sprintf("Unknown command %q. Try c1, s1, t or /help.", input)))
	m.writePlatformContent()
	return m, nil
}

// resolveEntity maps shorthand (c2, s1) or a raw entity ID onto the roster.
func (m ConsoleUI) resolveEntity(input string) (string, bool) {
	if m.session == nil {
		return "", false
	}

	if len(input) >= 2 {
		if n, err := strconv.Atoi(input[1:]); err == nil && n >= 1 {
			switch input[0] {
			case 'c':
				if n <= len(m.session.Registry.Commuters) {
					return m.session.Registry.Commuters[n-1].ID, true
				}
			case 's', 'p':
				if n <= len(m.session.Registry.SetDressing) {
					return m.session.Registry.SetDressing[n-1].ID, true
				}
			}
		}
	}

	if m.session.Registry.Find(input) != nil {
		return input, true
	}
	return "", false
}

func (m ConsoleUI) describeClick(res *game.ClickResult) string {
	switch res.Outcome {
	case game.OutcomeCorrect:
		line := foundStyle.Render(fmt.Sprintf("That's it! You spotted the change. +%d xp", res.XPAwarded))
		for _, up := range res.LevelUps {
			line += "\n" + foundStyle.Render(fmt.Sprintf("Awareness level %d! A new face joins the platform.", up.To))
		}
		if res.State == game.StateCompleted {
			line += "\n" + titleStyle.Render("You see everything now. The commute is complete.")
		}
		return line
	case game.OutcomeAlreadyFound:
		return journalStyle.Render("You already noticed that one today.")
	case game.OutcomeWrongEntity:
		if res.State == game.StateGameOver {
			return errorStyle.Render("No... that was always like that. The doubt takes over. Commute over.")
		}
		return journalStyle.Render("Nothing seems different about that. Keep looking.")
	default:
		return journalStyle.Render("Nothing has changed today, as far as you can tell.")
	}
}

func (m ConsoleUI) describeTrain(res *game.TrainResult) []string {
	var lines []string
	if res.Missed != nil {
		lines = append(lines, errorStyle.Render("You rode on. Something had changed, and you never saw it."))
	}
	lines = append(lines, journalStyle.Render(fmt.Sprintf("Day %d. The train pulls in to the same platform.", res.Day)))
	if res.TrainXP > 0 {
		lines = append(lines, journalStyle.Render(fmt.Sprintf("Observant riding. +%d xp", res.TrainXP)))
	}
	for _, up := range res.LevelUps {
		lines = append(lines, foundStyle.Render(fmt.Sprintf("Awareness level %d! A new face joins the platform.", up.To)))
	}
	if res.State == game.StateCompleted {
		lines = append(lines, titleStyle.Render("You see everything now. The commute is complete."))
	}
	return lines
}

func (m ConsoleUI) click(entityID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := clickEntity(m.client, m.config.APIBaseURL, m.session.ID, entityID)
		return clickDoneMsg{resp, err}
	}
}

func (m ConsoleUI) rideTrain() tea.Cmd {
	return func() tea.Msg {
		resp, err := takeTrain(m.client, m.config.APIBaseURL, m.session.ID)
		return trainDoneMsg{resp, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		s, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionRefreshedMsg{s, err}
	}
}

func (m ConsoleUI) copySessionID() tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{clipboard.WriteAll(m.session.ID.String())}
	}
}

func (m ConsoleUI) loadScenes() tea.Cmd {
	return func() tea.Msg {
		names, sceneMap, err := listScenes(m.client, m.config.APIBaseURL)
		return scenesLoadedMsg{names, sceneMap, err}
	}
}

func (m ConsoleUI) createSessionFromScene(sceneFile string) tea.Cmd {
	return func() tea.Msg {
		s, err := createSession(m.client, m.config.APIBaseURL, sceneFile, m.config.FailMode)
		return sessionCreatedMsg{s, err}
	}
}

func (m ConsoleUI) updateSceneModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case scenesLoadedMsg:
		m.loadingScenes = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scenes = msg.scenes
			m.sceneMap = msg.sceneMap
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showSceneModal = false
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.journal = append(m.journal,
				journalStyle.Render("Day 1. A new commute begins. Learn the platform; it will not stay the same."))
			m.writePlatformContent()
			m.writeStatusContent()
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingScenes {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				m.showQuitModal = true
				return m, nil
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedScene > 0 {
				m.selectedScene--
			}
		case tea.KeyDown:
			if m.selectedScene < len(m.scenes)-1 {
				m.selectedScene++
			}
		case tea.KeyEnter:
			if len(m.scenes) > 0 {
				name := m.scenes[m.selectedScene]
				m.loading = true
				return m, m.createSessionFromScene(m.sceneMap[name])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showSceneModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Stop Commuting?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the platform and end this session?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSceneModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingScenes {
		content.WriteString(modalTitleStyle.Render("Loading Scenes..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available platforms..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load scenes: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Boarding..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your commute..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Platform"))
		content.WriteString("\n\n")

		for i, name := range m.scenes {
			if i == m.selectedScene {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showSceneModal {
		return m.renderSceneModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	platformWidth := int(float64(m.width)*0.72) - 4
	statusWidth := m.width - platformWidth - 6

	platformPanel := platformPanelStyle.Width(platformWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.platformViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", platformWidth-4)),
			m.textarea.View(),
		),
	)

	statusPanel := statusPanelStyle.Width(statusWidth).Height(m.height - 2).Render(
		m.statusViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, platformPanel, statusPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.platformViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
