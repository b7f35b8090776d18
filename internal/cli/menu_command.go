package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type menuMode int

const (
	menuModeBrowse menuMode = iota
	menuModeInputURL
	menuModeInputList
)

type menuAction int

const (
	menuActionGet menuAction = iota
	menuActionBatch
	menuActionRetry
	menuActionJournal
	menuActionStats
	menuActionTranscribe
	menuActionQuit
)

type menuItem struct {
	action menuAction
	label  string
	help   string
}

var menuItems = []menuItem{
	{menuActionGet, "Download a video", "Fetch a single video by URL"},
	{menuActionBatch, "Batch download", "Enter several URLs; downloads run one at a time with pacing delays"},
	{menuActionRetry, "Retry failed downloads", "Re-attempt everything in the failure journal with conservative pacing"},
	{menuActionJournal, "Show failure journal", "List recorded download failures"},
	{menuActionStats, "Library statistics", "Downloads folder, subtitle coverage, and journal state"},
	{menuActionTranscribe, "Generate subtitles", "Launch the subtitle generator on the downloads folder"},
	{menuActionQuit, "Quit", ""},
}

var (
	menuTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	menuMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	menuSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	menuPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type menuModel struct {
	cursor int
	width  int
	mode   menuMode
	input  textinput.Model

	urls []string

	chosen    menuAction
	hasChoice bool
	getURL    string
}

func runMenu(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("menu takes no arguments")
	}
	if !stdinIsTTY() {
		return errors.New("the menu requires an interactive terminal (use subcommands in scripts)")
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}

	for {
		m := newMenuModel()
		final, err := tea.NewProgram(m).Run()
		if err != nil {
			return err
		}
		fm, ok := final.(menuModel)
		if !ok || !fm.hasChoice || fm.chosen == menuActionQuit {
			return nil
		}
		if err := dispatchMenuAction(rt, fm); err != nil {
			fmt.Printf("error: %v\n", err)
		}
		fmt.Println()
	}
}

func dispatchMenuAction(rt *appRuntime, m menuModel) error {
	switch m.chosen {
	case menuActionGet:
		return executeGet(rt, m.getURL, "", "", false)
	case menuActionBatch:
		return runBatch(m.urls)
	case menuActionRetry:
		return executeRetry(rt, "", false)
	case menuActionJournal:
		return runJournalShow(nil)
	case menuActionStats:
		return runStats(nil)
	case menuActionTranscribe:
		return executeTranscribe(rt, "")
	}
	return nil
}

func newMenuModel() menuModel {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 2048
	input.Width = 72
	return menuModel{mode: menuModeBrowse, input: input}
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case menuModeBrowse:
		return m.updateBrowse(key)
	case menuModeInputURL, menuModeInputList:
		return m.updateInput(key)
	default:
		return m, nil
	}
}

func (m menuModel) updateBrowse(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}
	case "enter":
		action := menuItems[m.cursor].action
		switch action {
		case menuActionGet:
			m.mode = menuModeInputURL
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		case menuActionBatch:
			m.mode = menuModeInputList
			m.urls = nil
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		default:
			m.chosen = action
			m.hasChoice = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m menuModel) updateInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "esc":
		m.mode = menuModeBrowse
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if m.mode == menuModeInputURL {
			if value == "" {
				m.mode = menuModeBrowse
				return m, nil
			}
			m.chosen = menuActionGet
			m.getURL = value
			m.hasChoice = true
			return m, tea.Quit
		}
		// Batch list entry: an empty line or "done" finishes the list.
		if value == "" || strings.EqualFold(value, "done") {
			if len(m.urls) == 0 {
				m.mode = menuModeBrowse
				return m, nil
			}
			m.chosen = menuActionBatch
			m.hasChoice = true
			return m, tea.Quit
		}
		m.urls = append(m.urls, value)
		m.input.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m menuModel) View() string {
	header := menuTitleStyle.Render("rutube-downloader") + "\n" +
		menuMutedStyle.Render("up/down: move | enter: select | q: quit")

	switch m.mode {
	case menuModeInputURL:
		panel := menuPanelStyle.Render("Video URL (esc to go back)\n" + m.input.View())
		return lipgloss.JoinVertical(lipgloss.Left, header, panel)
	case menuModeInputList:
		lines := make([]string, 0, len(m.urls)+3)
		lines = append(lines, fmt.Sprintf("Batch URLs, one per line (%d so far)", len(m.urls)))
		for i, u := range m.urls {
			lines = append(lines, menuMutedStyle.Render(fmt.Sprintf("  %d. %s", i+1, u)))
		}
		lines = append(lines, "Empty line or 'done' starts the batch; esc cancels")
		lines = append(lines, m.input.View())
		panel := menuPanelStyle.Render(strings.Join(lines, "\n"))
		return lipgloss.JoinVertical(lipgloss.Left, header, panel)
	}

	lines := make([]string, 0, len(menuItems))
	for i, item := range menuItems {
		line := "  " + item.label
		if i == m.cursor {
			line = menuSelStyle.Render("> " + item.label)
		}
		lines = append(lines, line)
	}
	panel := menuPanelStyle.Render(strings.Join(lines, "\n"))
	help := menuMutedStyle.Render(menuItems[m.cursor].help)
	return lipgloss.JoinVertical(lipgloss.Left, header, panel, help)
}
