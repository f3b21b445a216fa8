package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/fridgelingo/fridgelingo/internal/app"
	"github.com/fridgelingo/fridgelingo/internal/config"
	"github.com/fridgelingo/fridgelingo/internal/core"
	"github.com/fridgelingo/fridgelingo/internal/domain"
)

const cliLogFile = "fridgelingo-cli.log"

type view int

const (
	viewMenu view = iota
	viewInput
	viewLoading
	viewFridge
	viewQuiz
	viewStats
	viewResults
)

type inputMode int

const (
	inputModePhoto inputMode = iota
	inputModeImport
)

var menuItems = []string{
	"Snap a photo",
	"Import grocery list",
	"Open fridge",
	"Kitchen stats",
	"Exit",
}

// async results
type (
	questionsMsg struct {
		questions []core.EnrichedQuestion
		err       error
	}
	importMsg struct {
		result *core.ImportResult
		err    error
	}
	fridgeMsg struct {
		items []core.FridgeItem
		err   error
	}
	quizMsg struct {
		quiz domain.Quiz
		err  error
	}
	reviewMsg struct {
		ack core.ReviewAck
		err error
	}
	statsMsg struct {
		stats domain.Stats
		err   error
	}
)

type model struct {
	ctx        context.Context
	processor  *core.Processor
	targetLang string
	nativeLang string

	view       view
	cursor     int
	itemCursor int

	items     []core.FridgeItem
	questions []core.EnrichedQuestion
	imported  *core.ImportResult
	quiz      *domain.Quiz
	answered  int64
	stats     *domain.Stats
	notice    string
	err       error

	input     textinput.Model
	inputMode inputMode
	spinner   spinner.Model
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	normalStyle = lipgloss.NewStyle()

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	freshnessStyles = map[domain.Freshness]lipgloss.Style{
		domain.FreshnessFresh:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.FreshnessWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.FreshnessRotten:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func initialModel(ctx context.Context, processor *core.Processor, fridge config.FridgeConfig) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		ctx:        ctx,
		processor:  processor,
		targetLang: fridge.TargetLang,
		nativeLang: fridge.NativeLang,
		view:       viewMenu,
		input:      textinput.New(),
		spinner:    s,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case questionsMsg:
		m.err = msg.err
		m.questions = msg.questions
		m.imported = nil
		m.view = viewResults
		return m, nil

	case importMsg:
		m.err = msg.err
		m.imported = msg.result
		m.questions = nil
		if msg.result != nil {
			m.questions = msg.result.Questions
		}
		m.view = viewResults
		return m, nil

	case fridgeMsg:
		m.err = msg.err
		if msg.err == nil {
			m.items = msg.items
		}
		m.itemCursor = min(m.itemCursor, max(len(m.items)-1, 0))
		m.view = viewFridge
		return m, nil

	case quizMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = viewFridge
			return m, nil
		}
		m.err = nil
		m.quiz = &msg.quiz
		m.answered = 0
		m.view = viewQuiz
		return m, nil

	case reviewMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.notice = fmt.Sprintf("%s Level %d, %d reviews", msg.ack.Message, msg.ack.ProficiencyLevel, msg.ack.ReviewCount)
		if m.view == viewFridge {
			return m, m.loadFridge()
		}
		return m, nil

	case statsMsg:
		m.err = msg.err
		if msg.err == nil {
			m.stats = &msg.stats
		}
		m.view = viewStats
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.view == viewInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case viewInput:
		switch key {
		case "esc":
			return m.backToMenu(), nil
		case "enter":
			return m.handleInputSubmission()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case viewLoading:
		return m, nil

	case viewMenu:
		switch key {
		case "q":
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
			return m.handleMenuSelection()
		}
		return m, nil

	case viewFridge:
		return m.handleFridgeKey(key)

	case viewQuiz:
		return m.handleQuizKey(key)

	default:
		switch key {
		case "q", "esc", "enter":
			return m.backToMenu(), nil
		}
		return m, nil
	}
}

func (m model) backToMenu() model {
	m.view = viewMenu
	m.cursor = 0
	m.err = nil
	m.notice = ""
	m.input.Reset()
	return m
}

func (m model) handleMenuSelection() (tea.Model, tea.Cmd) {
	switch m.cursor {
	case 0: // Snap a photo
		m.view = viewInput
		m.inputMode = inputModePhoto
		m.input.Placeholder = "Enter image path (JPEG, PNG, GIF, WEBP)"
		m.input.Focus()
		return m, textinput.Blink

	case 1: // Import grocery list
		m.view = viewInput
		m.inputMode = inputModeImport
		m.input.Placeholder = "Enter grocery list path (PDF or DOCX)"
		m.input.Focus()
		return m, textinput.Blink

	case 2: // Open fridge
		m.itemCursor = 0
		m.notice = ""
		return m, m.loadFridge()

	case 3: // Kitchen stats
		return m, m.loadStats()

	case 4: // Exit
		return m, tea.Quit
	}

	return m, nil
}

func (m model) handleInputSubmission() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.err = nil
	m.view = viewLoading

	var work tea.Cmd
	switch m.inputMode {
	case inputModePhoto:
		work = m.submitPhoto(path)
	case inputModeImport:
		work = m.importList(path)
	}
	return m, tea.Batch(work, m.spinner.Tick)
}

func (m model) handleFridgeKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return m.backToMenu(), nil
	case "up", "k":
		if m.itemCursor > 0 {
			m.itemCursor--
		}
	case "down", "j":
		if m.itemCursor < len(m.items)-1 {
			m.itemCursor++
		}
	}

	if len(m.items) == 0 {
		return m, nil
	}
	selected := m.items[m.itemCursor].WordID

	switch key {
	case "r":
		return m, m.review(selected)
	case "t":
		m.notice = ""
		return m, m.loadQuiz(selected)
	case "d":
		m.notice = ""
		return m, m.deleteItem(selected)
	}
	return m, nil
}

func (m model) handleQuizKey(key string) (tea.Model, tea.Cmd) {
	if m.quiz == nil {
		return m.backToMenu(), nil
	}

	if m.answered != 0 {
		switch key {
		case "q", "esc", "enter":
			m.notice = ""
			return m, m.loadFridge()
		}
		return m, nil
	}

	switch key {
	case "q", "esc":
		return m, m.loadFridge()
	case "1", "2", "3", "4":
		i := int(key[0] - '1')
		if i >= len(m.quiz.Options) {
			return m, nil
		}
		m.answered = m.quiz.Options[i].ID
		// surviving the quiz counts as a review
		if m.answered == m.quiz.CorrectID {
			return m, m.review(m.quiz.CorrectID)
		}
	}
	return m, nil
}

func (m model) submitPhoto(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return questionsMsg{err: err}
		}
		questions, err := m.processor.SubmitImage(m.ctx, data, m.targetLang, m.nativeLang)
		return questionsMsg{questions: questions, err: err}
	}
}

func (m model) importList(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importMsg{err: err}
		}
		defer f.Close()

		result, err := m.processor.ImportDocument(m.ctx, f, filepath.Base(path), m.targetLang, m.nativeLang)
		return importMsg{result: result, err: err}
	}
}

func (m model) loadFridge() tea.Cmd {
	return func() tea.Msg {
		items, err := m.processor.ListFridge(m.ctx)
		return fridgeMsg{items: items, err: err}
	}
}

func (m model) deleteItem(wordID int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.processor.DeleteItem(m.ctx, wordID); err != nil {
			return fridgeMsg{err: err}
		}
		items, err := m.processor.ListFridge(m.ctx)
		return fridgeMsg{items: items, err: err}
	}
}

func (m model) loadQuiz(wordID int64) tea.Cmd {
	return func() tea.Msg {
		quiz, err := m.processor.GetQuiz(m.ctx, wordID)
		return quizMsg{quiz: quiz, err: err}
	}
}

func (m model) review(wordID int64) tea.Cmd {
	return func() tea.Msg {
		ack, err := m.processor.ReviewItem(m.ctx, wordID)
		return reviewMsg{ack: ack, err: err}
	}
}

func (m model) loadStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.processor.GetStats(m.ctx)
		return statsMsg{stats: stats, err: err}
	}
}

func (m model) View() string {
	switch m.view {
	case viewMenu:
		return m.renderMenu()
	case viewInput:
		return m.renderInput()
	case viewLoading:
		return m.renderLoading()
	case viewFridge:
		return m.renderFridge()
	case viewQuiz:
		return m.renderQuiz()
	case viewStats:
		return m.renderStats()
	case viewResults:
		return m.renderResults()
	}
	return m.renderMenu()
}

func (m model) header() string {
	return titleStyle.Render(fmt.Sprintf("FridgeLingo  %s → %s", m.nativeLang, m.targetLang))
}

func (m model) renderMenu() string {
	var s strings.Builder

	s.WriteString(m.header())
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if m.cursor == i {
			s.WriteString(selectedStyle.Render("> " + item))
		} else {
			s.WriteString(normalStyle.Render("  " + item))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n\n")
	s.WriteString(hintStyle.Render("Use ↑/↓ arrows or j/k to navigate, Enter to select, q to quit"))

	return menuStyle.Render(s.String())
}

func (m model) renderLoading() string {
	var s strings.Builder

	s.WriteString(m.header())
	s.WriteString("\n\n")
	s.WriteString(m.spinner.View())
	if m.inputMode == inputModeImport {
		s.WriteString(" Stocking the fridge from your list...")
	} else {
		s.WriteString(" Looking at your photo...")
	}
	s.WriteString("\n\n")
	s.WriteString("New items are translated with AI, this may take a moment.")

	return menuStyle.Render(s.String())
}

func (m model) renderInput() string {
	var s strings.Builder

	s.WriteString(m.header())
	s.WriteString("\n\n")

	s.WriteString(m.input.View())
	s.WriteString("\n\n")
	s.WriteString(hintStyle.Render("Press Enter to submit, Esc to cancel"))

	return menuStyle.Render(s.String())
}

func (m model) renderFridge() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("My Fridge"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	case m.notice != "":
		s.WriteString(successStyle.Render(m.notice))
		s.WriteString("\n\n")
	}

	if len(m.items) == 0 {
		s.WriteString("The fridge is empty. Snap a photo to stock it.\n")
	}
	for i, it := range m.items {
		fresh := freshnessStyles[it.Freshness].Render(fmt.Sprintf("%-7s", it.Freshness))
		line := fmt.Sprintf("%s %s %s  %s → %s  Lv.%d  %dd",
			fresh, it.Emoji, it.LabelEn, it.NativeDefinition, it.TranslatedWord, it.ProficiencyLevel, it.DaysSinceReview)
		if it.DueForReview {
			line += "  (due)"
		}
		if i == m.itemCursor {
			s.WriteString(selectedStyle.Render("> ") + line)
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(hintStyle.Render("r review · t survival quiz · d throw away · q back"))

	return menuStyle.Render(s.String())
}

func (m model) renderQuiz() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Survival Quiz"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("What is %q?\n\n", m.quiz.Question))

	for i, o := range m.quiz.Options {
		line := fmt.Sprintf("%d. %s", i+1, o.Text)
		switch {
		case m.answered != 0 && o.ID == m.quiz.CorrectID:
			line = successStyle.Render(line)
		case m.answered != 0 && o.ID == m.answered:
			line = errorStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	switch {
	case m.answered == 0:
		s.WriteString(hintStyle.Render("Press 1-4 to answer, q to give up"))
	case m.answered == m.quiz.CorrectID:
		s.WriteString(successStyle.Render("Correct! It survives another day."))
		if m.notice != "" {
			s.WriteString("\n" + m.notice)
		}
		s.WriteString("\n\n" + hintStyle.Render("Press Enter to return to the fridge"))
	default:
		s.WriteString(errorStyle.Render("Wrong answer."))
		s.WriteString("\n\n" + hintStyle.Render("Press Enter to return to the fridge"))
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return menuStyle.Render(s.String())
}

func (m model) renderStats() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Kitchen Stats"))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else if st := m.stats; st != nil {
		s.WriteString(successStyle.Render(st.CurrentTitle))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("XP: %d / %d (%.0f%% to %s)\n", st.TotalXP, st.NextLevelXP, st.ProgressPercentage*100, st.NextTitle))
		s.WriteString(fmt.Sprintf("Items: %d\n", st.TotalItems))
		s.WriteString(freshnessStyles[domain.FreshnessFresh].Render(fmt.Sprintf("Fresh: %d", st.FreshCount)) + "  ")
		s.WriteString(freshnessStyles[domain.FreshnessWarning].Render(fmt.Sprintf("Warning: %d", st.WarningCount)) + "  ")
		s.WriteString(freshnessStyles[domain.FreshnessRotten].Render(fmt.Sprintf("Rotten: %d", st.RottenCount)))
		s.WriteString("\n")
	}

	s.WriteString("\n\nPress Enter to return to menu")

	return menuStyle.Render(s.String())
}

func (m model) renderResults() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Results"))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		if r := m.imported; r != nil {
			s.WriteString(successStyle.Render("Grocery list imported!"))
			s.WriteString("\n\n")
			s.WriteString(fmt.Sprintf("New items: %d\n", r.New))
			s.WriteString(fmt.Sprintf("Already in fridge: %d\n", r.Existing))
			s.WriteString(fmt.Sprintf("Skipped: %d\n", r.Skipped))
			if r.Failed > 0 {
				s.WriteString(errorStyle.Render(fmt.Sprintf("Failed: %d", r.Failed)))
				s.WriteString("\n")
			}
			s.WriteString("\n")
		}

		if len(m.questions) == 0 && m.imported == nil {
			s.WriteString("No food found in that photo.\n")
		}
		for _, q := range m.questions {
			s.WriteString(fmt.Sprintf("%s %s\n", q.Emoji, selectedStyle.Render(q.FrontWord)))
			s.WriteString(fmt.Sprintf("   %s [%s]: %s\n", q.LabelEn, q.TargetLangCode, q.BackWord))
			s.WriteString(fmt.Sprintf("   %s\n", q.BackSentence))
		}
	}

	s.WriteString("\n\nPress Enter to return to menu")

	return menuStyle.Render(s.String())
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cliLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := app.NewLoggerTo(logFile, cfg.Log)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(ctx, a.Processor, cfg.Fridge))
	_, err = p.Run()
	return err
}

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
