package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chatCmd starts an interactive help-desk session
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive help-desk session",
	Long: `Start an interactive terminal session against the deskd server.

Each line you enter is routed and answered like a single query command.
Type "exit" or "quit" (or press esc) to end the session.

Examples:
  # Chat against the default server
  deskctl chat

  # Chat against a remote server
  deskctl chat --server http://deskd.internal:9090`,
	RunE: runChat,
}

// runChat handles the chat command
func runChat(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(newChatModel(serverURL))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}

// Lipgloss styles (shared palette with the deskd dashboards)
var (
	// Header style - bright cyan background, bold black text
	chatHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Question label style - dim cyan
	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true)

	// Answer style - bright white
	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231"))

	// Routing attribution style - for secondary info
	routeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Error style
	chatErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Footer styles - bright keys on dim text
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)
)

// exchange is one question/answer pair in the chat transcript. An exchange
// with neither answer nor err is still in flight.
type exchange struct {
	question    string
	answer      string
	departments []string
	fallback    bool
	err         error
}

// chatModel is the Bubble Tea model for the interactive session
type chatModel struct {
	serverURL string
	input     textinput.Model
	spinner   spinner.Model
	history   []exchange
	waiting   bool
	quitting  bool
	width     int
}

// Message types
type answerMsg QueryResponse
type chatErrMsg error

// newChatModel creates the chat model with a focused input field
func newChatModel(serverURL string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask the help desk..."
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))

	return chatModel{
		serverURL: serverURL,
		input:     ti,
		spinner:   sp,
	}
}

// ask creates a command that sends one question to the query endpoint
func ask(serverURL, question string) tea.Cmd {
	return func() tea.Msg {
		var queryResp QueryResponse
		if err := postQuestion(serverURL, "/api/v1/query", question, 120*time.Second, &queryResp); err != nil {
			return chatErrMsg(err)
		}
		return answerMsg(queryResp)
	}
}

// Init starts the cursor blink
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.waiting {
				return m, nil
			}
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			if question == "exit" || question == "quit" {
				m.quitting = true
				return m, tea.Quit
			}
			m.history = append(m.history, exchange{question: question})
			m.input.Reset()
			m.input.Blur()
			m.waiting = true
			return m, tea.Batch(m.spinner.Tick, ask(m.serverURL, question))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		return m, nil

	case answerMsg:
		last := &m.history[len(m.history)-1]
		last.answer = msg.Answer
		last.departments = msg.Departments
		last.fallback = msg.Fallback
		m.waiting = false
		m.input.Focus()
		return m, textinput.Blink

	case chatErrMsg:
		m.history[len(m.history)-1].err = error(msg)
		m.waiting = false
		m.input.Focus()
		return m, textinput.Blink

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript and input field
func (m chatModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(chatHeaderStyle.Render(" deskd Help Desk ") + "\n\n")

	for _, ex := range m.history {
		b.WriteString(questionStyle.Render("You: ") + ex.question + "\n")
		switch {
		case ex.err != nil:
			b.WriteString(chatErrorStyle.Render("error: ") + ex.err.Error() + "\n\n")
		case ex.answer == "":
			b.WriteString(m.spinner.View() + routeStyle.Render(" consulting departments...") + "\n\n")
		default:
			b.WriteString(answerStyle.Render(ex.answer) + "\n")
			b.WriteString(routeStyle.Render(routingLine(ex.departments, ex.fallback)) + "\n\n")
		}
	}

	b.WriteString(m.input.View() + "\n\n")

	footer := footerKeyStyle.Render("[enter]") + footerStyle.Render(" send  ") +
		footerKeyStyle.Render("[esc]") + footerStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}
