package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatModel(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	assert.Equal(t, "http://localhost:9090", model.serverURL)
	assert.False(t, model.waiting)
	assert.False(t, model.quitting)
	assert.Empty(t, model.history)
}

func TestChatModel_Init(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	cmd := model.Init()

	// Init should return the cursor blink command
	assert.NotNil(t, cmd)
}

func TestChatModel_Update_CtrlC(t *testing.T) {
	model := newChatModel("http://localhost:9090")

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	m := updated.(chatModel)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd) // Should return tea.Quit
}

func TestChatModel_Update_TypedExit(t *testing.T) {
	for _, word := range []string{"exit", "quit"} {
		model := newChatModel("http://localhost:9090")
		model.input.SetValue(word)

		updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

		m := updated.(chatModel)
		assert.True(t, m.quitting)
		assert.NotNil(t, cmd)
		assert.Empty(t, m.history, "%q ends the session instead of being sent", word)
	}
}

func TestChatModel_Update_SubmitQuestion(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.input.SetValue("  How many leave days do I get?  ")

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m := updated.(chatModel)
	require.Len(t, m.history, 1)
	assert.Equal(t, "How many leave days do I get?", m.history[0].question)
	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())
	assert.NotNil(t, cmd) // Should return spinner tick + query command
}

func TestChatModel_Update_EmptyInputIgnored(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.input.SetValue("   ")

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m := updated.(chatModel)
	assert.Empty(t, m.history)
	assert.False(t, m.waiting)
	assert.Nil(t, cmd)
}

func TestChatModel_Update_EnterWhileWaiting(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.history = append(model.history, exchange{question: "first"})
	model.waiting = true
	model.input.SetValue("second")

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m := updated.(chatModel)
	assert.Len(t, m.history, 1, "no new question while one is in flight")
	assert.Nil(t, cmd)
	assert.Equal(t, "second", m.input.Value())
}

func TestChatModel_Update_AnswerMsg(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.history = append(model.history, exchange{question: "leave days?"})
	model.waiting = true

	msg := answerMsg(QueryResponse{
		Query:       "leave days?",
		Departments: []string{"hr"},
		Answer:      "Employees accrue two paid leave days per month.",
	})
	updated, _ := model.Update(msg)

	m := updated.(chatModel)
	require.Len(t, m.history, 1)
	assert.Equal(t, "Employees accrue two paid leave days per month.", m.history[0].answer)
	assert.Equal(t, []string{"hr"}, m.history[0].departments)
	assert.False(t, m.history[0].fallback)
	assert.False(t, m.waiting)
}

func TestChatModel_Update_ErrMsg(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.history = append(model.history, exchange{question: "leave days?"})
	model.waiting = true

	updated, _ := model.Update(chatErrMsg(errors.New("connection refused")))

	m := updated.(chatModel)
	require.Len(t, m.history, 1)
	require.Error(t, m.history[0].err)
	assert.Contains(t, m.history[0].err.Error(), "connection refused")
	assert.False(t, m.waiting)
}

func TestChatModel_View_Transcript(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.history = []exchange{
		{
			question:    "How do I claim travel expenses?",
			answer:      "Submit itemized receipts within 30 days.",
			departments: []string{"finance"},
		},
		{
			question:    "What is the dress code?",
			answer:      "Smart casual on all days except client visits.",
			departments: []string{"hr", "engineering", "sales", "finance", "support"},
			fallback:    true,
		},
	}

	view := model.View()

	assert.Contains(t, view, "deskd Help Desk")
	assert.Contains(t, view, "How do I claim travel expenses?")
	assert.Contains(t, view, "Submit itemized receipts within 30 days.")
	assert.Contains(t, view, "routed to: finance")
	assert.Contains(t, view, "routed to all departments (fallback)")
	assert.Contains(t, view, "[enter]")
	assert.Contains(t, view, "[esc]")
}

func TestChatModel_View_Waiting(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.history = append(model.history, exchange{question: "VPN is down"})
	model.waiting = true

	view := model.View()

	assert.Contains(t, view, "VPN is down")
	assert.Contains(t, view, "consulting departments")
}

func TestChatModel_View_Error(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.history = append(model.history, exchange{
		question: "VPN is down",
		err:      errors.New("server returned status 502"),
	})

	view := model.View()

	assert.Contains(t, view, "error:")
	assert.Contains(t, view, "server returned status 502")
}

func TestChatModel_View_Quitting(t *testing.T) {
	model := newChatModel("http://localhost:9090")
	model.quitting = true

	assert.Empty(t, model.View())
}
