package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// updateLoginRegisterChoiceScreen обрабатывает выбор между входом и регистрацией.
func (m *model) updateLoginRegisterChoiceScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "r", "R":
			m.state = registerScreen
			m.focusedField = 0
			m.err = nil
			return m, tea.Batch(focusInput(m.registerInputs, 0), tea.ClearScreen)
		case "l", "L":
			m.state = loginScreen
			m.focusedField = 0
			m.err = nil
			return m, tea.Batch(focusInput(m.loginInputs, 0), tea.ClearScreen)
		case keyQuit, keyEsc:
			return m, tea.Quit
		}
	}
	return m, nil
}

// viewLoginRegisterChoiceScreen отображает экран выбора входа или регистрации.
func (m *model) viewLoginRegisterChoiceScreen() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MyMarket") + "\n\n")
	b.WriteString("Сервер: " + m.serverURL + "\n\n")
	b.WriteString("Выберите действие:\n")
	b.WriteString("- Вход с существующими данными " + focusedStyle.Render("(L)") + "\n")
	b.WriteString("- Регистрация нового пользователя " + focusedStyle.Render("(R)") + "\n\n")
	b.WriteString(subtleStyle.Render("Нажмите q для выхода"))

	return b.String()
}
