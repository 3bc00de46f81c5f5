package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ItamarRom/MyMarket/models"
)

// updateLoginScreen обрабатывает ввод данных для входа.
func (m *model) updateLoginScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == keyRemember {
		m.rememberMe = !m.rememberMe
		return m, nil
	}

	loginAction := func() (tea.Model, tea.Cmd) {
		req := models.LoginRequest{
			Email:      strings.TrimSpace(m.loginInputs[loginFieldEmail].Value()),
			Password:   m.loginInputs[loginFieldPassword].Value(),
			RememberMe: m.rememberMe,
		}
		m.err = nil
		m.loading = true
		return m, makeLoginCmd(m.apiClient, req)
	}

	return m.handleFormInput(msg, m.loginInputs, loginAction, loginRegisterChoiceScreen)
}

// viewLoginScreen отображает экран ввода данных для входа.
func (m *model) viewLoginScreen() string {
	remember := "[ ] Запомнить меня"
	if m.rememberMe {
		remember = "[x] Запомнить меня"
	}
	return m.viewForm(
		"Вход в учетную запись",
		"Enter - далее/войти, Ctrl+R - запомнить меня, Esc - назад",
		m.loginInputs,
		remember,
	)
}
