package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ItamarRom/MyMarket/models"
)

// updateRegisterScreen обрабатывает ввод данных для регистрации.
func (m *model) updateRegisterScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	registerAction := func() (tea.Model, tea.Cmd) {
		req := models.RegisterRequest{
			Username:        strings.TrimSpace(m.registerInputs[registerFieldUsername].Value()),
			Email:           strings.TrimSpace(m.registerInputs[registerFieldEmail].Value()),
			Password:        m.registerInputs[registerFieldPassword].Value(),
			PasswordConfirm: m.registerInputs[registerFieldPasswordConfirm].Value(),
		}
		m.err = nil
		m.loading = true
		return m, makeRegisterCmd(m.apiClient, req)
	}

	return m.handleFormInput(msg, m.registerInputs, registerAction, loginRegisterChoiceScreen)
}

// viewRegisterScreen отображает экран регистрации.
func (m *model) viewRegisterScreen() string {
	return m.viewForm(
		"Регистрация",
		"Enter - далее/зарегистрироваться, Tab - следующее поле, Esc - назад",
		m.registerInputs,
		"",
	)
}

// handleRegisterSuccess переводит на экран входа с заполненным email.
func (m *model) handleRegisterSuccess(msg registerSuccessMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	email := m.registerInputs[registerFieldEmail].Value()
	if msg.user != nil {
		email = msg.user.Email
	}
	resetInputs(m.registerInputs)
	blurInputs(m.registerInputs)

	m.state = loginScreen
	m.loginInputs[loginFieldEmail].SetValue(email)
	m.loginInputs[loginFieldPassword].Reset()
	m.focusedField = loginFieldPassword
	_, statusCmd := m.setStatusMessage("Регистрация прошла успешно, войдите в учетную запись")
	return m, tea.Batch(focusInput(m.loginInputs, loginFieldPassword), statusCmd)
}
