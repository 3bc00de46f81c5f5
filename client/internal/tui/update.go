package tui

import (
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ItamarRom/MyMarket/client/internal/api"
)

// Update обрабатывает входящие сообщения.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	// == Глобальные сообщения (не зависят от экрана) ==
	case tea.WindowSizeMsg:
		h, v := m.docStyle.GetFrameSize()
		listWidth := msg.Width - h
		listHeight := msg.Height - v - helpStatusHeightOffset
		m.marketList.SetSize(listWidth, listHeight)
		m.setInputWidth(listWidth - inputOffset)
		return m, nil

	case clearStatusMsg:
		m.status = ""
		return m, nil

	case errMsg:
		return m.handleErrorMsg(msg)

	case sessionRestoredMsg:
		m.user = msg.user
		m.state = marketScreen
		m.loading = true
		slog.Info("Сессия восстановлена", "username", msg.user.Username)
		return m, loadItemsCmd(m.apiClient, "")

	case sessionExpiredMsg:
		return m.handleSessionExpired()

	case loginSuccessMsg:
		return m.handleLoginSuccess(msg)

	case registerSuccessMsg:
		return m.handleRegisterSuccess(msg)

	case loggedOutMsg:
		return m.handleLoggedOut()

	case itemsLoadedMsg:
		return m.handleItemsLoaded(msg)

	case itemCreatedMsg:
		return m.handleItemCreated(msg)

	case itemDeletedMsg:
		return m.handleItemDeleted(msg)

	case commentsLoadedMsg:
		return m.handleCommentsLoaded(msg)

	case commentAddedMsg:
		return m.handleCommentAdded(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	// == Обновление компонентов в зависимости от состояния ==
	switch m.state {
	case loginRegisterChoiceScreen:
		return m.updateLoginRegisterChoiceScreen(msg)
	case loginScreen:
		return m.updateLoginScreen(msg)
	case registerScreen:
		return m.updateRegisterScreen(msg)
	case marketScreen:
		return m.updateMarketScreen(msg)
	case itemAddScreen:
		return m.updateItemAddScreen(msg)
	case itemDetailScreen:
		return m.updateItemDetailScreen(msg)
	default:
		return m, nil
	}
}

// setInputWidth задает ширину всех полей ввода.
func (m *model) setInputWidth(width int) {
	for _, inputs := range [][]textinput.Model{m.loginInputs, m.registerInputs, m.itemInputs} {
		for i := range inputs {
			inputs[i].Width = width
		}
	}
	m.searchInput.Width = width
	m.commentInput.Width = width
}

// handleErrorMsg показывает ошибку на текущем экране.
func (m *model) handleErrorMsg(msg errMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	switch {
	case errors.Is(msg.err, api.ErrForbidden):
		m.err = errors.New("удалить можно только свой товар")
	case errors.Is(msg.err, api.ErrNotFound):
		m.err = errors.New("товар не найден, возможно он уже удален")
	default:
		m.err = msg.err
	}
	slog.Error("Ошибка", "state", m.state.String(), "error", msg.err)
	return m, nil
}

// handleLoginSuccess сохраняет токен и открывает маркет.
func (m *model) handleLoginSuccess(msg loginSuccessMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	m.user = msg.user
	if m.rememberMe && m.tokens != nil {
		if err := m.tokens.Save(msg.token); err != nil {
			slog.Error("Не удалось сохранить токен", "path", m.tokens.Path(), "error", err)
		}
	}
	resetInputs(m.loginInputs)
	blurInputs(m.loginInputs)
	m.state = marketScreen
	m.loading = true
	slog.Info("Вход выполнен", "username", msg.user.Username, "remember", m.rememberMe)
	_, statusCmd := m.setStatusMessage("Добро пожаловать, " + msg.user.Username + "!")
	return m, tea.Batch(loadItemsCmd(m.apiClient, ""), statusCmd, tea.ClearScreen)
}

// handleSessionExpired забывает токен и возвращает к экрану входа.
func (m *model) handleSessionExpired() (tea.Model, tea.Cmd) {
	wasLoggedIn := m.user != nil
	m.resetSession()
	m.state = loginScreen
	m.focusedField = 0
	if !wasLoggedIn {
		m.state = loginRegisterChoiceScreen
		return m, nil
	}
	_, statusCmd := m.setStatusMessage("Сессия истекла, войдите снова")
	return m, tea.Batch(focusInput(m.loginInputs, 0), statusCmd, tea.ClearScreen)
}

// handleLoggedOut возвращает к выбору входа/регистрации.
func (m *model) handleLoggedOut() (tea.Model, tea.Cmd) {
	m.resetSession()
	m.state = loginRegisterChoiceScreen
	slog.Info("Выход выполнен")
	_, statusCmd := m.setStatusMessage("Вы вышли из учетной записи")
	return m, tea.Batch(statusCmd, tea.ClearScreen)
}

// resetSession очищает все данные сессии.
func (m *model) resetSession() {
	m.loading = false
	m.err = nil
	m.user = nil
	m.selectedItem = nil
	m.comments = nil
	m.searchQuery = ""
	m.marketList.SetItems(nil)
	if m.apiClient != nil {
		m.apiClient.SetAuthToken("")
	}
	if m.tokens != nil {
		if err := m.tokens.Clear(); err != nil {
			slog.Error("Не удалось удалить токен", "path", m.tokens.Path(), "error", err)
		}
	}
}
