package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ItamarRom/MyMarket/client/internal/api"
)

const (
	statusMessageTimeout     = 3 * time.Second         // Время отображения статусных сообщений
	DefaultServerURL         = "http://localhost:8080" // URL сервера по умолчанию
	helpStatusHeightOffset   = 3                       // Высота строки помощи и статуса
	docStyleMarginVertical   = 1
	docStyleMarginHorizontal = 2
)

// helpText содержит подсказки по клавишам для каждого экрана.
//
//nolint:gochecknoglobals // Неизменяемая таблица подсказок
var helpText = map[screenState]string{
	loginRegisterChoiceScreen: "l: вход | r: регистрация | q: выход",
	loginScreen:               "Tab: след. поле | Enter: далее/войти | Ctrl+R: запомнить | Esc: назад",
	registerScreen:            "Tab: след. поле | Enter: далее/зарегистрироваться | Esc: назад",
	marketScreen:              "↑/↓: выбор | Enter: открыть | /: фильтр | s: поиск | a: добавить | r: обновить | L: выйти | q: выход",
	itemAddScreen:             "Tab: след. поле | Enter: далее/сохранить | Esc: отмена",
	itemDetailScreen:          "c: комментарий | d: удалить | r: обновить | Esc/b: назад",
}

// Init - команда, выполняемая при запуске приложения.
func (m *model) Init() tea.Cmd {
	if m.apiClient != nil && m.apiClient.AuthToken() != "" {
		m.loading = true
		return restoreSessionCmd(m.apiClient)
	}
	return textinput.Blink
}

// setStatusMessage устанавливает статусное сообщение и запускает таймер для его очистки.
func (m *model) setStatusMessage(status string) (tea.Model, tea.Cmd) {
	m.status = status
	return m, clearStatusCmd(statusMessageTimeout)
}

// getMainContentView возвращает основное содержимое для текущего состояния.
func (m *model) getMainContentView() string {
	switch m.state {
	case loginRegisterChoiceScreen:
		if m.loading {
			return "Проверка сохраненной сессии..."
		}
		return m.viewLoginRegisterChoiceScreen()
	case loginScreen:
		return m.viewLoginScreen()
	case registerScreen:
		return m.viewRegisterScreen()
	case marketScreen:
		return m.viewMarketScreen()
	case itemAddScreen:
		return m.viewItemAddScreen()
	case itemDetailScreen:
		return m.viewItemDetailScreen()
	default:
		return "Неизвестное состояние!"
	}
}

// getDebugInfoString формирует отладочную информацию.
func (m *model) getDebugInfoString() string {
	var debugInfo strings.Builder
	debugInfo.WriteString(fmt.Sprintf(" [State: %s]\n", m.state.String()))
	debugInfo.WriteString(fmt.Sprintf(" [URL: %s]\n", m.serverURL))
	debugInfo.WriteString(fmt.Sprintf(" [Token set: %t]\n", m.apiClient != nil && m.apiClient.AuthToken() != ""))
	if m.tokens != nil {
		debugInfo.WriteString(fmt.Sprintf(" [Token file: %s]\n", m.tokens.Path()))
	}
	debugInfo.WriteString(fmt.Sprintf(" [Items: %d, query: %q]\n", len(m.marketList.Items()), m.searchQuery))
	return debugInfo.String()
}

// View отрисовывает пользовательский интерфейс.
func (m *model) View() string {
	help := helpText[m.state]

	var footer strings.Builder
	if m.status != "" {
		footer.WriteString("\n")
		footer.WriteString(m.status)
	}
	if m.debugMode {
		footer.WriteString("\n\n---\nОтладка:\n")
		footer.WriteString(m.getDebugInfoString())
	}

	styledContent := m.docStyle.Render(m.getMainContentView())
	return fmt.Sprintf("%s\n%s%s", styledContent, subtleStyle.Render(help), footer.String())
}

// Start запускает TUI приложение.
func Start(serverURL string, debugMode bool) error {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	apiClient := api.NewHTTPClient(serverURL)
	slog.Info("API клиент инициализирован", "baseURL", serverURL)

	var tokens *TokenStore
	dir, err := DefaultTokenDir()
	if err != nil {
		slog.Warn("Кэш токена недоступен", "error", err)
	} else {
		tokens = NewTokenStore(dir)
		token, loadErr := tokens.Load()
		if loadErr != nil {
			slog.Warn("Ошибка чтения кэша токена", "path", tokens.Path(), "error", loadErr)
		} else if token != "" {
			apiClient.SetAuthToken(token)
			slog.Info("Найден сохраненный токен", "path", tokens.Path())
		}
	}

	m := initModel(apiClient, tokens, serverURL, debugMode)

	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err = p.Run(); err != nil {
		slog.Error("Ошибка при запуске TUI", "error", err)
		return fmt.Errorf("ошибка TUI: %w", err)
	}
	return nil
}
