package tui

import (
	"log/slog"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ItamarRom/MyMarket/models"
)

// updateItemAddScreen обрабатывает ввод нового товара.
func (m *model) updateItemAddScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	createAction := func() (tea.Model, tea.Cmd) {
		// Нечисловая цена отправляется как 0, сервер вернет сообщение для поля price.
		price, err := strconv.ParseInt(strings.TrimSpace(m.itemInputs[itemFieldPrice].Value()), 10, 64)
		if err != nil {
			price = 0
		}
		req := models.CreateItemRequest{
			Name:  strings.TrimSpace(m.itemInputs[itemFieldName].Value()),
			Price: price,
		}
		m.err = nil
		m.loading = true
		return m, createItemCmd(m.apiClient, req)
	}

	return m.handleFormInput(msg, m.itemInputs, createAction, marketScreen)
}

// viewItemAddScreen отображает форму нового товара.
func (m *model) viewItemAddScreen() string {
	return m.viewForm(
		"Новый товар",
		"Enter - далее/сохранить, Tab - следующее поле, Esc - отмена",
		m.itemInputs,
		"",
	)
}

// handleItemCreated возвращает к списку и перезагружает его.
func (m *model) handleItemCreated(msg itemCreatedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	blurInputs(m.itemInputs)
	m.state = marketScreen
	slog.Info("Товар создан", "id", msg.item.ID, "name", msg.item.Name)
	_, statusCmd := m.setStatusMessage("Товар \"" + msg.item.Name + "\" выставлен на продажу")
	return m, tea.Batch(loadItemsCmd(m.apiClient, m.searchQuery), statusCmd, tea.ClearScreen)
}
