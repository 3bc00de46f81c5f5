package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// updateMarketScreen обрабатывает сообщения для экрана списка товаров.
func (m *model) updateMarketScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.updateSearchInput(msg)
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	// Во время фильтрации списка все клавиши принадлежат фильтру.
	if isKey && m.marketList.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case keyQuit:
			return m, tea.Quit
		case keyEnter:
			return m.openSelectedItem()
		case keyAdd:
			m.state = itemAddScreen
			m.focusedField = 0
			m.err = nil
			slog.Info("Переход к добавлению товара")
			return m, tea.Batch(resetInputs(m.itemInputs), tea.ClearScreen)
		case keyRefresh:
			m.loading = true
			return m, loadItemsCmd(m.apiClient, m.searchQuery)
		case keySearch:
			m.searching = true
			m.searchInput.SetValue(m.searchQuery)
			m.searchInput.CursorEnd()
			return m, m.searchInput.Focus()
		case keyLogout:
			m.loading = true
			return m, makeLogoutCmd(m.apiClient)
		}
	}

	var cmd tea.Cmd
	m.marketList, cmd = m.marketList.Update(msg)
	return m, cmd
}

// updateSearchInput обрабатывает ввод поискового запроса.
func (m *model) updateSearchInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			m.searching = false
			m.searchInput.Blur()
			return m, nil
		case keyEnter:
			m.searching = false
			m.searchInput.Blur()
			m.loading = true
			return m, loadItemsCmd(m.apiClient, strings.TrimSpace(m.searchInput.Value()))
		}
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// openSelectedItem открывает экран выбранного товара и запрашивает комментарии.
func (m *model) openSelectedItem() (tea.Model, tea.Cmd) {
	entry, ok := m.marketList.SelectedItem().(itemEntry)
	if !ok {
		return m, nil
	}
	m.selectedItem = entry.item
	m.comments = nil
	m.confirmDelete = false
	m.commenting = false
	m.err = nil
	m.state = itemDetailScreen
	slog.Info("Переход к товару", "id", entry.item.ID, "name", entry.item.Name)
	return m, tea.Batch(loadCommentsCmd(m.apiClient, entry.item.ID), tea.ClearScreen)
}

// handleItemsLoaded заполняет список товаров.
func (m *model) handleItemsLoaded(msg itemsLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.searchQuery = msg.query

	items := make([]list.Item, len(msg.items))
	for i, item := range msg.items {
		items[i] = itemEntry{item: item}
	}
	cmd := m.marketList.SetItems(items)

	if msg.query != "" {
		m.marketList.Title = fmt.Sprintf("Результаты поиска %q (%d)", msg.query, len(items))
	} else {
		m.marketList.Title = fmt.Sprintf("Маркет (%d)", len(items))
	}
	slog.Debug("Список товаров обновлен", "count", len(items), "query", msg.query)
	return m, cmd
}

// viewMarketScreen отображает список товаров.
func (m *model) viewMarketScreen() string {
	var b strings.Builder
	if m.user != nil {
		b.WriteString(subtleStyle.Render("Вы вошли как "+m.user.Username) + "\n")
	}
	if m.searching {
		b.WriteString(m.searchInput.View() + "\n")
	}
	b.WriteString(m.marketList.View())
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	return b.String()
}
