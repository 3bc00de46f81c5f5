package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// updateItemDetailScreen обрабатывает сообщения для экрана товара.
func (m *model) updateItemDetailScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.commenting {
		return m.updateCommentInput(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.selectedItem == nil {
		return m, nil
	}

	if m.confirmDelete {
		switch keyMsg.String() {
		case "y", "Y":
			m.confirmDelete = false
			m.loading = true
			return m, deleteItemCmd(m.apiClient, m.selectedItem.ID)
		default:
			m.confirmDelete = false
			return m, nil
		}
	}

	switch keyMsg.String() {
	case keyEsc, keyBack:
		m.state = marketScreen
		m.selectedItem = nil
		m.comments = nil
		m.err = nil
		return m, tea.ClearScreen
	case keyDelete:
		m.confirmDelete = true
	case keyComment:
		m.commenting = true
		m.commentInput.Reset()
		return m, m.commentInput.Focus()
	case keyRefresh:
		return m, loadCommentsCmd(m.apiClient, m.selectedItem.ID)
	}
	return m, nil
}

// updateCommentInput обрабатывает ввод комментария.
func (m *model) updateCommentInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			m.commenting = false
			m.commentInput.Blur()
			return m, nil
		case keyEnter:
			body := strings.TrimSpace(m.commentInput.Value())
			m.commenting = false
			m.commentInput.Blur()
			if body == "" {
				return m, nil
			}
			return m, addCommentCmd(m.apiClient, m.selectedItem.ID, body)
		}
	}
	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	return m, cmd
}

// handleItemDeleted убирает товар из списка и возвращает к нему.
func (m *model) handleItemDeleted(msg itemDeletedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	for i, li := range m.marketList.Items() {
		if entry, ok := li.(itemEntry); ok && entry.item.ID == msg.id {
			m.marketList.RemoveItem(i)
			break
		}
	}
	m.state = marketScreen
	m.selectedItem = nil
	m.comments = nil
	slog.Info("Товар удален", "id", msg.id)
	_, statusCmd := m.setStatusMessage("Товар удален")
	return m, tea.Batch(statusCmd, tea.ClearScreen)
}

// handleCommentsLoaded сохраняет комментарии, если пользователь все еще на этом товаре.
func (m *model) handleCommentsLoaded(msg commentsLoadedMsg) (tea.Model, tea.Cmd) {
	if m.selectedItem == nil || m.selectedItem.ID != msg.itemID {
		return m, nil
	}
	m.comments = msg.comments
	return m, nil
}

// handleCommentAdded добавляет комментарий в конец списка.
func (m *model) handleCommentAdded(msg commentAddedMsg) (tea.Model, tea.Cmd) {
	if m.selectedItem != nil && msg.comment.ItemID == m.selectedItem.ID {
		m.comments = append(m.comments, msg.comment)
	}
	return m.setStatusMessage("Комментарий добавлен")
}

// viewItemDetailScreen отображает товар и комментарии.
func (m *model) viewItemDetailScreen() string {
	item := m.selectedItem
	if item == nil {
		return "Товар не выбран."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(item.Name) + "\n\n")
	b.WriteString(fmt.Sprintf("Цена:      %s\n", priceStyle.Render(formatPrice(item.Price))))
	b.WriteString(fmt.Sprintf("Продавец:  %s\n", item.OwnerUsername))
	b.WriteString(fmt.Sprintf("Выставлен: %s\n", formatTime(item.CreatedAt)))
	if item.ImageKey != nil {
		b.WriteString(subtleStyle.Render("Есть фото (доступно в веб-версии)") + "\n")
	}

	b.WriteString("\n" + titleStyle.Render(fmt.Sprintf("Комментарии (%d)", len(m.comments))) + "\n")
	if len(m.comments) == 0 {
		b.WriteString(subtleStyle.Render("Комментариев пока нет") + "\n")
	}
	for _, c := range m.comments {
		b.WriteString(fmt.Sprintf("%s %s: %s\n",
			subtleStyle.Render(formatTime(c.CreatedAt)), focusedStyle.Render(c.AuthorUsername), c.Body))
	}

	if m.commenting {
		b.WriteString("\n" + m.commentInput.View() + "\n")
	}
	if m.confirmDelete {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Удалить товар %q? (y/n)", item.Name)) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	return b.String()
}
