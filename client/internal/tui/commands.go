package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ItamarRom/MyMarket/client/internal/api"
	"github.com/ItamarRom/MyMarket/models"
)

const requestTimeout = 10 * time.Second

// clearStatusCmd возвращает команду, которая отправит clearStatusMsg через delay.
func clearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// apiErrMsg превращает ошибку авторизации в sessionExpiredMsg, остальные в errMsg.
func apiErrMsg(err error) tea.Msg {
	if errors.Is(err, api.ErrAuthorization) || errors.Is(err, api.ErrNoToken) {
		return sessionExpiredMsg{}
	}
	return errMsg{err: err}
}

// restoreSessionCmd проверяет установленный в клиенте токен запросом /api/me.
func restoreSessionCmd(client api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		user, err := client.Me(ctx)
		if err != nil {
			slog.Info("Сохраненный токен не принят сервером", "error", err)
			return sessionExpiredMsg{}
		}
		return sessionRestoredMsg{user: user}
	}
}

// makeLoginCmd выполняет вход через API и загружает профиль.
func makeLoginCmd(client api.Client, req models.LoginRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.Login(ctx, req)
		if err != nil {
			return errMsg{err: err}
		}
		user, err := client.Me(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return loginSuccessMsg{token: resp.Token, user: user}
	}
}

// makeRegisterCmd выполняет регистрацию через API.
func makeRegisterCmd(client api.Client, req models.RegisterRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		user, err := client.Register(ctx, req)
		if err != nil {
			return errMsg{err: err}
		}
		return registerSuccessMsg{user: user}
	}
}

// makeLogoutCmd завершает сессию на сервере.
func makeLogoutCmd(client api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := client.Logout(ctx); err != nil {
			slog.Warn("Ошибка выхода на сервере", "error", err)
		}
		return loggedOutMsg{}
	}
}

// loadItemsCmd загружает товары, при непустом query выполняет поиск.
func loadItemsCmd(client api.Client, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		items, err := client.ListItems(ctx, query)
		if err != nil {
			return apiErrMsg(err)
		}
		return itemsLoadedMsg{query: query, items: items}
	}
}

// createItemCmd выставляет товар.
func createItemCmd(client api.Client, req models.CreateItemRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		item, err := client.CreateItem(ctx, req)
		if err != nil {
			return apiErrMsg(err)
		}
		return itemCreatedMsg{item: item}
	}
}

// deleteItemCmd удаляет товар.
func deleteItemCmd(client api.Client, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := client.DeleteItem(ctx, id); err != nil {
			return apiErrMsg(err)
		}
		return itemDeletedMsg{id: id}
	}
}

// loadCommentsCmd загружает комментарии к товару.
func loadCommentsCmd(client api.Client, itemID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		comments, err := client.ListComments(ctx, itemID)
		if err != nil {
			return apiErrMsg(err)
		}
		return commentsLoadedMsg{itemID: itemID, comments: comments}
	}
}

// addCommentCmd добавляет комментарий к товару.
func addCommentCmd(client api.Client, itemID int64, body string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		comment, err := client.AddComment(ctx, itemID, body)
		if err != nil {
			return apiErrMsg(err)
		}
		return commentAddedMsg{comment: comment}
	}
}
