package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/ItamarRom/MyMarket/client/internal/api"
	"github.com/ItamarRom/MyMarket/models"
)

// Состояния (экраны) приложения.
type screenState int

const (
	loginRegisterChoiceScreen screenState = iota // Экран выбора "Войти или Зарегистрироваться?"
	loginScreen                                  // Экран ввода данных для входа
	registerScreen                               // Экран ввода данных для регистрации
	marketScreen                                 // Экран списка товаров
	itemAddScreen                                // Экран добавления товара
	itemDetailScreen                             // Экран товара с комментариями
)

func (s screenState) String() string {
	switch s {
	case loginRegisterChoiceScreen:
		return "loginRegisterChoiceScreen"
	case loginScreen:
		return "loginScreen"
	case registerScreen:
		return "registerScreen"
	case marketScreen:
		return "marketScreen"
	case itemAddScreen:
		return "itemAddScreen"
	case itemDetailScreen:
		return "itemDetailScreen"
	default:
		return fmt.Sprintf("screenState(%d)", int(s))
	}
}

// Поля форм.
const (
	loginFieldEmail = iota
	loginFieldPassword
	numLoginFields
)

const (
	registerFieldUsername = iota
	registerFieldEmail
	registerFieldPassword
	registerFieldPasswordConfirm
	numRegisterFields
)

const (
	itemFieldName = iota
	itemFieldPrice
	numItemFields
)

// Константы для TUI.
const (
	defaultListWidth  = 80 // Стандартная ширина терминала для списка
	defaultListHeight = 24 // Стандартная высота терминала для списка
	inputOffset       = 4  // Отступ для полей ввода

	keyEnter    = "enter"
	keyQuit     = "q"
	keyBack     = "b"
	keyEsc      = "esc"
	keyAdd      = "a"
	keyDelete   = "d"
	keyComment  = "c"
	keyRefresh  = "r"
	keySearch   = "s"
	keyLogout   = "L"
	keyRemember = "ctrl+r"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyUp       = "up"
	keyDown     = "down"
)

// Стили.
//
//nolint:gochecknoglobals // Стили lipgloss неизменяемы
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	priceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// itemEntry представляет товар в списке. Реализует интерфейс list.Item.
type itemEntry struct {
	item *models.Item
}

func (i itemEntry) Title() string { return i.item.Name }

func (i itemEntry) Description() string {
	return fmt.Sprintf("%s | продавец: %s", formatPrice(i.item.Price), i.item.OwnerUsername)
}

func (i itemEntry) FilterValue() string { return i.item.Name + " " + i.item.OwnerUsername }

func formatPrice(price int64) string {
	return fmt.Sprintf("$%d", price)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// model представляет состояние TUI приложения.
type model struct {
	state      screenState
	apiClient  api.Client  // Клиент для взаимодействия с API
	tokens     *TokenStore // Кэш токена между запусками
	serverURL  string
	debugMode  bool
	user       *models.User // Текущий пользователь, nil до входа
	status     string       // Статусное сообщение внизу экрана
	err        error        // Последняя ошибка для отображения на текущем экране
	docStyle   lipgloss.Style
	loading    bool // Идет запрос к серверу
	rememberMe bool // Флаг "Запомнить меня" на экране входа

	focusedField   int               // Индекс активного поля формы
	loginInputs    []textinput.Model // Email, пароль
	registerInputs []textinput.Model // Имя, email, пароль, подтверждение
	itemInputs     []textinput.Model // Название, цена

	marketList    list.Model
	searchInput   textinput.Model
	searching     bool   // Активно поле поиска
	searchQuery   string // Последний отправленный на сервер запрос
	selectedItem  *models.Item
	comments      []*models.Comment
	commentInput  textinput.Model
	commenting    bool // Активно поле комментария
	confirmDelete bool // Ожидается подтверждение удаления
}

func newInput(placeholder string, limit int, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = defaultListWidth - inputOffset
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

// initModel создает начальную модель.
func initModel(client api.Client, tokens *TokenStore, serverURL string, debugMode bool) model {
	marketList := list.New(nil, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	marketList.Title = "Маркет"
	marketList.SetShowHelp(false)

	m := model{
		state:     loginRegisterChoiceScreen,
		apiClient: client,
		tokens:    tokens,
		serverURL: serverURL,
		debugMode: debugMode,
		docStyle:  lipgloss.NewStyle().Margin(docStyleMarginVertical, docStyleMarginHorizontal),
		loginInputs: []textinput.Model{
			newInput("Email", 120, false),
			newInput("Пароль", 128, true),
		},
		registerInputs: []textinput.Model{
			newInput("Имя пользователя", 64, false),
			newInput("Email", 120, false),
			newInput("Пароль", 128, true),
			newInput("Повторите пароль", 128, true),
		},
		itemInputs: []textinput.Model{
			newInput("Название", 64, false),
			newInput("Цена", 18, false),
		},
		marketList:   marketList,
		searchInput:  newInput("Поиск по названию", 64, false),
		commentInput: newInput("Комментарий", 500, false),
	}
	return m
}

// Сообщения.
type (
	errMsg struct {
		err error
	}
	clearStatusMsg     struct{}
	sessionRestoredMsg struct {
		user *models.User
	}
	sessionExpiredMsg struct{}
	loginSuccessMsg   struct {
		token string
		user  *models.User
	}
	registerSuccessMsg struct {
		user *models.User
	}
	loggedOutMsg   struct{}
	itemsLoadedMsg struct {
		query string
		items []*models.Item
	}
	itemCreatedMsg struct {
		item *models.Item
	}
	itemDeletedMsg struct {
		id int64
	}
	commentsLoadedMsg struct {
		itemID   int64
		comments []*models.Comment
	}
	commentAddedMsg struct {
		comment *models.Comment
	}
)
