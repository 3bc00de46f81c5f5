// Package web отрисовывает HTML-страницы маркетплейса из встроенных шаблонов.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Имена страниц.
const (
	PageIndex    = "index"
	PageLogin    = "login"
	PageRegister = "register"
	PageMarket   = "market"
	PageItem     = "item"
	PageUser     = "user"
	PageError    = "error"
)

// Общие шаблоны, которые подключаются к каждой странице.
var sharedTemplates = []string{"templates/base.html", "templates/items.html"}

// Page - данные для отрисовки страницы.
type Page struct {
	Title       string
	CurrentUser *models.User
	Flashes     []string
	Form        map[string]string   // Введенные значения полей формы
	Errors      map[string][]string // Ошибки по полям формы
	Next        string
	Data        any
}

// MarketData - данные страницы маркетплейса.
type MarketData struct {
	Query string
	Items []*models.Item
}

// ItemData - данные страницы товара.
type ItemData struct {
	Item     *models.Item
	Comments []*models.Comment
	CanEdit  bool
}

// Renderer хранит разобранные шаблоны страниц.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer разбирает все встроенные шаблоны.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"price": formatPrice,
		"when":  formatTime,
	}
	pages := []string{PageIndex, PageLogin, PageRegister, PageMarket, PageItem, PageUser, PageError}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		files := append([]string{"templates/" + name + ".html"}, sharedTemplates...)
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора шаблона %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render отрисовывает страницу с указанным статусом.
// Страница собирается в буфер, поэтому ошибка шаблона превращается в 500, а не в обрезанный ответ.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		log.Error().Str("component", "Renderer").Str("page", name).Msg("Неизвестная страница")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", page); err != nil {
		log.Error().Err(err).Str("component", "Renderer").Str("page", name).Msg("Ошибка отрисовки страницы")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func formatPrice(price int64) string {
	return fmt.Sprintf("$%d", price)
}

func formatTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("2006-01-02 15:04 MST")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04 MST")
	default:
		return ""
	}
}
