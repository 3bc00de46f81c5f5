package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ItamarRom/MyMarket/server/internal/services"
)

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		name string
		next string
		want string
	}{
		{name: "Пустой next", next: "", want: services.DefaultRedirect},
		{name: "Относительный путь", next: "/market", want: "/market"},
		{name: "Путь с параметрами", next: "/market?q=bike", want: "/market?q=bike"},
		{name: "Абсолютный URL чужого сайта", next: "http://evil.example/x", want: services.DefaultRedirect},
		{name: "HTTPS URL", next: "https://evil.example", want: services.DefaultRedirect},
		{name: "Протокол-относительный URL", next: "//evil.example/x", want: services.DefaultRedirect},
		{name: "Обратный слеш", next: "/\\evil.example", want: services.DefaultRedirect},
		{name: "javascript схема", next: "javascript:alert(1)", want: services.DefaultRedirect},
		{name: "Путь без ведущего слеша", next: "market", want: services.DefaultRedirect},
		{name: "Управляющие символы", next: "/\t/evil.example", want: services.DefaultRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.SafeRedirect(tt.next, services.DefaultRedirect))
		})
	}
}
