package models

import "time"

// Session - серверная запись об аутентифицированной сессии.
// В БД не хранится, живет в памяти менеджера сессий.
type Session struct {
	ID        string    // Случайный UUID, попадает в подписанный токен
	UserID    int64     // Владелец сессии
	Remember  bool      // Долгоживущая сессия ("запомнить меня")
	CreatedAt time.Time // Момент входа
	ExpiresAt time.Time // После этого момента сессия недействительна
}

// Expired сообщает, истекла ли сессия к моменту now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
