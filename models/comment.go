package models

import "time"

// Comment - комментарий пользователя к товару.
type Comment struct {
	ID             int64     `db:"id" json:"id"`
	Body           string    `db:"body" json:"body"`
	UserID         int64     `db:"user_id" json:"user_id"`
	ItemID         int64     `db:"item_id" json:"item_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CreateCommentRequest представляет тело запроса на добавление комментария.
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,max=500"`
}
