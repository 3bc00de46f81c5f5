package models

import "time"

// Item представляет товар, выставленный на маркетплейс.
type Item struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`   // Уникальное название
	Price         int64     `db:"price" json:"price"` // Цена в целых единицах
	UserID        int64     `db:"user_id" json:"user_id"`
	OwnerUsername string    `db:"owner_username" json:"owner_username"` // Заполняется JOIN-ом с users
	ImageKey      *string   `db:"image_key" json:"image_key,omitempty"` // Ключ картинки в MinIO, может быть NULL
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// HasImage сообщает, загружена ли картинка товара.
func (i *Item) HasImage() bool {
	return i.ImageKey != nil && *i.ImageKey != ""
}

// CreateItemRequest представляет тело запроса на создание товара.
type CreateItemRequest struct {
	Name  string `json:"name" validate:"required,min=3,max=64"`
	Price int64  `json:"price" validate:"required,gt=0"`
}
