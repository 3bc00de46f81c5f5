package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
)

// Общая часть SELECT для товаров: имя владельца подтягивается JOIN-ом.
const itemSelect = `SELECT i.id, i.name, i.price, i.user_id, u.username AS owner_username, i.image_key, i.created_at
	FROM items i JOIN users u ON u.id = i.user_id`

// ItemRepository определяет методы для работы с товарами маркетплейса.
type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) (int64, error)
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context) ([]*models.Item, error)
	SearchItems(ctx context.Context, query string) ([]*models.Item, error)
	ListItemsByOwner(ctx context.Context, userID int64) ([]*models.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	SetImageKey(ctx context.Context, id int64, key string) error
}

// postgresItemRepository реализует ItemRepository для PostgreSQL.
type postgresItemRepository struct {
	db *sqlx.DB
}

// NewPostgresItemRepository создает новый экземпляр репозитория товаров.
func NewPostgresItemRepository(db *sqlx.DB) ItemRepository {
	return &postgresItemRepository{db: db}
}

// CreateItem сохраняет новый товар и возвращает его ID.
func (r *postgresItemRepository) CreateItem(ctx context.Context, item *models.Item) (int64, error) {
	query := `INSERT INTO items (name, price, user_id) VALUES ($1, $2, $3) RETURNING id`
	var itemID int64

	err := r.db.QueryRowxContext(ctx, query, item.Name, item.Price, item.UserID).Scan(&itemID)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == constraintItemName {
			log.Warn().Str("component", "ItemRepo").Str("name", item.Name).Msg("Название товара уже занято")
			return 0, ErrItemNameTaken
		}
		if foreignKeyViolation(err) {
			return 0, ErrUserNotFound
		}
		log.Error().Err(err).Str("component", "ItemRepo").Msg("Непредвиденная ошибка при создании товара")
		return 0, fmt.Errorf("ошибка выполнения запроса на создание товара: %w", err)
	}

	log.Debug().Str("component", "ItemRepo").Int64("item_id", itemID).Int64("user_id", item.UserID).
		Msg("Товар создан")
	return itemID, nil
}

// GetItemByID находит товар по ID.
func (r *postgresItemRepository) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item

	err := r.db.GetContext(ctx, &item, itemSelect+` WHERE i.id=$1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение товара: %w", err)
	}
	return &item, nil
}

// ListItems возвращает все товары в порядке возрастания ID.
func (r *postgresItemRepository) ListItems(ctx context.Context) ([]*models.Item, error) {
	return r.selectItems(ctx, itemSelect+` ORDER BY i.id`)
}

// SearchItems ищет товары, в названии которых встречается подстрока query (без учета регистра).
func (r *postgresItemRepository) SearchItems(ctx context.Context, query string) ([]*models.Item, error) {
	// strpos вместо LIKE, чтобы '%' и '_' в запросе не работали как шаблоны
	return r.selectItems(ctx, itemSelect+` WHERE STRPOS(LOWER(i.name), LOWER($1)) > 0 ORDER BY i.id`, query)
}

// ListItemsByOwner возвращает товары пользователя.
func (r *postgresItemRepository) ListItemsByOwner(ctx context.Context, userID int64) ([]*models.Item, error) {
	return r.selectItems(ctx, itemSelect+` WHERE i.user_id=$1 ORDER BY i.id`, userID)
}

func (r *postgresItemRepository) selectItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	items := make([]*models.Item, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		log.Error().Err(err).Str("component", "ItemRepo").Msg("Ошибка при получении списка товаров")
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка товаров: %w", err)
	}
	return items, nil
}

// DeleteItem удаляет товар (комментарии удаляются каскадно).
func (r *postgresItemRepository) DeleteItem(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM items WHERE id=$1`, id)
}

// SetImageKey сохраняет ключ картинки товара в объектном хранилище.
func (r *postgresItemRepository) SetImageKey(ctx context.Context, id int64, key string) error {
	return r.execOne(ctx, `UPDATE items SET image_key=$1 WHERE id=$2`, key, id)
}

// execOne выполняет запрос, который должен затронуть ровно одну строку товара.
func (r *postgresItemRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Str("component", "ItemRepo").Msg("Ошибка изменения товара")
		return fmt.Errorf("ошибка выполнения запроса на изменение товара: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}
