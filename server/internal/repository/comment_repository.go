package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
)

// CommentRepository определяет методы для работы с комментариями к товарам.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) (int64, error)
	ListCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)
}

type postgresCommentRepository struct {
	db *sqlx.DB
}

// NewPostgresCommentRepository создает новый экземпляр репозитория комментариев.
func NewPostgresCommentRepository(db *sqlx.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

// CreateComment сохраняет комментарий. Несуществующий товар дает ErrItemNotFound.
func (r *postgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) (int64, error) {
	query := `INSERT INTO comments (body, user_id, item_id) VALUES ($1, $2, $3) RETURNING id`
	var commentID int64

	err := r.db.QueryRowxContext(ctx, query, comment.Body, comment.UserID, comment.ItemID).Scan(&commentID)
	if err != nil {
		if foreignKeyViolation(err) {
			return 0, ErrItemNotFound
		}
		log.Error().Err(err).Str("component", "CommentRepo").Msg("Ошибка при создании комментария")
		return 0, fmt.Errorf("ошибка выполнения запроса на создание комментария: %w", err)
	}
	return commentID, nil
}

// ListCommentsByItem возвращает комментарии к товару, старые первыми.
func (r *postgresCommentRepository) ListCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	query := `SELECT c.id, c.body, c.user_id, c.item_id, u.username AS author_username, c.created_at
	FROM comments c JOIN users u ON u.id = c.user_id
	WHERE c.item_id=$1 ORDER BY c.created_at, c.id`

	comments := make([]*models.Comment, 0)
	if err := r.db.SelectContext(ctx, &comments, query, itemID); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение комментариев: %w", err)
	}
	return comments, nil
}
