package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/repository"
	"github.com/ItamarRom/MyMarket/server/internal/storage"
)

// MaxImageSize - максимальный размер картинки товара.
const MaxImageSize = 5 << 20

// ProfileAvatarSize - размер аватара на странице профиля.
const ProfileAvatarSize = 128

// ListingService определяет интерфейс для сервиса товаров маркетплейса.
type ListingService interface {
	List(ctx context.Context) ([]*models.Item, error)
	Search(ctx context.Context, query string) ([]*models.Item, error)
	Get(ctx context.Context, itemID int64) (*models.Item, error)
	Create(ctx context.Context, ownerID int64, req models.CreateItemRequest) (*models.Item, error)
	Delete(ctx context.Context, actorID, itemID int64) error
	ListByOwner(ctx context.Context, username string) ([]*models.Item, error)
	Profile(ctx context.Context, username string) (*models.ProfileResponse, error)
	Comments(ctx context.Context, itemID int64) ([]*models.Comment, error)
	AddComment(ctx context.Context, userID, itemID int64, req models.CreateCommentRequest) (*models.Comment, error)
	UploadImage(ctx context.Context, actorID, itemID int64, data io.Reader, size int64, declaredType string) error
	OpenImage(ctx context.Context, itemID int64) (io.ReadCloser, *storage.ObjectInfo, error)
}

// ListingConfig - параметры сервиса товаров.
type ListingConfig struct {
	// StrictOwnership запрещает удалять чужие товары.
	// При false удалить товар может любой вошедший пользователь, такие удаления пишутся в лог.
	StrictOwnership bool
}

var _ ListingService = (*listingService)(nil) // Проверка соответствия интерфейсу

type listingService struct {
	items    repository.ItemRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	images   storage.ImageStorage // nil, если хранилище картинок не настроено
	validate *validator.Validate
	cfg      ListingConfig
}

// NewListingService создает новый экземпляр сервиса товаров.
func NewListingService(
	items repository.ItemRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	images storage.ImageStorage,
	cfg ListingConfig,
) ListingService {
	return &listingService{
		items:    items,
		comments: comments,
		users:    users,
		images:   images,
		validate: newValidator(),
		cfg:      cfg,
	}
}

// List возвращает все товары в порядке их появления.
func (s *listingService) List(ctx context.Context) ([]*models.Item, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// Search ищет товары по подстроке в названии. Пустой запрос возвращает все товары.
func (s *listingService) Search(ctx context.Context, query string) ([]*models.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	items, err := s.items.SearchItems(ctx, query)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// Get возвращает товар по ID.
func (s *listingService) Get(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := s.items.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, storeErr(err)
	}
	return item, nil
}

// Create выставляет новый товар от имени владельца.
func (s *listingService) Create(ctx context.Context, ownerID int64, req models.CreateItemRequest) (*models.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	verr := &ValidationError{}
	if err := validateInto(s.validate, req, verr); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	item := &models.Item{Name: req.Name, Price: req.Price, UserID: ownerID}
	id, err := s.items.CreateItem(ctx, item)
	if err != nil {
		if errors.Is(err, repository.ErrItemNameTaken) {
			verr.Add("name", MsgItemNameTaken, ErrItemNameTaken)
			return nil, verr
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Str("component", "ListingService").Msg("Ошибка создания товара")
		return nil, storeErr(err)
	}

	log.Info().Str("component", "ListingService").Int64("item_id", id).Int64("user_id", ownerID).
		Msg("Товар выставлен на маркетплейс")
	return s.Get(ctx, id)
}

// Delete удаляет товар. Проверка владельца зависит от ListingConfig.StrictOwnership.
func (s *listingService) Delete(ctx context.Context, actorID, itemID int64) error {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != actorID {
		if s.cfg.StrictOwnership {
			log.Warn().Str("component", "ListingService").Int64("item_id", itemID).Int64("actor_id", actorID).
				Msg("Отклонена попытка удалить чужой товар")
			return ErrNotItemOwner
		}
		log.Warn().Str("component", "ListingService").Int64("item_id", itemID).Int64("actor_id", actorID).
			Int64("owner_id", item.UserID).Msg("Удаление чужого товара (проверка владельца выключена)")
	}

	if err = s.items.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return storeErr(err)
	}
	if item.HasImage() && s.images != nil {
		if err = s.images.Delete(ctx, *item.ImageKey); err != nil {
			log.Warn().Err(err).Str("component", "ListingService").Int64("item_id", itemID).
				Msg("Не удалось удалить картинку удаленного товара")
		}
	}

	log.Info().Str("component", "ListingService").Int64("item_id", itemID).Int64("actor_id", actorID).
		Msg("Товар удален")
	return nil
}

// ListByOwner возвращает товары пользователя.
func (s *listingService) ListByOwner(ctx context.Context, username string) ([]*models.Item, error) {
	profile, err := s.Profile(ctx, username)
	if err != nil {
		return nil, err
	}
	return profile.Items, nil
}

// Profile возвращает пользователя и его товары.
func (s *listingService) Profile(ctx context.Context, username string) (*models.ProfileResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	items, err := s.items.ListItemsByOwner(ctx, user.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	return &models.ProfileResponse{User: user, Avatar: user.Avatar(ProfileAvatarSize), Items: items}, nil
}

// Comments возвращает комментарии к товару.
func (s *listingService) Comments(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	comments, err := s.comments.ListCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, storeErr(err)
	}
	return comments, nil
}

// AddComment добавляет комментарий пользователя к товару.
func (s *listingService) AddComment(
	ctx context.Context,
	userID, itemID int64,
	req models.CreateCommentRequest,
) (*models.Comment, error) {
	req.Body = strings.TrimSpace(req.Body)
	verr := &ValidationError{}
	if err := validateInto(s.validate, req, verr); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	comment := &models.Comment{Body: req.Body, UserID: userID, ItemID: itemID}
	id, err := s.comments.CreateComment(ctx, comment)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, storeErr(err)
	}
	comment.ID = id
	return comment, nil
}

// UploadImage сохраняет картинку товара. Загружать может только владелец.
// Тип определяется по содержимому файла, declaredType только логируется.
func (s *listingService) UploadImage(
	ctx context.Context,
	actorID, itemID int64,
	data io.Reader,
	size int64,
	declaredType string,
) error {
	if s.images == nil {
		return ErrImagesDisabled
	}
	if size <= 0 || size > MaxImageSize {
		return ErrInvalidImage
	}
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != actorID {
		return ErrNotItemOwner
	}

	data, contentType, err := sniffImage(data)
	if err != nil {
		log.Info().Err(err).Str("component", "ListingService").Int64("item_id", itemID).
			Str("declared", declaredType).Str("detected", contentType).Msg("Картинка отклонена")
		return err
	}

	key := storage.ItemImageKey(itemID)
	if err = s.images.Upload(ctx, key, data, size, contentType); err != nil {
		return fmt.Errorf("ошибка загрузки картинки: %w", err)
	}
	if err = s.items.SetImageKey(ctx, itemID, key); err != nil {
		_ = s.images.Delete(ctx, key)
		if errors.Is(err, repository.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return storeErr(err)
	}
	if item.HasImage() {
		if err = s.images.Delete(ctx, *item.ImageKey); err != nil {
			log.Warn().Err(err).Str("component", "ListingService").Msg("Не удалось удалить старую картинку")
		}
	}
	return nil
}

// OpenImage возвращает картинку товара. Читатель нужно закрыть.
func (s *listingService) OpenImage(ctx context.Context, itemID int64) (io.ReadCloser, *storage.ObjectInfo, error) {
	if s.images == nil {
		return nil, nil, ErrImagesDisabled
	}
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !item.HasImage() {
		return nil, nil, ErrItemNotFound
	}
	rc, info, err := s.images.Download(ctx, *item.ImageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrItemNotFound
		}
		return nil, nil, fmt.Errorf("ошибка получения картинки: %w", err)
	}
	return rc, info, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
