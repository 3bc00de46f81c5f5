// Package storage хранит картинки товаров в объектном хранилище MinIO (S3-совместимом).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// ImageStorage определяет интерфейс для работы с картинками товаров.
type ImageStorage interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, objectKey string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, objectKey string) error
}

// ObjectInfo - метаданные объекта, нужные для отдачи клиенту.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string `yaml:"endpoint"`   // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string `yaml:"access_key"` // Логин
	SecretAccessKey string `yaml:"secret_key"` // Пароль
	UseSSL          bool   `yaml:"use_ssl"`    // Использовать SSL (обычно false для локальной разработки)
	BucketName      string `yaml:"bucket"`     // Имя бакета для картинок
	Region          string `yaml:"region"`     // Регион (не обязательно для MinIO)
}

// Enabled сообщает, задан ли адрес хранилища.
func (c MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

// MinioStorage реализует ImageStorage для MinIO.
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

var _ ImageStorage = (*MinioStorage)(nil)

// NewMinioStorage создает клиент MinIO и при необходимости создает бакет.
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	log.Info().Str("endpoint", cfg.Endpoint).Msg("Инициализация клиента MinIO...")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	// Проверка существования бакета и создание при необходимости
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Info().Str("bucket", cfg.BucketName).Msg("Бакет не найден, создаем...")
		if err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	log.Info().Str("bucket", cfg.BucketName).Msg("Клиент MinIO успешно инициализирован.")
	return &MinioStorage{client: client, bucketName: cfg.BucketName}, nil
}

// ItemImageKey возвращает новый ключ объекта для картинки товара.
// Каждая загрузка получает свой ключ, старая картинка удаляется отдельно.
func ItemImageKey(itemID int64) string {
	return fmt.Sprintf("items/%d/%s", itemID, uuid.NewString())
}

// Upload загружает объект в бакет.
func (s *MinioStorage) Upload(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	info, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Error().Err(err).Str("component", "Minio").Str("key", objectKey).Msg("Ошибка загрузки файла")
		return fmt.Errorf("ошибка загрузки файла в MinIO: %w", err)
	}

	log.Debug().Str("component", "Minio").Str("key", objectKey).Int64("size", info.Size).Msg("Файл загружен")
	return nil
}

// Download возвращает содержимое объекта, которое нужно закрыть после использования.
func (s *MinioStorage) Download(ctx context.Context, objectKey string) (io.ReadCloser, *ObjectInfo, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, s.mapError(objectKey, err)
	}

	// GetObject ленивый: реальный запрос и ошибка NoSuchKey появляются на Stat
	stat, err := object.Stat()
	if err != nil {
		_ = object.Close()
		return nil, nil, s.mapError(objectKey, err)
	}

	return object, &ObjectInfo{Size: stat.Size, ContentType: stat.ContentType}, nil
}

// Delete удаляет объект. Отсутствие объекта ошибкой не считается.
func (s *MinioStorage) Delete(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("ошибка удаления файла из MinIO: %w", err)
	}
	return nil
}

func (s *MinioStorage) mapError(objectKey string, err error) error {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
		log.Warn().Str("component", "Minio").Str("key", objectKey).Msg("Файл не найден в бакете")
		return ErrObjectNotFound
	}
	log.Error().Err(err).Str("component", "Minio").Str("key", objectKey).Msg("Ошибка получения файла")
	return fmt.Errorf("ошибка получения файла из MinIO: %w", err)
}

// ErrObjectNotFound - объекта нет в хранилище.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")
