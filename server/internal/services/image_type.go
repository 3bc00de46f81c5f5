package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// imageSniffLen - сколько байт начала файла читается для определения типа.
const imageSniffLen = 3072

// allowedImageTypes - форматы картинок, которые сервер принимает и отдает.
// SVG сюда не входит: он может содержать скрипты.
var allowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// AllowedImageType возвращает канонический тип, если contentType из списка разрешенных.
func AllowedImageType(contentType string) (string, bool) {
	mt := mimetype.Lookup(contentType)
	if mt == nil {
		return "", false
	}
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

// sniffImage определяет тип картинки по первым байтам.
// Возвращает читатель, который отдает файл целиком, вместе с прочитанным началом.
func sniffImage(data io.Reader) (io.Reader, string, error) {
	head := make([]byte, imageSniffLen)
	n, err := io.ReadFull(data, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("ошибка чтения картинки: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	for _, allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			return io.MultiReader(bytes.NewReader(head), data), allowed, nil
		}
	}
	return nil, detected.String(), ErrInvalidImage
}
