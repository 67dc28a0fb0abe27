// Package s3storage реализует архив транскриптов сессий в S3-совместимом
// хранилище.
//
// Это "тупой" клиент: сериализацией транскрипта занимается вызывающая
// сторона, здесь только upload/download/list по фиксированной схеме ключей.
package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mkarpenko/echo-ai/pkg/config"
)

// keyPrefix — каталог транскриптов внутри bucket.
const keyPrefix = "sessions/"

// ErrNotArchived — транскрипт отсутствует в хранилище.
var ErrNotArchived = errors.New("transcript not archived")

// ArchiveInterface определяет интерфейс архива для мокания в тестах.
type ArchiveInterface interface {
	Archive(ctx context.Context, sessionID string, transcript []byte) (string, error)
	Fetch(ctx context.Context, sessionID string) ([]byte, error)
	List(ctx context.Context) ([]StoredObject, error)
}

// StoredObject — сырой объект из S3.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// SessionID восстанавливает идентификатор сессии из ключа объекта.
func (o StoredObject) SessionID() string {
	return strings.TrimSuffix(strings.TrimPrefix(o.Key, keyPrefix), ".json")
}

// Client — архив транскриптов поверх minio.
type Client struct {
	api    *minio.Client
	bucket string
}

var _ ArchiveInterface = (*Client)(nil)

// New создает клиент из конфигурации хранилища.
func New(cfg config.S3Config) (*Client, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
	}, nil
}

func transcriptKey(sessionID string) string {
	return keyPrefix + sessionID + ".json"
}

// Archive загружает JSON-транскрипт сессии и возвращает ключ объекта.
func (c *Client) Archive(ctx context.Context, sessionID string, transcript []byte) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}

	key := transcriptKey(sessionID)
	_, err := c.api.PutObject(ctx, c.bucket, key,
		bytes.NewReader(transcript), int64(len(transcript)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to archive session '%s': %w", sessionID, err)
	}
	return key, nil
}

// Fetch скачивает транскрипт сессии целиком в память.
func (c *Client) Fetch(ctx context.Context, sessionID string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, transcriptKey(sessionID), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, obj); err != nil {
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
			return nil, fmt.Errorf("session '%s': %w", sessionID, ErrNotArchived)
		}
		return nil, fmt.Errorf("failed to fetch transcript '%s': %w", sessionID, err)
	}
	return buf.Bytes(), nil
}

// List возвращает все архивированные транскрипты.
func (c *Client) List(ctx context.Context) ([]StoredObject, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    keyPrefix,
		Recursive: true,
	}

	var objects []StoredObject
	for obj := range c.api.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == keyPrefix {
			continue
		}
		objects = append(objects, StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}
