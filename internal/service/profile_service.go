package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"relaycrm/api/internal/avatar"
	"relaycrm/api/internal/ids"
	"relaycrm/api/internal/storage"
)

type avatarProfileStore interface {
	UpdateAvatarURL(ctx context.Context, userID string, avatarURL string) error
}

type ProfileService struct {
	profiles avatarProfileStore
	store    *storage.ObjectStore
	log      zerolog.Logger
}

func NewProfileService(profiles avatarProfileStore, store *storage.ObjectStore, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		store:    store,
		log:      log,
	}
}

type AvatarInput struct {
	UserID string
	File   multipart.File
	Header *multipart.FileHeader
}

// UploadAvatar validates the payload by content sniffing, stores it in the
// avatar bucket, and records the public URL on the profile.
func (s *ProfileService) UploadAvatar(ctx context.Context, input AvatarInput) (string, error) {
	if input.File == nil || input.Header == nil {
		return "", errors.New("invalid file payload")
	}

	data, err := io.ReadAll(input.File)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	result, err := avatar.Sniff(head)
	if err != nil {
		return "", err
	}

	declared := avatar.DeclaredMIME(input.Header.Header)
	if declared != "" && declared != result.MIME {
		return "", fmt.Errorf("%w: declared %s, content is %s", avatar.ErrUnsupportedType, declared, result.MIME)
	}

	objectKey := path.Join(input.UserID, fmt.Sprintf("%s.%s", ids.New(), result.Type))
	bucket := s.store.AvatarBucket()

	_, err = s.store.Client().PutObject(ctx, bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: result.MIME,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	url := s.store.PublicURL(bucket, objectKey)
	if err := s.profiles.UpdateAvatarURL(ctx, input.UserID, url); err != nil {
		return "", err
	}

	return url, nil
}
