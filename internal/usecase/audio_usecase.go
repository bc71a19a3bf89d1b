package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/entity"
	"github.com/eslsoft/untranslatable/internal/infrastructure/config"
)

// AudioStorage uploads a pronunciation and returns its playable URL.
type AudioStorage interface {
	Upload(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// AudioUsecase enforces the upload rules before handing audio to storage.
type AudioUsecase interface {
	Upload(ctx context.Context, audio io.Reader, filename string) (string, error)
	MaxBytes() int64
}

type audioUsecase struct {
	storage  AudioStorage
	maxBytes int64
	logger   *logrus.Logger
}

func NewAudioUsecase(storage AudioStorage, cfg *config.Config, logger *logrus.Logger) AudioUsecase {
	maxBytes := cfg.Audio.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &audioUsecase{storage: storage, maxBytes: maxBytes, logger: logger}
}

func (u *audioUsecase) MaxBytes() int64 { return u.maxBytes }

// Upload buffers at most maxBytes+1 bytes so oversized payloads never reach storage.
func (u *audioUsecase) Upload(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if audio == nil {
		return "", entity.ErrNoAudioFile
	}
	buf, err := io.ReadAll(io.LimitReader(audio, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if int64(len(buf)) > u.maxBytes {
		return "", entity.ErrAudioTooLarge
	}

	url, err := u.storage.Upload(ctx, bytes.NewReader(buf), filename)
	if err != nil {
		u.logger.WithError(err).WithField("bytes", len(buf)).Error("audio upload failed")
		return "", fmt.Errorf("%w: %v", entity.ErrAudioUpload, err)
	}
	return url, nil
}
