package storage

import "context"

// NoopUploader devolve erro indicando que não há backend configurado.
type NoopUploader struct{}

func (NoopUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, ErrNotConfigured
}

func (NoopUploader) Delete(ctx context.Context, key string) error {
	return ErrNotConfigured
}
