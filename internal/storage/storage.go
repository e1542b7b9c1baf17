package storage

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrNotConfigured sinaliza que o município não tem bucket configurado.
var ErrNotConfigured = errors.New("storage: uploader não configurado")

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	Key  string
	URL  string
	ETag string
}

// Uploader define comportamento básico para armazenar blobs.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ProjectKey monta a chave de um anexo: cidades/<city>/projetos/<id>/<uuid>-<nome>.
func ProjectKey(cityID, projetoID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		name = "arquivo"
	}
	return path.Join("cidades", cityID, "projetos", projetoID, uuid.NewString()+"-"+name)
}
