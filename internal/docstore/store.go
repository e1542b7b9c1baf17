// Package docstore acessa coleções de documentos sem esquema fixo, sempre
// escopadas por município (cityId).
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound é retornado quando o documento não existe.
var ErrNotFound = errors.New("documento não encontrado")

const (
	// FieldID recebe o identificador atribuído pelo armazenamento.
	FieldID = "id"
	// FieldCityID é o campo de escopo municipal.
	FieldCityID = "cityId"
)

// Record é um documento heterogêneo com o id mesclado.
type Record map[string]any

// ID devolve o identificador mesclado no registro.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// CityID devolve o município do registro.
func (r Record) CityID() string {
	city, _ := r[FieldCityID].(string)
	return city
}

// Store abstrai o banco de documentos gerenciado.
type Store interface {
	// ListByCity equivale a SELECT * FROM <collection> WHERE cityId = <cityID>,
	// na ordem devolvida pelo armazenamento.
	ListByCity(ctx context.Context, collection, cityID string) ([]Record, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	// Insert grava o documento e devolve o id atribuído.
	Insert(ctx context.Context, collection, cityID string, data Record) (string, error)
	// Update mescla os campos de primeiro nível informados.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
}
