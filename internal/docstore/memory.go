package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory mantém documentos em memória, na ordem de inserção. Usado em
// desenvolvimento local e testes.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

// NewMemory cria um armazenamento vazio.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]Record)}
}

func (m *Memory) ListByCity(ctx context.Context, collection, cityID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []Record{}
	for _, rec := range m.collections[collection] {
		if rec.CityID() == cityID {
			records = append(records, clone(rec))
		}
	}
	return records, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.collections[collection] {
		if rec.ID() == id {
			return clone(rec), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Insert(ctx context.Context, collection, cityID string, data Record) (string, error) {
	rec := clone(data)
	id := uuid.NewString()
	rec[FieldID] = id
	rec[FieldCityID] = cityID

	m.mu.Lock()
	m.collections[collection] = append(m.collections[collection], rec)
	m.mu.Unlock()
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.collections[collection] {
		if rec.ID() != id {
			continue
		}
		for k, v := range clone(fields) {
			if k == FieldID || k == FieldCityID {
				continue
			}
			rec[k] = v
		}
		return nil
	}
	return ErrNotFound
}

// clone faz cópia profunda via JSON para que chamadores não compartilhem mapas.
func clone(src map[string]any) Record {
	raw, err := json.Marshal(src)
	if err != nil {
		out := Record{}
		for k, v := range src {
			out[k] = v
		}
		return out
	}
	out := Record{}
	_ = json.Unmarshal(raw, &out)
	return out
}
