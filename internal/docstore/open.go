package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/cultura/internal/config"
)

// Open escolhe o armazenamento de documentos conforme a configuração. O
// close devolvido é sempre seguro de chamar.
func Open(ctx context.Context, cfg config.DocStoreConfig, pool *pgxpool.Pool) (Store, func(context.Context) error, error) {
	noClose := func(context.Context) error { return nil }

	switch cfg.Provider {
	case "", config.DocStorePostgres:
		if pool == nil {
			return nil, noClose, errors.New("docstore: postgres sem conexão")
		}
		return NewPostgres(pool), noClose, nil
	case config.DocStoreMongo:
		store, closeFn, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, noClose, fmt.Errorf("docstore: mongo: %w", err)
		}
		return store, closeFn, nil
	}
	return nil, noClose, fmt.Errorf("docstore: provedor %s não suportado", cfg.Provider)
}
