package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost/cultura")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, DocStorePostgres, cfg.DocStore.Provider)
	assert.Equal(t, StorageNoop, cfg.Storage.Provider)
	assert.Equal(t, "*/15 * * * *", cfg.EditalCloseSchedule)
	assert.Equal(t, 5*time.Minute, cfg.EditalCacheTTL)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"segredo curto":     {"JWT_SECRET": "curto"},
		"porta":             {"PORT": "abc"},
		"agenda":            {"EDITAL_CLOSE_SCHEDULE": "toda hora"},
		"docstore":          {"DOCSTORE_PROVIDER": "sqlite"},
		"mongo sem uri":     {"DOCSTORE_PROVIDER": "mongo"},
		"storage":           {"STORAGE_PROVIDER": "ftp"},
		"s3 sem bucket":     {"STORAGE_PROVIDER": "s3"},
		"upload":            {"UPLOAD_MAX_BYTES": "-1"},
		"duração inválida":  {"EDITAL_CACHE_TTL": "cinco"},
		"r2 sem endpoint":   {"STORAGE_PROVIDER": "r2", "S3_BUCKET": "b", "S3_ACCESS_KEY": "k", "S3_SECRET_KEY": "s"},
		"s3 sem credencial": {"STORAGE_PROVIDER": "s3", "S3_BUCKET": "b"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBase(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadStorageR2(t *testing.T) {
	setBase(t)
	t.Setenv("STORAGE_PROVIDER", "R2")
	t.Setenv("S3_ENDPOINT", "https://conta.r2.cloudflarestorage.com")
	t.Setenv("S3_BUCKET", "anexos")
	t.Setenv("S3_ACCESS_KEY", "k")
	t.Setenv("S3_SECRET_KEY", "s")
	t.Setenv("S3_PUBLIC_URL", "https://cdn.example.com/")
	t.Setenv("ALLOW_ORIGINS", "https://cultura.example.com, *.example.com,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageR2, cfg.Storage.Provider)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicURL)
	assert.Equal(t, []string{"https://cultura.example.com", "*.example.com"}, cfg.AllowOrigins)
}

func TestLoadDocStoreMongo(t *testing.T) {
	t.Setenv("DOCSTORE_PROVIDER", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	ds, err := LoadDocStore()
	require.NoError(t, err)
	assert.Equal(t, DocStoreMongo, ds.Provider)
	assert.Equal(t, "cultura", ds.MongoDatabase)
}
