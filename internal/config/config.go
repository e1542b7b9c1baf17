package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port             int
	DBDSN            string
	RedisURL         string
	JWTAccessTTL     time.Duration
	JWTSecret        string
	AllowOrigins     []string
	RateLimitPublic  RateLimitConfig
	RateLimitAuth    RateLimitConfig
	DocStore         DocStoreConfig
	Storage          StorageConfig
	ExtractPathsFile string

	EditalCloseSchedule string
	EditalCacheTTL      time.Duration
	UploadMaxBytes      int64
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// DocStoreConfig escolhe onde ficam os formulários de mapeamento e proponentes.
type DocStoreConfig struct {
	Provider      string
	MongoURI      string
	MongoDatabase string
}

// StorageConfig descreve o bucket de anexos dos projetos.
type StorageConfig struct {
	Provider     string
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicURL    string
	UsePathStyle bool
}

const (
	DocStorePostgres = "postgres"
	DocStoreMongo    = "mongo"

	StorageNoop = "noop"
	StorageS3   = "s3"
	StorageR2   = "r2"
)

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", ""))

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	docStore, err := LoadDocStore()
	if err != nil {
		return nil, err
	}
	cfg.DocStore = docStore

	storage, err := loadStorage()
	if err != nil {
		return nil, err
	}
	cfg.Storage = storage

	cfg.ExtractPathsFile = strings.TrimSpace(getEnv("EXTRACT_PATHS_FILE", ""))

	cfg.EditalCloseSchedule = strings.TrimSpace(getEnv("EDITAL_CLOSE_SCHEDULE", "*/15 * * * *"))
	if _, err := cron.ParseStandard(cfg.EditalCloseSchedule); err != nil {
		return nil, errors.New("EDITAL_CLOSE_SCHEDULE inválido")
	}

	cacheTTL, err := parseDurationEnv("EDITAL_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.EditalCacheTTL = cacheTTL

	maxBytes, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	if err != nil || maxBytes <= 0 {
		return nil, errors.New("UPLOAD_MAX_BYTES inválido")
	}
	cfg.UploadMaxBytes = maxBytes

	return cfg, nil
}

// LoadDocStore lê só a parte de documentos; usado também pela CLI.
func LoadDocStore() (DocStoreConfig, error) {
	ds := DocStoreConfig{
		Provider:      strings.ToLower(strings.TrimSpace(getEnv("DOCSTORE_PROVIDER", DocStorePostgres))),
		MongoURI:      strings.TrimSpace(getEnv("MONGO_URI", "")),
		MongoDatabase: strings.TrimSpace(getEnv("MONGO_DATABASE", "cultura")),
	}
	switch ds.Provider {
	case DocStorePostgres:
	case DocStoreMongo:
		if ds.MongoURI == "" {
			return ds, errors.New("MONGO_URI obrigatório quando DOCSTORE_PROVIDER=mongo")
		}
	default:
		return ds, errors.New("DOCSTORE_PROVIDER inválido")
	}
	return ds, nil
}

func loadStorage() (StorageConfig, error) {
	st := StorageConfig{
		Provider:  strings.ToLower(strings.TrimSpace(getEnv("STORAGE_PROVIDER", StorageNoop))),
		Endpoint:  strings.TrimSpace(getEnv("S3_ENDPOINT", "")),
		Region:    strings.TrimSpace(getEnv("S3_REGION", "auto")),
		Bucket:    strings.TrimSpace(getEnv("S3_BUCKET", "")),
		AccessKey: strings.TrimSpace(getEnv("S3_ACCESS_KEY", "")),
		SecretKey: strings.TrimSpace(getEnv("S3_SECRET_KEY", "")),
		PublicURL: strings.TrimRight(strings.TrimSpace(getEnv("S3_PUBLIC_URL", "")), "/"),
	}
	switch st.Provider {
	case StorageNoop:
		return st, nil
	case StorageS3, StorageR2:
	default:
		return st, errors.New("STORAGE_PROVIDER inválido")
	}
	if st.Bucket == "" {
		return st, errors.New("S3_BUCKET obrigatório")
	}
	if st.AccessKey == "" || st.SecretKey == "" {
		return st, errors.New("S3_ACCESS_KEY e S3_SECRET_KEY obrigatórios")
	}
	// R2 e MinIO só respondem em path-style.
	st.UsePathStyle = st.Provider == StorageR2 || getEnv("S3_PATH_STYLE", "") == "true"
	if st.Provider == StorageR2 && st.Endpoint == "" {
		return st, errors.New("S3_ENDPOINT obrigatório para R2")
	}
	return st, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
