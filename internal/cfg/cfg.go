package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Http      *HTTPConfig
	Qdrant    *QdrantCfg
	Redis     *RedisCfg
	OpenAI    *OpenAICfg
	Retrieval *RetrievalCfg
	Ingest    *IngestCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type QdrantCfg struct {
	Host                string
	Port                int
	ApiKey              string
	UseTLS              bool
	MovieCollectionName string // коллекция корпуса фильмов
	CacheCollectionName string // коллекция кэша ответов и истории
	VectorSize          uint64
	UpsertMaxRetries    int           // предел повторов при rate limit
	UpsertRetryDefault  time.Duration // пауза, если store не прислал retry-after
}

type RedisCfg struct {
	Addr            string
	Password        string
	User            string
	DB              int
	MaxRetries      int
	DialTimeout     time.Duration
	Timeout         time.Duration
	SessionTTL      time.Duration
	SessionMaxTurns int64 // сколько последних реплик хранится на сессию
}

// OpenAICfg описывает два отдельных endpoint-а: embeddings и completions.
type OpenAICfg struct {
	EmbeddingsEndpoint    string
	EmbeddingsKey         string
	EmbeddingsDeployment  string
	EmbeddingsDimensions  int
	EmbedMaxAttempts      int
	EmbedBackoffBase      time.Duration
	EmbedBackoffMax       time.Duration
	CompletionsEndpoint   string
	CompletionsKey        string
	CompletionsDeployment string
	Temperature           float32
}

// RetrievalCfg — пороги похожести и лимиты выборок.
type RetrievalCfg struct {
	CorpusScoreThreshold float32 // низкий порог: тематически близкие фильмы
	CorpusLimit          uint64
	CacheScoreThreshold  float32 // высокий порог: почти идентичный вопрос
	HistoryLimit         uint32
	TurnTimeout          time.Duration // общий таймаут одного хода диалога
}

type IngestCfg struct {
	DatasetPath string
	Vectorize   bool // false, если векторы уже посчитаны в датасете
	Writers     int  // размер пула писателей
	WritePacing time.Duration
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	openai, err := loadOpenAICfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	retrieval, err := loadRetrievalCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ingest, err := loadIngestCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:      http,
		Qdrant:    qdrant,
		Redis:     redis,
		OpenAI:    openai,
		Retrieval: retrieval,
		Ingest:    ingest,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 90 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadQdrantCfg(log logger.Logger) (*QdrantCfg, error) {
	const (
		defaultGRPCPort        = "6334"
		defaultUseTLS          = false
		defaultVectorSize      = "256"
		defaultMovieCollection = "movies"
		defaultCacheCollection = "movies_cache"
		defaultUpsertRetries   = 5
		defaultUpsertRetryWait = 500 * time.Millisecond
	)

	port, err := strconv.Atoi(getEnvOrDefault("QDRANT_GRPC_PORT", defaultGRPCPort))
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	vectorSize, err := strconv.ParseUint(getEnvOrDefault("VECTOR_SIZE", defaultVectorSize), 10, 64)
	if err != nil {
		log.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	upsertRetries, err := parseIntEnv("UPSERT_MAX_RETRIES", defaultUpsertRetries)
	if err != nil {
		log.Errorf(err, "invalid UPSERT_MAX_RETRIES")
		return nil, err
	}

	retryWait, err := parseDurationEnv("UPSERT_RETRY_DEFAULT", defaultUpsertRetryWait)
	if err != nil {
		log.Errorf(err, "invalid UPSERT_RETRY_DEFAULT")
		return nil, err
	}

	return &QdrantCfg{
		Host:                getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:                port,
		ApiKey:              getEnv("QDRANT__SERVICE__API_KEY"),
		UseTLS:              useTLS,
		MovieCollectionName: getEnvOrDefault("MOVIE_COLLECTION_NAME", defaultMovieCollection),
		CacheCollectionName: getEnvOrDefault("CACHE_COLLECTION_NAME", defaultCacheCollection),
		VectorSize:          vectorSize,
		UpsertMaxRetries:    upsertRetries,
		UpsertRetryDefault:  retryWait,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultSessionTTL   = 24 * time.Hour
		defaultMaxTurns     = 50
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	sessionTTL, err := parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		log.Errorf(err, "invalid SESSION_TTL")
		return nil, err
	}

	maxTurns, err := parseIntEnv("SESSION_MAX_TURNS", defaultMaxTurns)
	if err != nil {
		log.Errorf(err, "invalid SESSION_MAX_TURNS")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:            getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:        getEnv("REDIS_PASSWORD"),
		User:            getEnv("REDIS_USER"),
		DB:              db,
		MaxRetries:      maxRetries,
		DialTimeout:     dialTimeout,
		Timeout:         timeout,
		SessionTTL:      sessionTTL,
		SessionMaxTurns: int64(maxTurns),
	}, nil
}

func loadOpenAICfg(log logger.Logger) (*OpenAICfg, error) {
	const (
		defaultDimensions  = 256
		defaultMaxAttempts = 20
		defaultBackoffBase = 2 * time.Second
		defaultBackoffMax  = 300 * time.Second
		defaultTemperature = "0.3"
	)

	embEndpoint := getEnv("OPENAI_EMBEDDINGS_ENDPOINT")
	if embEndpoint == "" {
		err := fmt.Errorf("OPENAI_EMBEDDINGS_ENDPOINT is required")
		log.Errorf(err, "missing OPENAI_EMBEDDINGS_ENDPOINT")
		return nil, err
	}

	embKey := getEnv("OPENAI_EMBEDDINGS_KEY")
	if embKey == "" {
		err := fmt.Errorf("OPENAI_EMBEDDINGS_KEY is required")
		log.Errorf(err, "missing OPENAI_EMBEDDINGS_KEY")
		return nil, err
	}

	complEndpoint := getEnv("OPENAI_COMPLETIONS_ENDPOINT")
	if complEndpoint == "" {
		err := fmt.Errorf("OPENAI_COMPLETIONS_ENDPOINT is required")
		log.Errorf(err, "missing OPENAI_COMPLETIONS_ENDPOINT")
		return nil, err
	}

	complKey := getEnv("OPENAI_COMPLETIONS_KEY")
	if complKey == "" {
		err := fmt.Errorf("OPENAI_COMPLETIONS_KEY is required")
		log.Errorf(err, "missing OPENAI_COMPLETIONS_KEY")
		return nil, err
	}

	dimensions, err := parseIntEnv("OPENAI_EMBEDDINGS_DIMENSIONS", defaultDimensions)
	if err != nil {
		log.Errorf(err, "invalid OPENAI_EMBEDDINGS_DIMENSIONS")
		return nil, err
	}

	maxAttempts, err := parseIntEnv("EMBED_MAX_ATTEMPTS", defaultMaxAttempts)
	if err != nil {
		log.Errorf(err, "invalid EMBED_MAX_ATTEMPTS")
		return nil, err
	}

	backoffBase, err := parseDurationEnv("EMBED_BACKOFF_BASE", defaultBackoffBase)
	if err != nil {
		log.Errorf(err, "invalid EMBED_BACKOFF_BASE")
		return nil, err
	}

	backoffMax, err := parseDurationEnv("EMBED_BACKOFF_MAX", defaultBackoffMax)
	if err != nil {
		log.Errorf(err, "invalid EMBED_BACKOFF_MAX")
		return nil, err
	}

	temperature, err := parseFloatEnv("COMPLETION_TEMPERATURE", defaultTemperature)
	if err != nil {
		log.Errorf(err, "invalid COMPLETION_TEMPERATURE")
		return nil, err
	}

	return &OpenAICfg{
		EmbeddingsEndpoint:    embEndpoint,
		EmbeddingsKey:         embKey,
		EmbeddingsDeployment:  getEnvOrDefault("OPENAI_EMBEDDINGS_DEPLOYMENT", "text-embedding-3-small"),
		EmbeddingsDimensions:  dimensions,
		EmbedMaxAttempts:      maxAttempts,
		EmbedBackoffBase:      backoffBase,
		EmbedBackoffMax:       backoffMax,
		CompletionsEndpoint:   complEndpoint,
		CompletionsKey:        complKey,
		CompletionsDeployment: getEnvOrDefault("OPENAI_COMPLETIONS_DEPLOYMENT", "gpt-4o-mini"),
		Temperature:           float32(temperature),
	}, nil
}

func loadRetrievalCfg(log logger.Logger) (*RetrievalCfg, error) {
	const (
		defaultCorpusThreshold = "0.02"
		defaultCorpusLimit     = 5
		defaultCacheThreshold  = "0.99"
		defaultHistoryLimit    = 3
		defaultTurnTimeout     = 60 * time.Second
	)

	corpusThreshold, err := parseFloatEnv("CORPUS_SCORE_THRESHOLD", defaultCorpusThreshold)
	if err != nil {
		log.Errorf(err, "invalid CORPUS_SCORE_THRESHOLD")
		return nil, err
	}

	cacheThreshold, err := parseFloatEnv("CACHE_SCORE_THRESHOLD", defaultCacheThreshold)
	if err != nil {
		log.Errorf(err, "invalid CACHE_SCORE_THRESHOLD")
		return nil, err
	}

	corpusLimit, err := parseIntEnv("CORPUS_LIMIT", defaultCorpusLimit)
	if err != nil {
		log.Errorf(err, "invalid CORPUS_LIMIT")
		return nil, err
	}

	historyLimit, err := parseIntEnv("HISTORY_LIMIT", defaultHistoryLimit)
	if err != nil {
		log.Errorf(err, "invalid HISTORY_LIMIT")
		return nil, err
	}

	turnTimeout, err := parseDurationEnv("TURN_TIMEOUT", defaultTurnTimeout)
	if err != nil {
		log.Errorf(err, "invalid TURN_TIMEOUT")
		return nil, err
	}

	return &RetrievalCfg{
		CorpusScoreThreshold: float32(corpusThreshold),
		CorpusLimit:          uint64(corpusLimit),
		CacheScoreThreshold:  float32(cacheThreshold),
		HistoryLimit:         uint32(historyLimit),
		TurnTimeout:          turnTimeout,
	}, nil
}

func loadIngestCfg(log logger.Logger) (*IngestCfg, error) {
	const (
		defaultDatasetPath = "data/MovieLens-4489-256D.json"
		defaultWriters     = 3
		defaultPacing      = 200 * time.Millisecond
		defaultVectorize   = false
	)

	writers, err := parseIntEnv("INGEST_WRITERS", defaultWriters)
	if err != nil {
		log.Errorf(err, "invalid INGEST_WRITERS")
		return nil, err
	}

	pacing, err := parseDurationEnv("INGEST_WRITE_PACING", defaultPacing)
	if err != nil {
		log.Errorf(err, "invalid INGEST_WRITE_PACING")
		return nil, err
	}

	vectorize, err := strconv.ParseBool(getEnvOrDefault("INGEST_VECTORIZE", strconv.FormatBool(defaultVectorize)))
	if err != nil {
		log.Errorf(err, "invalid INGEST_VECTORIZE")
		return nil, err
	}

	return &IngestCfg{
		DatasetPath: getEnvOrDefault("DATASET_PATH", defaultDatasetPath),
		Vectorize:   vectorize,
		Writers:     writers,
		WritePacing: pacing,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	return strconv.Atoi(v)
}

func parseFloatEnv(key, defaultValue string) (float64, error) {
	return strconv.ParseFloat(getEnvOrDefault(key, defaultValue), 64)
}
