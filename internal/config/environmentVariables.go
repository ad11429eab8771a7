package config

import (
	"time"
)

const (
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//worker pool
	MaxWorkerCount    int64 = 10
	MinWorkerCount    int64 = 1
	IdleWorkerTimeout       = 1 * time.Minute
	JobTimeout              = 10 * time.Minute

	//serverTimeouts
	ReadTimeout            = 30 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//job requests buffer limit
	BufferLimit = 100

	//32mb, same as the upload handler limit
	MaxUploadSize = 32 << 20

	//per page guard on pdf text extraction
	PageExtractTimeout = 10 * time.Second

	//vectorDB
	QdrantPoolSize    = 1 //2-5 is preferred for prod according to documentation
	MilvusShardNumber = 1

	//embedding http client pooling
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
	EmbeddingTimeout    = 60 * time.Second

	//redis has 16 DB we can use
	RedisJobStore = 0

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour
	RedisPingTimeout = 3 * time.Second
)

// defaults for Settings, overridden by the config file and the environment
const (
	defaultEmbeddingProvider = ProviderAzure
	defaultAzureAPIVersion   = "2023-05-15"
	defaultEmbeddingModel    = "text-embedding-ada-002"
	defaultEmbeddingDim      = 1536
	defaultMaxAttempts       = 1
	defaultRetryBaseDelay    = 1 * time.Second
	defaultRetryMaxDelay     = 30 * time.Second
	defaultConcurrency       = 1

	defaultIndexBackend = BackendQdrant
	defaultIndexName    = "documents"
	defaultQdrantHost   = "localhost"
	defaultQdrantPort   = 6334 //grpc
	defaultMilvusAddr   = "localhost:19530"

	defaultKafkaTopic   = "blob-created"
	defaultKafkaGroupID = "blob-ingest"

	redisHost        = "127.0.0.1"
	redisPort        = "6379"
	defaultRedisAddr = redisHost + ":" + redisPort

	defaultListenAddr = ":3000"
	defaultLogFormat  = "text"
	defaultLogLevel   = "debug"
)
