package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrConfig marks settings that make the process unable to start.
var ErrConfig = errors.New("invalid configuration")

const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"

	BackendQdrant = "qdrant"
	BackendMilvus = "milvus"
)

// Settings is read once at process start and handed to every constructor.
// Nothing re-reads the environment after Load returns.
type Settings struct {
	Embedding EmbeddingSettings `toml:"embedding"`
	Index     IndexSettings     `toml:"index"`
	Blob      BlobSettings      `toml:"blob"`
	Kafka     KafkaSettings     `toml:"kafka"`
	Redis     RedisSettings     `toml:"redis"`
	Server    ServerSettings    `toml:"server"`
	Log       LogSettings       `toml:"log"`
}

type EmbeddingSettings struct {
	Provider        string   `toml:"provider"`
	AzureEndpoint   string   `toml:"azure_endpoint"`
	AzureKey        string   `toml:"azure_key"`
	AzureAPIVersion string   `toml:"azure_api_version"`
	OpenAIKey       string   `toml:"openai_key"`
	OpenAIBaseURL   string   `toml:"openai_base_url"`
	GoogleAPIKey    string   `toml:"google_api_key"`
	Model           string   `toml:"model"`
	Dimension       int      `toml:"dimension"`
	MaxAttempts     int      `toml:"max_attempts"`
	RetryBaseDelay  Duration `toml:"retry_base_delay"`
	RetryMaxDelay   Duration `toml:"retry_max_delay"`
	Concurrency     int      `toml:"concurrency"`
	RateLimit       float64  `toml:"rate_limit"`
}

// Duration reads "1s" style strings from the config file.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type IndexSettings struct {
	Backend      string `toml:"backend"`
	Name         string `toml:"name"`
	QdrantHost   string `toml:"qdrant_host"`
	QdrantPort   int    `toml:"qdrant_port"`
	QdrantAPIKey string `toml:"qdrant_api_key"`
	QdrantUseTLS bool   `toml:"qdrant_use_tls"`
	MilvusAddr   string `toml:"milvus_addr"`
	MilvusAPIKey string `toml:"milvus_api_key"`
}

type BlobSettings struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

type KafkaSettings struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
	GroupID string   `toml:"group_id"`
}

type RedisSettings struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
}

type ServerSettings struct {
	ListenAddr   string `toml:"listen_addr"`
	AuthToken    string `toml:"auth_token"`
	NoAuthBypass bool   `toml:"no_auth_bypass"`
}

type LogSettings struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// BlobEnabled reports whether object storage credentials were supplied.
func (s Settings) BlobEnabled() bool {
	return s.Blob.Endpoint != ""
}

// EventsEnabled reports whether the kafka trigger should run.
func (s Settings) EventsEnabled() bool {
	return len(s.Kafka.Brokers) > 0
}

func defaults() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:        defaultEmbeddingProvider,
			AzureAPIVersion: defaultAzureAPIVersion,
			Model:           defaultEmbeddingModel,
			Dimension:       defaultEmbeddingDim,
			MaxAttempts:     defaultMaxAttempts,
			RetryBaseDelay:  Duration(defaultRetryBaseDelay),
			RetryMaxDelay:   Duration(defaultRetryMaxDelay),
			Concurrency:     defaultConcurrency,
		},
		Index: IndexSettings{
			Backend:    defaultIndexBackend,
			Name:       defaultIndexName,
			QdrantHost: defaultQdrantHost,
			QdrantPort: defaultQdrantPort,
			MilvusAddr: defaultMilvusAddr,
		},
		Kafka: KafkaSettings{
			Topic:   defaultKafkaTopic,
			GroupID: defaultKafkaGroupID,
		},
		Redis:  RedisSettings{Addr: defaultRedisAddr},
		Server: ServerSettings{ListenAddr: defaultListenAddr},
		Log:    LogSettings{Format: defaultLogFormat, Level: defaultLogLevel},
	}
}

// Load builds Settings from defaults, then the optional TOML file named by
// INGEST_CONFIG_FILE, then environment variables.
func Load() (Settings, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Settings, error) {
	s := defaults()

	if path, ok := lookup("INGEST_CONFIG_FILE"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("%w: reading %s: %w", ErrConfig, path, err)
		}
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("%w: parsing %s: %w", ErrConfig, path, err)
		}
	}

	env := envReader{lookup: lookup}
	env.str("EMBEDDING_PROVIDER", &s.Embedding.Provider)
	env.str("AZURE_OPENAI_ENDPOINT", &s.Embedding.AzureEndpoint)
	env.str("AZURE_OPENAI_KEY", &s.Embedding.AzureKey)
	env.str("AZURE_OPENAI_API_VERSION", &s.Embedding.AzureAPIVersion)
	env.str("OPENAI_API_KEY", &s.Embedding.OpenAIKey)
	env.str("OPENAI_BASE_URL", &s.Embedding.OpenAIBaseURL)
	env.str("GOOGLE_API_KEY", &s.Embedding.GoogleAPIKey)
	env.str("EMBEDDING_MODEL", &s.Embedding.Model)
	env.integer("EMBEDDING_DIMENSION", &s.Embedding.Dimension)
	env.integer("EMBEDDING_MAX_ATTEMPTS", &s.Embedding.MaxAttempts)
	env.duration("EMBEDDING_RETRY_BASE_DELAY", &s.Embedding.RetryBaseDelay)
	env.duration("EMBEDDING_RETRY_MAX_DELAY", &s.Embedding.RetryMaxDelay)
	env.integer("EMBEDDING_CONCURRENCY", &s.Embedding.Concurrency)
	env.float("EMBEDDING_RATE_LIMIT", &s.Embedding.RateLimit)

	env.str("INDEX_BACKEND", &s.Index.Backend)
	env.str("SEARCH_INDEX", &s.Index.Name)
	env.str("QDRANT_HOST", &s.Index.QdrantHost)
	env.integer("QDRANT_PORT", &s.Index.QdrantPort)
	env.str("QDRANT_API_KEY", &s.Index.QdrantAPIKey)
	env.boolean("QDRANT_USE_TLS", &s.Index.QdrantUseTLS)
	env.str("MILVUS_ADDR", &s.Index.MilvusAddr)
	env.str("MILVUS_API_KEY", &s.Index.MilvusAPIKey)

	env.str("MINIO_ENDPOINT", &s.Blob.Endpoint)
	env.str("MINIO_ACCESS_KEY", &s.Blob.AccessKey)
	env.str("MINIO_SECRET_KEY", &s.Blob.SecretKey)
	env.boolean("MINIO_USE_SSL", &s.Blob.UseSSL)

	env.list("KAFKA_BROKERS", &s.Kafka.Brokers)
	env.str("KAFKA_TOPIC", &s.Kafka.Topic)
	env.str("KAFKA_GROUP_ID", &s.Kafka.GroupID)

	env.str("REDIS_ADDR", &s.Redis.Addr)
	env.str("REDIS_PASSWORD", &s.Redis.Password)

	env.str("LISTEN_ADDR", &s.Server.ListenAddr)
	env.str("AUTH_TOKEN", &s.Server.AuthToken)
	env.boolean("NO_AUTH_BYPASS", &s.Server.NoAuthBypass)

	env.str("LOG_FORMAT", &s.Log.Format)
	env.str("LOG_LEVEL", &s.Log.Level)

	if env.err != nil {
		return s, env.err
	}
	return s, s.Validate()
}

// Validate reports every missing or inconsistent setting at once.
func (s Settings) Validate() error {
	var problems []string

	e := s.Embedding
	switch strings.ToLower(e.Provider) {
	case ProviderAzure:
		if e.AzureEndpoint == "" || e.AzureKey == "" {
			problems = append(problems, "AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY are required for the azure provider")
		}
		if e.AzureAPIVersion == "" {
			problems = append(problems, "AZURE_OPENAI_API_VERSION is empty")
		}
	case ProviderOpenAI:
		if e.OpenAIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGoogle:
		if e.GoogleAPIKey == "" {
			problems = append(problems, "GOOGLE_API_KEY is required for the google provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown embedding provider %q", e.Provider))
	}
	if e.Model == "" {
		problems = append(problems, "EMBEDDING_MODEL is empty")
	}
	if e.Dimension <= 0 {
		problems = append(problems, "EMBEDDING_DIMENSION must be positive")
	}
	if e.MaxAttempts < 1 {
		problems = append(problems, "EMBEDDING_MAX_ATTEMPTS must be at least 1")
	}
	if e.Concurrency < 1 {
		problems = append(problems, "EMBEDDING_CONCURRENCY must be at least 1")
	}
	if e.RateLimit < 0 {
		problems = append(problems, "EMBEDDING_RATE_LIMIT cannot be negative")
	}

	switch strings.ToLower(s.Index.Backend) {
	case BackendQdrant, BackendMilvus:
	default:
		problems = append(problems, fmt.Sprintf("unknown index backend %q", s.Index.Backend))
	}
	if s.Index.Name == "" {
		problems = append(problems, "SEARCH_INDEX is empty")
	}

	if s.EventsEnabled() {
		if !s.BlobEnabled() {
			problems = append(problems, "KAFKA_BROKERS is set but MINIO_ENDPOINT is not: event jobs need a blob store")
		}
		if s.Kafka.Topic == "" {
			problems = append(problems, "KAFKA_TOPIC is empty")
		}
	}

	if !s.Server.NoAuthBypass && s.Server.AuthToken == "" {
		problems = append(problems, "AUTH_TOKEN is required unless NO_AUTH_BYPASS is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s=%q: %w", ErrConfig, key, value, err)
	}
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	if v, ok := r.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (r *envReader) float(key string, dst *float64) {
	if v, ok := r.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	if v, ok := r.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (r *envReader) duration(key string, dst *Duration) {
	if v, ok := r.get(key); ok {
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			r.fail(key, v, err)
		}
	}
}

func (r *envReader) list(key string, dst *[]string) {
	if v, ok := r.get(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
