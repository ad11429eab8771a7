package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/GoIngest/internal/config"
)

var once sync.Once
var client *http.Client

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// GetClient returns the shared pooled client used by the embedding adapters.
func GetClient() *http.Client {
	once.Do(func() {
		client = &http.Client{
			Transport: customTransport,
			Timeout:   config.EmbeddingTimeout,
		}
	})
	return client
}
