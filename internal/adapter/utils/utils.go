package utils

import (
	"context"
	"net/http"
	"sync"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var once sync.Once
var router *chi.Mux

func GetNewUUID() string {
	return uuid.New().String()
}

// GetTraceId returns the trace id stored by the trace middleware or the worker,
// or "" for contexts that never went through either.
func GetTraceId(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return id
}

type RouterClient struct {
	Router *chi.Mux
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

func GetRouter() RouterClient {
	once.Do(func() {
		router = chi.NewRouter()
		//register prometheus
		router.Handle("/metrics", promhttp.Handler())
	})

	return RouterClient{Router: router}
}
