package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqride/clinical-summarizer/internal/api/handler"
	"github.com/hqride/clinical-summarizer/internal/dispatch"
	"github.com/hqride/clinical-summarizer/internal/domain"
	"github.com/hqride/clinical-summarizer/internal/store"
	"github.com/hqride/clinical-summarizer/shared/logger"
)

type noopSubmitter struct{}

func (noopSubmitter) Submit(context.Context, string, string) (*domain.Job, error) {
	return nil, domain.ErrInvalidInput
}

type noopQuerier struct{}

func (noopQuerier) Query(context.Context, string) (*dispatch.Snapshot, error) {
	return nil, domain.ErrJobNotFound
}

type upQueue struct{}

func (upQueue) Connected() bool { return true }

func newDeps(t *testing.T) *handler.Dependencies {
	t.Helper()
	return &handler.Dependencies{
		Logger:    logger.NewDefault().Logger,
		Submitter: noopSubmitter{},
		Querier:   noopQuerier{},
		Store:     store.NewMemoryJobStore(0),
		Queue:     upQueue{},
	}
}

func TestSetupRouter_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(newDeps(t))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodPost, "/api/v1/summaries", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/summaries/not-a-uuid", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/summaries/not-a-uuid/fhir", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/jobs", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSetupRouter_CORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(newDeps(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/summaries", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
