package router

import (
	"github.com/gin-gonic/gin"

	"github.com/hqride/clinical-summarizer/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	summaryHandler := handler.NewSummaryHandler(deps)

	// Health check endpoint
	r.GET("/health", summaryHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		summaries := v1.Group("/summaries")
		{
			// POST /api/v1/summaries - Submit a summarization job
			summaries.POST("", summaryHandler.SubmitSummary)

			// GET /api/v1/summaries/:job_id - Poll job status and result
			summaries.GET("/:job_id", summaryHandler.GetSummary)

			// GET /api/v1/summaries/:job_id/fhir - Completed summary as FHIR
			summaries.GET("/:job_id/fhir", summaryHandler.GetSummaryFHIR)
		}

		// GET /api/v1/jobs - List archived terminal jobs
		v1.GET("/jobs", summaryHandler.ListHistory)
	}

	return r
}
