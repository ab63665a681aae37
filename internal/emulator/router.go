package emulator

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// RouterDeps contains the router dependencies.
type RouterDeps struct {
	Store       Store
	NewRelicApp *newrelic.Application
}

// NewRouter creates a Gin router serving the supervisor API surface.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	handler := NewHandler(deps.Store)

	router.POST("/request-otp.php", handler.RequestOTP)
	router.POST("/verify-otp.php", handler.VerifyOTP)

	driver := router.Group("/driver")
	{
		driver.GET("/status.php", handler.Status)
		driver.POST("/start-duty.php", handler.StartDuty)
		driver.POST("/end-duty.php", handler.EndDuty)
	}

	return router
}
