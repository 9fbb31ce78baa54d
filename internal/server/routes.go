package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/actions/recent", h.RecentActions)
	v1.PUT("/actions/:kind/pause", h.ActionPause)

	// Wallet session
	walletGroup := v1.Group("/wallet")
	walletGroup.GET("", h.Wallet)
	walletGroup.POST("/connect", h.WalletConnect)
	walletGroup.POST("/disconnect", h.WalletDisconnect)

	// Farms: reads, estimates and the five mutating actions
	farmGroup := v1.Group("/farms")
	farmGroup.GET("", h.FarmsList)
	farmGroup.GET("/:id", h.FarmGet)
	farmGroup.POST("/:id/refresh", h.FarmRefresh)
	farmGroup.GET("/:id/estimate", h.FarmEstimate)
	farmGroup.POST("/:id/link", h.FarmLink)
	farmGroup.GET("/:id/max", h.FarmMax)
	farmGroup.GET("/:id/withdraw-max", h.FarmWithdrawMax)
	farmGroup.GET("/:id/actions", h.FarmActions)
	farmGroup.GET("/:id/history", h.FarmHistory)
	farmGroup.POST("/:id/deposit", h.FarmDeposit)
	farmGroup.POST("/:id/withdraw", h.FarmWithdraw)
	farmGroup.POST("/:id/harvest", h.FarmHarvest)
	farmGroup.POST("/:id/stake", h.FarmStake)
	farmGroup.POST("/:id/remove-liquidity", h.FarmRemoveLiquidity)

	// AI endpoints with rate limiting
	aigroup := v1.Group("/ai")
	aigroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2), // 1 request every 5 seconds
		Burst:     2,
		ExpiresIn: 2 * time.Minute,
	})))
	aigroup.POST("/ask", h.AIAsk)

	// Feature flags CRUD endpoints
	flagGroup := v1.Group("/flags")
	flagGroup.GET("", h.FlagsList)
	flagGroup.POST("", h.FlagsUpsert)
	flagGroup.GET("/:key", h.FlagsGet)
	flagGroup.PUT("/:key", h.FlagsUpdate)
	flagGroup.DELETE("/:key", h.FlagsDelete)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
