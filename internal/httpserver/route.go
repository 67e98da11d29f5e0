package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/logging"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/middleware/auth"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/middleware/ratelimit"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	SweetsHandler *SweetsHTTP
	Gate          *auth.Authenticator
	DB            *gorm.DB
	AuthRateRPS   float64
	AuthRateBurst int
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	api := e.Group("/api")

	limited := ratelimit.PerIP(d.AuthRateRPS, d.AuthRateBurst)
	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register, limited)
	authGroup.POST("/login", d.AuthHandler.Login, limited)
	authGroup.GET("/me", d.AuthHandler.Me, d.Gate.RequireAuth)

	sweets := api.Group("/sweets", d.Gate.RequireAuth)
	sweets.GET("", d.SweetsHandler.ListSweets)
	sweets.GET("/search", d.SweetsHandler.ListSweets)
	sweets.GET("/:id", d.SweetsHandler.GetSweet)
	sweets.POST("/:id/purchase", d.SweetsHandler.PurchaseSweet)

	admin := sweets.Group("", auth.RequireAdmin)
	admin.POST("", d.SweetsHandler.CreateSweet)
	admin.PUT("/:id", d.SweetsHandler.UpdateSweet)
	admin.PATCH("/:id", d.SweetsHandler.UpdateSweet)
	admin.DELETE("/:id", d.SweetsHandler.DeleteSweet)
	admin.POST("/:id/restock", d.SweetsHandler.RestockSweet)
}

func (d *Deps) ready(c echo.Context) error {
	if d.DB == nil {
		return c.NoContent(http.StatusOK)
	}
	sqlDB, err := d.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("ready_check_failed", "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
