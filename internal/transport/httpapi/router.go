package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/facility-booking/internal/model"
)

type Deps struct {
	JWTSecret    []byte
	Users        RequesterResolver
	Bookings     BookingAPI
	Availability AvailabilityAPI
	Reports      ReportAPI
	Log          *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLog(d.Log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	bookings := NewBookingHandler(d.Bookings)
	availability := NewAvailabilityHandler(d.Availability)
	reports := NewReportHandler(d.Reports)

	v1 := r.Group("/v1", JWTAuth(d.JWTSecret, d.Users))
	{
		v1.GET("/facilities/:id/availability", availability.Get)

		v1.POST("/bookings", bookings.Create)
		v1.GET("/bookings", bookings.List)
		v1.GET("/bookings/:id", bookings.Get)
		v1.PATCH("/bookings/:id", bookings.Modify)
		v1.POST("/bookings/:id/cancel", bookings.Cancel)

		v1.GET("/provider/bookings", RequireRole(model.RoleProvider), bookings.ListForProvider)

		v1.GET("/reports/usage", RequireRole(model.RoleAdmin), reports.Usage)
	}
	return r
}

func requestLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
