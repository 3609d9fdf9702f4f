// Package httpapi отдаёт ядро бронирований по HTTP через gin.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Leganyst/studio-booking/internal/idempotency"
	"github.com/Leganyst/studio-booking/internal/metrics"
	"github.com/Leganyst/studio-booking/internal/service"
)

type Services struct {
	Bookings      *service.BookingService
	Billings      *service.BillingService
	RoomPrices    *service.PriceTimeline
	UpgradePrices *service.PriceTimeline
	Tiers         *service.TierService
	Catalog       *service.CatalogService
	Export        *service.ExportService
}

type Options struct {
	Log         logrus.FieldLogger
	Metrics     *metrics.Metrics    // nil: без метрик запросов
	Gatherer    prometheus.Gatherer // источник для /metrics; при nil эндпоинта нет
	Idempotency idempotency.Store   // nil: заголовок Idempotency-Key игнорируется
	Limiter     *RateLimiter        // nil: без ограничения частоты
	Ping        func(context.Context) error
}

type Handler struct {
	svc Services
	log logrus.FieldLogger
}

// NewRouter собирает gin.Engine со всеми маршрутами.
func NewRouter(svc Services, opt Options) *gin.Engine {
	h := &Handler{svc: svc, log: opt.Log}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opt.Log))
	if opt.Metrics != nil {
		router.Use(instrument(opt.Metrics))
	}

	router.GET("/health", func(c *gin.Context) {
		if opt.Ping != nil {
			if err := opt.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opt.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opt.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("")
	if opt.Limiter != nil {
		api.Use(opt.Limiter.Limit())
	}

	// Бронирования
	bookings := api.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
		bookings.GET("/:id/quote", h.QuoteBooking)
	}

	// Локации и их каталоги
	locations := api.Group("/locations")
	{
		locations.GET("", h.ListLocations)
		locations.POST("", h.CreateLocation)
		locations.GET("/:id", h.GetLocation)
		locations.PUT("/:id", h.UpdateLocation)
		locations.GET("/:id/rooms", h.ListRooms)
		locations.POST("/:id/rooms", h.CreateRoom)
		locations.GET("/:id/providers", h.ListProviders)
		locations.POST("/:id/providers", h.CreateProvider)
		locations.GET("/:id/duration-options", h.ListDurationOptions)
		locations.POST("/:id/duration-options", h.CreateDurationOption)
	}

	rooms := api.Group("/rooms")
	{
		rooms.GET("/:id", h.GetRoom)
		rooms.PUT("/:id", h.UpdateRoom)
		rooms.DELETE("/:id", h.DeleteRoom)
		rooms.GET("/:id/free-slots", h.FreeSlots)
		registerPriceRoutes(rooms, svc.RoomPrices, h)
	}

	providers := api.Group("/providers")
	{
		providers.GET("/:id", h.GetProvider)
		providers.PUT("/:id", h.UpdateProvider)
		providers.DELETE("/:id", h.DeleteProvider)
		providers.GET("/:id/unbilled", h.UnbilledBookings)
	}

	durations := api.Group("/duration-options")
	{
		durations.PUT("/:id", h.UpdateDurationOption)
		durations.DELETE("/:id", h.DeleteDurationOption)
	}

	upgrades := api.Group("/upgrades")
	{
		upgrades.GET("", h.ListUpgrades)
		upgrades.POST("", h.CreateUpgrade)
		upgrades.GET("/:id", h.GetUpgrade)
		upgrades.PUT("/:id", h.UpdateUpgrade)
		upgrades.DELETE("/:id", h.DeleteUpgrade)
		registerPriceRoutes(upgrades, svc.UpgradePrices, h)
	}

	tiers := api.Group("/room-prices/:id/tiers")
	{
		tiers.GET("", h.ListTiers)
		tiers.POST("", h.CreateTiers)
		tiers.PUT("", h.UpdateTiers)
		tiers.DELETE("/:tierId", h.DeleteTier)
	}

	billings := api.Group("/billings")
	{
		billings.POST("", idempotent(opt.Idempotency, opt.Log), h.CreateBillings)
		billings.POST("/period", h.CreateBillingsForPeriod)
		billings.GET("", h.ListBillings)
		billings.GET("/:id", h.GetBilling)
		billings.GET("/:id/items", h.GetBillingItems)
		billings.GET("/:id/export", h.ExportBilling)
	}

	return router
}

// NewServer — http.Server с таймаутами для router.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ---- разбор параметров ----

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, name+" must be a UUID")
		return nil, false
	}
	return &id, true
}

// queryTime разбирает RFC3339; required требует наличия параметра.
func queryTime(c *gin.Context, name string, required bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			badRequest(c, name+" is required")
			return nil, false
		}
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, name+" must be an RFC3339 timestamp")
		return nil, false
	}
	return &t, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
