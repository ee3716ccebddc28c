package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"library-circulation-backend/config"
	"library-circulation-backend/internal/circulation"
	"library-circulation-backend/internal/metrics"
	"library-circulation-backend/internal/mw"
	"library-circulation-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. When m is not nil its
// registry is served on /metrics.
func NewRouter(e *circulation.Engine, s store.Store, webpushOptions *webpush.Options, m *metrics.Metrics, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()
	handler := NewHandler(e, s, webpushOptions, m)

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.InvalidateOnWrite(cacheStore))
	{
		api.GET("/titles", caching, handler.ListTitles)
		api.POST("/titles", handler.AddTitle)
		api.POST("/titles/:id/copies", handler.AddCopies)
		api.DELETE("/titles/:id", handler.ArchiveTitle)
		api.GET("/titles/:id/counts", handler.GetCounts)
		api.GET("/titles/:id/history", handler.GetTitleHistory)

		api.POST("/members", handler.RegisterMember)
		api.GET("/members/:id/requests", handler.GetMemberRequests)
		api.GET("/members/:id/history", handler.GetMemberHistory)
		api.GET("/members/:id/overview", handler.GetMemberOverview)
		api.PUT("/members/:id/subscriptions", handler.PutSubscription)
		api.DELETE("/members/:id/subscriptions", handler.DeleteSubscription)

		api.POST("/requests", handler.CreateRequest)
		api.DELETE("/requests/:id", handler.CancelRequest)
		api.POST("/requests/:id/issue", handler.IssueRequest)
		api.POST("/requests/:id/reject", handler.RejectRequest)
		api.POST("/requests/:id/return", handler.ReturnRequest)
		api.GET("/requests/:id/fine", handler.GetFine)

		api.GET("/overdue", handler.ListOverdue)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
