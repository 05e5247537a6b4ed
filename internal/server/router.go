package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sgs-online/sgs-server-go/internal/config"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"go.uber.org/zap"
)

// NewRouter builds the HTTP surface: the websocket endpoint, a health
// probe and the outstanding decision listing.
func NewRouter(cfg config.HTTPConfig, hub *Hub, manager *decision.Manager, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/ws", hub.ServeWS)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"players": hub.Players(),
		})
	})

	api := r.Group("/api")
	api.GET("/decisions", func(c *gin.Context) {
		out := manager.Outstanding()
		if out == nil {
			out = []decision.OutstandingDecision{}
		}
		c.JSON(http.StatusOK, gin.H{"decisions": out})
	})
	api.GET("/decisions/:player", func(c *gin.Context) {
		s, ok := manager.Session(c.Param("player"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no session"})
			return
		}
		snap, ok := s.Snapshot()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no decision outstanding"})
			return
		}
		frame, err := snapshotFrame(snap)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, frame)
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
