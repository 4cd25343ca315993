package main

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbeacon/internal/config"
	"mailbeacon/internal/dnsresolve"
	"mailbeacon/internal/handler"
	"mailbeacon/internal/httpclient"
	"mailbeacon/internal/orchestrator"
	"mailbeacon/internal/processor"
	"mailbeacon/internal/scraper"
	"mailbeacon/internal/smtpverify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger, err := cfg.GetLogger()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting mailbeacon service",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	emailRegex, err := regexp.Compile(cfg.EmailRegexPattern)
	if err != nil {
		logger.Fatal("invalid email_regex_pattern", zap.Error(err))
	}

	client := httpclient.New(cfg.RequestTimeout, cfg.MaxRedirects)

	resolver := dnsresolve.New(cfg.DNSServers, cfg.DNSTimeout)

	webScraper := &scraper.Scraper{
		Client:      client,
		Logger:      logger,
		UserAgent:   cfg.UserAgent,
		CommonPages: cfg.CommonPagesToScrape,
		MinSleep:    cfg.MinSleepBetween,
		MaxSleep:    cfg.MaxSleepBetween,
		EmailRegex:  emailRegex,
	}

	verifier := &smtpverify.Verifier{
		Resolver:    resolver,
		HeloName:    cfg.SMTPHeloName,
		SenderEmail: cfg.SMTPSenderEmail,
		Timeout:     cfg.SMTPTimeout,
		MaxAttempts: cfg.MaxVerificationAttempts,
		MinSleep:    cfg.MinSleepBetween,
		MaxSleep:    cfg.MaxSleepBetween,
		Logger:      logger,
	}

	genericPrefixes := make(map[string]bool, len(cfg.GenericEmailPrefixes))
	for _, p := range cfg.GenericEmailPrefixes {
		genericPrefixes[p] = true
	}

	disco := &orchestrator.Orchestrator{
		Scraper:                 webScraper,
		Verifier:                verifier,
		Logger:                  logger,
		EmailRegex:              emailRegex,
		GenericPrefixes:         genericPrefixes,
		ConfidenceThreshold:     cfg.ConfidenceThreshold,
		GenericConfidenceThresh: cfg.GenericConfidenceThreshold,
		MinSleep:                cfg.MinSleepBetween,
		MaxSleep:                cfg.MaxSleepBetween,
	}

	proc := &processor.Processor{
		Discoverer:      disco,
		Logger:          logger,
		MaxAlternatives: cfg.MaxAlternatives,
	}

	h := &handler.Handler{
		Processor:      proc,
		Logger:         logger,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	router := setupRouter(h, logger, cfg)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}

func setupRouter(h *handler.Handler, logger *zap.Logger, cfg *config.Config) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/find-single", h.FindSingle)
		v1.POST("/find-batch", h.FindBatch)
	}

	return router
}

func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
