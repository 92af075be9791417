// Command docqa-server binds the §6 HTTP endpoints to the request
// coordinator, wiring every collaborator (extractors, chunker, embedding/LLM
// providers, sanitizer, deadline registry, OCR/web-context/sidecar clients)
// by constructor injection, matching the teacher's
// NewUnifiedRAGService/NewStreamingRAGService composition style.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/semaj90/docqa-engine/internal/chunk"
	"github.com/semaj90/docqa-engine/internal/config"
	"github.com/semaj90/docqa-engine/internal/coordinator"
	"github.com/semaj90/docqa-engine/internal/deadline"
	"github.com/semaj90/docqa-engine/internal/embedclient"
	"github.com/semaj90/docqa-engine/internal/extract"
	"github.com/semaj90/docqa-engine/internal/extract/docx"
	"github.com/semaj90/docqa-engine/internal/extract/email"
	"github.com/semaj90/docqa-engine/internal/extract/image"
	pdfextract "github.com/semaj90/docqa-engine/internal/extract/pdf"
	pptxextract "github.com/semaj90/docqa-engine/internal/extract/pptx"
	"github.com/semaj90/docqa-engine/internal/extract/xlsx"
	"github.com/semaj90/docqa-engine/internal/llmclient"
	"github.com/semaj90/docqa-engine/internal/logging"
	"github.com/semaj90/docqa-engine/internal/ocr"
	"github.com/semaj90/docqa-engine/internal/pdfsidecar"
	"github.com/semaj90/docqa-engine/internal/pptxsidecar"
	"github.com/semaj90/docqa-engine/internal/qa"
	"github.com/semaj90/docqa-engine/internal/telemetry"
	"github.com/semaj90/docqa-engine/internal/vectorindex"
	"github.com/semaj90/docqa-engine/internal/webcontext"
)

func main() {
	cfg, err := config.Load(os.Getenv("DOCQA_CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	log, err := logging.New(os.Getenv("DOCQA_ENV") != "production")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	metrics := telemetry.NewMetrics()

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracing(context.Background(), log, telemetry.TracingOptions{
			ServiceName:  cfg.Tracing.ServiceName,
			OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
			SampleRatio:  cfg.Tracing.SampleRatio,
		})
		if err != nil {
			log.Warn("tracing init failed, continuing without it", zap.Error(err))
		} else {
			defer shutdown(context.Background())
		}
	}

	co := buildCoordinator(cfg, log, metrics)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	if cfg.Server.DebugEndpointsEnabled {
		router.GET("/api/v1/debug/memory", func(c *gin.Context) {
			c.JSON(http.StatusOK, co.LastMemoryReport())
		})
	}

	v1 := router.Group("/api/v1")
	v1.POST("/hackrx/run", hackrxHandler(co))
	v1.POST("/process-pdf", processPDFHandler(co, cfg.Server.MaxUploadBytes))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Info("docqa-server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// buildCoordinator wires every collaborator spec §6/§9 names by constructor
// injection, resolving providers/strategies from cfg.
func buildCoordinator(cfg *config.Config, log *zap.Logger, metrics *telemetry.Metrics) *coordinator.Coordinator {
	embedPrimary := embedclient.NewOllamaProvider(cfg.Providers.EmbeddingPrimaryURL, cfg.Providers.EmbeddingPrimaryModel, cfg.EmbeddingTimeout)
	var embedSecondary embedclient.Provider
	if cfg.Providers.EmbeddingSecondaryURL != "" {
		embedSecondary = embedclient.NewOllamaProvider(cfg.Providers.EmbeddingSecondaryURL, cfg.Providers.EmbeddingPrimaryModel, cfg.EmbeddingTimeout)
	}
	embedClient := embedclient.New(embedPrimary, embedSecondary, cfg.EmbeddingBatch.BatchSize)

	llmPrimary := llmclient.NewOllamaProvider(cfg.Providers.LLMPrimaryURL, cfg.Providers.LLMPrimaryModel)
	var anthropicProvider llmclient.Provider
	var llmSecondary llmclient.Provider
	if cfg.Providers.AnthropicAPIKey != "" || cfg.EnableLLMRacing {
		anthropicProvider = llmclient.NewAnthropicProvider(cfg.Providers.AnthropicAPIKey, sdk.Model(cfg.Providers.AnthropicModel))
		llmSecondary = anthropicProvider
	}

	ocrClient := ocr.New(cfg.Sidecars.OCRURL, cfg.TextExtraction.PythonService.Timeout)
	pdfSidecar := pdfsidecar.New(cfg.Sidecars.PdfSidecarURL, cfg.TextExtraction.PythonService.Timeout)
	pptxSidecar := pptxsidecar.New(cfg.Sidecars.PptxSidecarURL, cfg.TextExtraction.PythonService.Timeout)

	dispatcher := &extract.Dispatcher{
		PDF: &extract.PDFPolicy{
			Native:          pdfextract.Native{},
			Sidecar:         pdfSidecar,
			PreferSidecar:   cfg.TextExtraction.PDFMethod == "python-pymupdf",
			FallbackEnabled: cfg.TextExtraction.FallbackEnabled,
		},
		DOCX: docx.Extractor{},
		XLSX: xlsx.Extractor{},
		PPTX: &extract.PPTXPolicy{
			Native:          pptxextract.Extractor{},
			Sidecar:         pptxSidecar,
			PreferSidecar:   false,
			FallbackEnabled: cfg.TextExtraction.FallbackEnabled,
		},
		Email: email.Extractor{},
		Image: image.Extractor{OCR: ocrClient},
		Sanitize: extract.SanitizeOptions{
			Enabled:      cfg.Security.PromptInjectionProtection.Enabled,
			Strict:       cfg.Security.PromptInjectionProtection.StrictMode,
			PreserveUrls: cfg.Security.PromptInjectionProtection.PreserveUrls,
		},
	}

	var limiter *rate.Limiter
	if cfg.Streaming.LLMCallsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Streaming.LLMCallsPerSecond), cfg.Streaming.MaxConcurrency)
	}

	orchestrator := &qa.Orchestrator{
		Primary:        llmPrimary,
		Secondary:      llmSecondary,
		EnableRacing:   cfg.EnableLLMRacing,
		MaxConcurrency: cfg.Streaming.MaxConcurrency,
		FlushInterval:  cfg.Streaming.FlushInterval,
		Limiter:        limiter,
		Logger:         log,
		Metrics:        metrics,
	}

	var xlsxOrchestrator *qa.Orchestrator
	if anthropicProvider != nil {
		xlsxOrchestrator = &qa.Orchestrator{
			Primary:        anthropicProvider,
			MaxConcurrency: cfg.Streaming.MaxConcurrency,
			FlushInterval:  cfg.Streaming.FlushInterval,
			Limiter:        limiter,
			Logger:         log,
			Metrics:        metrics,
		}
	}

	return &coordinator.Coordinator{
		Opts: coordinator.Options{
			GlobalTimerEnabled:   cfg.GlobalTimer.Enabled,
			GlobalTimeoutSeconds: cfg.GlobalTimer.TimeoutSeconds,
			MaxDownloadBytes:     cfg.Server.MaxDownloadBytes,
			ChunkConfig: chunk.Config{
				Strategy:              chunk.Name(cfg.Chunking.Strategy),
				PagesPerChunk:         cfg.Chunking.PageWise.PagesPerChunk,
				ChunkSize:             cfg.Chunking.CharacterWise.ChunkSize,
				Overlap:               cfg.Chunking.CharacterWise.Overlap,
				MinChunkSizeRatio:     cfg.Chunking.CharacterWise.MinChunkSizeRatio,
				RecursiveChunkSize:    cfg.Chunking.Recursive.ChunkSize,
				RecursiveChunkOverlap: cfg.Chunking.Recursive.ChunkOverlap,
			},
			KKPageThreshold:       cfg.DynamicChunking.PageThreshold,
			KDefault:              cfg.DynamicChunking.DefaultChunksToLLM,
			KLarge:                cfg.DynamicChunking.LargeDocumentChunksToLLM,
			SanitizerEnabled:      cfg.Security.PromptInjectionProtection.Enabled,
			SanitizerStrict:       cfg.Security.PromptInjectionProtection.StrictMode,
			SanitizerPreserveURLs: cfg.Security.PromptInjectionProtection.PreserveUrls,
			EmbeddingEnabled:      cfg.EmbeddingBatch.Enabled,
			VectorIndex:           vectorindex.Builder{UseHNSW: cfg.VectorSearch.UseHNSW, HNSWThreshold: cfg.VectorSearch.HNSWThreshold},
			SmallDocPageLimit:     5,
		},
		Registry:         deadline.NewRegistry(),
		Dispatcher:       dispatcher,
		EmbedClient:      embedClient,
		Orchestrator:     orchestrator,
		XLSXOrchestrator: xlsxOrchestrator,
		WebContext:       webcontext.New(cfg.Sidecars.WebContextURL, 20*time.Second),
		Downloader:       coordinator.NewDownloader(0),
		Logger:           log,
		Metrics:          metrics,
	}
}
