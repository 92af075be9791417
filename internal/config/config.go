// Package config loads the recognised configuration options from the
// environment and an optional file via viper, with defaults registered in
// code so the service runs sanely with none supplied.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config is the fully-resolved set of options spec §6 names.
type Config struct {
	GlobalTimer struct {
		Enabled        bool
		TimeoutSeconds float64
	}

	ChunksToLLM int

	DynamicChunking struct {
		PageThreshold            int
		DefaultChunksToLLM       int
		LargeDocumentChunksToLLM int
	}

	Chunking struct {
		Strategy string // "recursive" | "character-wise" | "page-wise"

		PageWise struct {
			PagesPerChunk int
		}
		CharacterWise struct {
			ChunkSize          int
			Overlap            int
			MinChunkSizeRatio  float64
		}
		Recursive struct {
			ChunkSize    int
			ChunkOverlap int
		}
	}

	EmbeddingBatch struct {
		Enabled   bool
		BatchSize int
	}

	EmbeddingTimeout         time.Duration
	QuestionEmbeddingTimeout time.Duration

	VectorSearch struct {
		UseHNSW        bool
		HNSWThreshold  int
		RecallFloor    float64
	}

	EnableLLMRacing bool

	TextExtraction struct {
		PDFMethod        string // "unpdf" | "python-pymupdf"
		FallbackEnabled  bool
		PythonService struct {
			URL     string
			Timeout time.Duration
		}
	}

	Security struct {
		PromptInjectionProtection struct {
			Enabled              bool
			StrictMode           bool
			MaxRiskScore         int
			PreserveUrls         bool
			BlockHighRiskRequests bool
		}
	}

	Streaming struct {
		BufferSize       int
		FlushInterval    time.Duration
		MaxConcurrency   int     // provider-level concurrency cap, spec §5 Backpressure
		LLMCallsPerSecond float64 // provider-level rate cap, spec §5 Backpressure
	}

	Providers struct {
		EmbeddingPrimaryURL   string
		EmbeddingPrimaryModel string
		EmbeddingSecondaryURL string

		LLMPrimaryURL     string
		LLMPrimaryModel   string
		AnthropicAPIKey   string
		AnthropicModel    string
	}

	Sidecars struct {
		PdfSidecarURL  string
		PptxSidecarURL string
		OCRURL         string
		WebContextURL  string
	}

	Server struct {
		Addr                 string
		MaxUploadBytes       int64
		MaxDownloadBytes     int64
		DebugEndpointsEnabled bool
	}

	Tracing struct {
		Enabled        bool
		OTLPEndpoint   string
		SampleRatio    float64
		ServiceName    string
	}
}

// Load reads configuration from environment variables (prefix DOCQA_,
// nested keys joined with underscores) and an optional file at path,
// falling back to defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	registerDefaults(v)

	v.SetEnvPrefix("DOCQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "config: reading %s", path)
		}
	}

	cfg := &Config{}
	cfg.GlobalTimer.Enabled = v.GetBool("globalTimer.enabled")
	cfg.GlobalTimer.TimeoutSeconds = v.GetFloat64("globalTimer.timeoutSeconds")

	cfg.ChunksToLLM = v.GetInt("chunksToLLM")

	cfg.DynamicChunking.PageThreshold = v.GetInt("dynamicChunking.pageThreshold")
	cfg.DynamicChunking.DefaultChunksToLLM = v.GetInt("dynamicChunking.defaultChunksToLLM")
	cfg.DynamicChunking.LargeDocumentChunksToLLM = v.GetInt("dynamicChunking.largeDocumentChunksToLLM")

	cfg.Chunking.Strategy = v.GetString("chunking.strategy")
	cfg.Chunking.PageWise.PagesPerChunk = v.GetInt("chunking.pageWise.pagesPerChunk")
	cfg.Chunking.CharacterWise.ChunkSize = v.GetInt("chunking.characterWise.chunkSize")
	cfg.Chunking.CharacterWise.Overlap = v.GetInt("chunking.characterWise.overlap")
	cfg.Chunking.CharacterWise.MinChunkSizeRatio = v.GetFloat64("chunking.characterWise.minChunkSizeRatio")
	cfg.Chunking.Recursive.ChunkSize = v.GetInt("chunking.recursive.chunkSize")
	cfg.Chunking.Recursive.ChunkOverlap = v.GetInt("chunking.recursive.chunkOverlap")

	cfg.EmbeddingBatch.Enabled = v.GetBool("embeddingBatch.enabled")
	cfg.EmbeddingBatch.BatchSize = v.GetInt("embeddingBatch.batchSize")

	cfg.EmbeddingTimeout = v.GetDuration("embeddingTimeout")
	cfg.QuestionEmbeddingTimeout = v.GetDuration("questionEmbeddingTimeout")

	cfg.VectorSearch.UseHNSW = v.GetBool("vectorSearch.useHNSW")
	cfg.VectorSearch.HNSWThreshold = v.GetInt("vectorSearch.hnswThreshold")
	cfg.VectorSearch.RecallFloor = v.GetFloat64("vectorSearch.recallFloor")

	cfg.EnableLLMRacing = v.GetBool("enableLLMRacing")

	cfg.TextExtraction.PDFMethod = v.GetString("textExtraction.pdfMethod")
	cfg.TextExtraction.FallbackEnabled = v.GetBool("textExtraction.fallbackEnabled")
	cfg.TextExtraction.PythonService.URL = v.GetString("textExtraction.pythonService.url")
	cfg.TextExtraction.PythonService.Timeout = v.GetDuration("textExtraction.pythonService.timeout")

	sp := &cfg.Security.PromptInjectionProtection
	sp.Enabled = v.GetBool("security.promptInjectionProtection.enabled")
	sp.StrictMode = v.GetBool("security.promptInjectionProtection.strictMode")
	sp.MaxRiskScore = v.GetInt("security.promptInjectionProtection.maxRiskScore")
	sp.PreserveUrls = v.GetBool("security.promptInjectionProtection.preserveUrls")
	sp.BlockHighRiskRequests = v.GetBool("security.promptInjectionProtection.blockHighRiskRequests")

	cfg.Streaming.BufferSize = v.GetInt("streaming.bufferSize")
	cfg.Streaming.FlushInterval = v.GetDuration("streaming.flushInterval")
	cfg.Streaming.MaxConcurrency = v.GetInt("streaming.maxConcurrency")
	cfg.Streaming.LLMCallsPerSecond = v.GetFloat64("streaming.llmCallsPerSecond")

	cfg.Providers.EmbeddingPrimaryURL = v.GetString("providers.embeddingPrimaryUrl")
	cfg.Providers.EmbeddingPrimaryModel = v.GetString("providers.embeddingPrimaryModel")
	cfg.Providers.EmbeddingSecondaryURL = v.GetString("providers.embeddingSecondaryUrl")
	cfg.Providers.LLMPrimaryURL = v.GetString("providers.llmPrimaryUrl")
	cfg.Providers.LLMPrimaryModel = v.GetString("providers.llmPrimaryModel")
	cfg.Providers.AnthropicAPIKey = v.GetString("providers.anthropicApiKey")
	cfg.Providers.AnthropicModel = v.GetString("providers.anthropicModel")

	cfg.Sidecars.PdfSidecarURL = v.GetString("sidecars.pdfSidecarUrl")
	cfg.Sidecars.PptxSidecarURL = v.GetString("sidecars.pptxSidecarUrl")
	cfg.Sidecars.OCRURL = v.GetString("sidecars.ocrUrl")
	cfg.Sidecars.WebContextURL = v.GetString("sidecars.webContextUrl")

	cfg.Server.Addr = v.GetString("server.addr")
	cfg.Server.MaxUploadBytes = v.GetInt64("server.maxUploadBytes")
	cfg.Server.MaxDownloadBytes = v.GetInt64("server.maxDownloadBytes")
	cfg.Server.DebugEndpointsEnabled = v.GetBool("server.debugEndpointsEnabled")

	cfg.Tracing.Enabled = v.GetBool("tracing.enabled")
	cfg.Tracing.OTLPEndpoint = v.GetString("tracing.otlpEndpoint")
	cfg.Tracing.SampleRatio = v.GetFloat64("tracing.sampleRatio")
	cfg.Tracing.ServiceName = v.GetString("tracing.serviceName")

	return cfg, nil
}

func registerDefaults(v *viper.Viper) {
	v.SetDefault("globalTimer.enabled", true)
	v.SetDefault("globalTimer.timeoutSeconds", 29.5)

	v.SetDefault("chunksToLLM", 8)
	v.SetDefault("dynamicChunking.pageThreshold", 50)
	v.SetDefault("dynamicChunking.defaultChunksToLLM", 8)
	v.SetDefault("dynamicChunking.largeDocumentChunksToLLM", 4)

	v.SetDefault("chunking.strategy", "page-wise")
	v.SetDefault("chunking.pageWise.pagesPerChunk", 1)
	v.SetDefault("chunking.characterWise.chunkSize", 1500)
	v.SetDefault("chunking.characterWise.overlap", 200)
	v.SetDefault("chunking.characterWise.minChunkSizeRatio", 0.5)
	v.SetDefault("chunking.recursive.chunkSize", 1500)
	v.SetDefault("chunking.recursive.chunkOverlap", 200)

	v.SetDefault("embeddingBatch.enabled", true)
	v.SetDefault("embeddingBatch.batchSize", 250)

	v.SetDefault("embeddingTimeout", 10*time.Second)
	v.SetDefault("questionEmbeddingTimeout", 5*time.Second)

	v.SetDefault("vectorSearch.useHNSW", false)
	v.SetDefault("vectorSearch.hnswThreshold", 5000)
	v.SetDefault("vectorSearch.recallFloor", 0.9)

	v.SetDefault("enableLLMRacing", false)

	v.SetDefault("textExtraction.pdfMethod", "unpdf")
	v.SetDefault("textExtraction.fallbackEnabled", true)
	v.SetDefault("textExtraction.pythonService.url", "")
	v.SetDefault("textExtraction.pythonService.timeout", 20*time.Second)

	v.SetDefault("security.promptInjectionProtection.enabled", true)
	v.SetDefault("security.promptInjectionProtection.strictMode", false)
	v.SetDefault("security.promptInjectionProtection.maxRiskScore", 40)
	v.SetDefault("security.promptInjectionProtection.preserveUrls", true)
	v.SetDefault("security.promptInjectionProtection.blockHighRiskRequests", false)

	v.SetDefault("streaming.bufferSize", 32)
	v.SetDefault("streaming.flushInterval", 150*time.Millisecond)
	v.SetDefault("streaming.maxConcurrency", 8)
	v.SetDefault("streaming.llmCallsPerSecond", 5.0)

	v.SetDefault("providers.embeddingPrimaryUrl", "http://localhost:11434")
	v.SetDefault("providers.embeddingPrimaryModel", "nomic-embed-text")
	v.SetDefault("providers.embeddingSecondaryUrl", "")
	v.SetDefault("providers.llmPrimaryUrl", "http://localhost:11434")
	v.SetDefault("providers.llmPrimaryModel", "llama3.1")
	v.SetDefault("providers.anthropicApiKey", "")
	v.SetDefault("providers.anthropicModel", "claude-3-5-sonnet-latest")

	v.SetDefault("sidecars.pdfSidecarUrl", "")
	v.SetDefault("sidecars.pptxSidecarUrl", "")
	v.SetDefault("sidecars.ocrUrl", "")
	v.SetDefault("sidecars.webContextUrl", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.maxUploadBytes", 50*1024*1024)
	v.SetDefault("server.maxDownloadBytes", int64(5000)*1024*1024)
	v.SetDefault("server.debugEndpointsEnabled", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlpEndpoint", "http://localhost:4318")
	v.SetDefault("tracing.sampleRatio", 0.2)
	v.SetDefault("tracing.serviceName", "docqa-engine")
}

// ClampTimeout returns the sub-timeout to use given the wanted one and the
// remaining request budget: want, capped at remaining; remaining when want
// is <= 0; 0 when no budget remains.
func ClampTimeout(want, remaining time.Duration) time.Duration {
	if remaining <= 0 {
		return 0
	}
	if want <= 0 || want > remaining {
		return remaining
	}
	return want
}
