package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kusumaprabha/UltraShip/controller"
	"github.com/kusumaprabha/UltraShip/embedding"
	"github.com/kusumaprabha/UltraShip/llm"
	"github.com/kusumaprabha/UltraShip/models"
	"github.com/kusumaprabha/UltraShip/services"
	"github.com/kusumaprabha/UltraShip/vectorstore/chroma"
	"github.com/kusumaprabha/UltraShip/vectorstore/memory"
	"github.com/kusumaprabha/UltraShip/vectorstore/milvus"
)

// Config gathers the process configuration from the environment. Every
// value has a code default; .env is loaded first when present.
type Config struct {
	Port            string
	UploadDir       string
	WatchDir        string
	Embedder        string
	OllamaURL       string
	OllamaModel     string
	VectorBackend   string
	ChromaURL       string
	MilvusAddr      string
	Generator       string
	GroqAPIKey      string
	GroqModel       string
	GeminiAPIKey    string
	GeminiModel     string
	MaxTokens       int
	Temperature     float64
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	return Config{
		Port:            envOr("PORT", "8080"),
		UploadDir:       envOr("UPLOAD_DIR", "./uploads"),
		WatchDir:        os.Getenv("WATCH_DIR"),
		Embedder:        envOr("EMBEDDER", "ollama"),
		OllamaURL:       envOr("OLLAMA_URL", embedding.DefaultOllamaURL),
		OllamaModel:     envOr("OLLAMA_EMBED_MODEL", embedding.DefaultOllamaModel),
		VectorBackend:   envOr("VECTOR_BACKEND", "memory"),
		ChromaURL:       os.Getenv("CHROMA_URL"),
		MilvusAddr:      envOr("MILVUS_ADDR", "localhost:19530"),
		Generator:       envOr("GENERATOR", "none"),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		GroqModel:       os.Getenv("GROQ_MODEL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		MaxTokens:       envIntOr("MAX_TOKENS", 1024),
		Temperature:     envFloatOr("TEMPERATURE", 0.1),
		EmbedTimeout:    time.Duration(envIntOr("EMBED_TIMEOUT_SECONDS", 30)) * time.Second,
		GenerateTimeout: time.Duration(envIntOr("GENERATE_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	embedder := buildEmbedder(cfg)
	log.Printf("Using embedder: %s", embedder.Name())

	vectorIndex := buildVectorIndex(ctx, cfg)
	defer func() {
		if err := vectorIndex.Close(); err != nil {
			log.Printf("Warning: failed to close vector index: %v", err)
		}
	}()

	generator := buildGenerator(ctx, cfg)
	generatorName := "none (fallback extraction)"
	if generator != nil {
		generatorName = generator.Name()
	}
	log.Printf("Using generator: %s", generatorName)

	chunker, err := services.NewChunker()
	if err != nil {
		log.Fatalf("FATAL: invalid chunker configuration: %v", err)
	}
	indexer := services.NewIndexer(embedder, vectorIndex, services.WithEmbedTimeout(cfg.EmbedTimeout))
	retriever := services.NewRetriever(embedder, indexer, services.WithQueryTimeout(cfg.EmbedTimeout))
	confidence := services.NewConfidenceEngine()
	gate := services.NewGuardrailGate()

	pipelineOpts := []services.PipelineOption{services.WithGenerateTimeout(cfg.GenerateTimeout)}
	structuredOpts := []services.StructuredOption{services.WithExtractionTimeout(cfg.GenerateTimeout)}
	if generator != nil {
		pipelineOpts = append(pipelineOpts, services.WithGenerator(generator))
		structuredOpts = append(structuredOpts, services.WithExtractionGenerator(generator))
	}
	pipeline := services.NewAnswerPipeline(retriever, confidence, gate, pipelineOpts...)
	structured := services.NewStructuredExtractor(structuredOpts...)

	fileActions, err := services.NewFileActions(cfg.UploadDir)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	docService := services.NewDocService(
		services.NewFileExtractor(), chunker, indexer, pipeline, structured,
		fileActions, embedder.Name(), generatorName,
	)

	if cfg.WatchDir != "" {
		watcher := services.NewWatcher(cfg.WatchDir, docService)
		go func() {
			watcher.ScanAndIndex(ctx)
			if err := watcher.Watch(ctx); err != nil {
				log.Printf("WATCHER: stopped: %v", err)
			}
		}()
	}

	docController := controller.NewDocController(docService)
	router := setupRouter(docController)

	log.Printf("UltraShip doc intelligence server starting on http://localhost:%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

func setupRouter(docController *controller.DocController) *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Request-id middleware: every response carries an id for correlating
	// logs with calls.
	router.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Next()
	})

	router.GET("/health", docController.Health)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/documents", docController.Upload)
		apiV1.GET("/documents", docController.ListDocuments)
		apiV1.DELETE("/documents/:id", docController.DeleteDocument)
		apiV1.POST("/ask", docController.Ask)
		apiV1.POST("/extract", docController.ExtractFields)
	}
	return router
}

func buildEmbedder(cfg Config) models.Embedder {
	switch cfg.Embedder {
	case "hash":
		return embedding.NewHashEmbedder(0)
	case "ollama":
		return embedding.NewOllamaEmbedder(
			embedding.WithBaseURL(cfg.OllamaURL),
			embedding.WithModel(cfg.OllamaModel),
			embedding.WithHTTPClient(&http.Client{Timeout: cfg.EmbedTimeout}),
		)
	default:
		log.Fatalf("FATAL: unknown EMBEDDER %q (want ollama or hash)", cfg.Embedder)
		return nil
	}
}

func buildVectorIndex(ctx context.Context, cfg Config) models.VectorIndex {
	switch cfg.VectorBackend {
	case "memory":
		return memory.New()
	case "chroma":
		index, err := chroma.New(cfg.ChromaURL, "")
		if err != nil {
			log.Fatalf("FATAL: failed to connect to chroma: %v", err)
		}
		return index
	case "milvus":
		index, err := milvus.New(ctx, cfg.MilvusAddr, "")
		if err != nil {
			log.Fatalf("FATAL: failed to connect to milvus: %v", err)
		}
		return index
	default:
		log.Fatalf("FATAL: unknown VECTOR_BACKEND %q (want memory, chroma, or milvus)", cfg.VectorBackend)
		return nil
	}
}

func buildGenerator(ctx context.Context, cfg Config) models.Generator {
	switch cfg.Generator {
	case "none", "":
		return nil
	case "groq":
		gen, err := llm.NewGroqGenerator(cfg.GroqAPIKey,
			llm.WithGroqModel(cfg.GroqModel),
			llm.WithMaxTokens(cfg.MaxTokens),
			llm.WithTemperature(cfg.Temperature),
		)
		if err != nil {
			log.Fatalf("FATAL: failed to create groq generator: %v", err)
		}
		return gen
	case "gemini":
		gen, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey,
			llm.WithGeminiModel(cfg.GeminiModel),
			llm.WithGeminiMaxTokens(int32(cfg.MaxTokens)),
			llm.WithGeminiTemperature(float32(cfg.Temperature)),
		)
		if err != nil {
			log.Fatalf("FATAL: failed to create gemini generator: %v", err)
		}
		return gen
	default:
		log.Fatalf("FATAL: unknown GENERATOR %q (want groq, gemini, or none)", cfg.Generator)
		return nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: ignoring non-integer %s=%q", key, v)
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Warning: ignoring non-numeric %s=%q", key, v)
	}
	return fallback
}
