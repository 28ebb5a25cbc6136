package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikeboe/tool-scout/pkg/analysis"
	"github.com/mikeboe/tool-scout/pkg/clients"
	"github.com/mikeboe/tool-scout/pkg/config"
	"github.com/mikeboe/tool-scout/pkg/firecrawl"
	"github.com/mikeboe/tool-scout/pkg/research"
	"github.com/mikeboe/tool-scout/pkg/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Initialize the pipeline collaborators once; workers share them.
	llm, err := clients.GoogleAi(ctx, cfg.GoogleApiKey, clients.ModelType(cfg.FastModel))
	if err != nil {
		log.Fatalf("Failed to init LLM: %v", err)
	}

	analyzer, err := analysis.NewAnalyzer(ctx, cfg.FastModel, cfg.GoogleApiKey)
	if err != nil {
		log.Fatalf("Failed to init analyzer: %v", err)
	}

	fc := firecrawl.NewClient(cfg.FirecrawlApiKey, cfg.FirecrawlBaseURL)

	// Each job gets its own workflow so its logs land in the job's buffer.
	svc := server.NewService(func(logger *slog.Logger) server.ResearchRunner {
		workflow := research.NewWorkflow(cfg, llm, fc, analyzer)
		workflow.Logger = logger
		return workflow
	})
	handler := server.NewHandler(svc, research.NewWorkflow(cfg, llm, fc, analyzer))

	// Web Server Setup
	r := gin.Default()

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all for dev
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
