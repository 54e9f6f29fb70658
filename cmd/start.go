/*
Copyright © 2025 pdfchat
*/
package cmd

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pdfchat/pdfchat-be/config"
	"github.com/pdfchat/pdfchat-be/database"
	"github.com/pdfchat/pdfchat-be/handler"
	"github.com/pdfchat/pdfchat-be/repository"
	"github.com/pdfchat/pdfchat-be/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const sweepInterval = 30 * time.Second

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the PDF chat server",
	Long:  `Starts the HTTP server handling document uploads, progress reporting and chat.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}
		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			logrus.Fatalf("Failed to create upload directory: %v", err)
		}

		store, err := database.NewMemoryStore(cfg)
		if err != nil {
			logrus.Fatalf("Failed to connect to memory store: %v", err)
		}

		// the document registry is optional: without Mongo the server still
		// ingests and answers, it just cannot list past uploads
		var documentRepo repository.DocumentRepo
		mongoClient, err := database.NewMongoClient()
		if err == nil {
			err = mongoClient.Ping(context.Background(), nil)
		}
		if err != nil {
			logrus.WithError(err).Warn("MongoDB unavailable, document registry disabled")
		} else {
			documentRepo = repository.NewDocumentRepo(mongoClient.Database("pdfchat"))
		}

		aiService, err := service.NewAIService(cfg)
		if err != nil {
			logrus.Fatalf("Failed to create AI service: %v", err)
		}

		pdfService := service.NewPDFService(cfg.MaxFileSizeMB)
		chunker := service.NewChunker(cfg.MaxChunkBytes)
		tracker := service.NewProgressTracker(time.Duration(cfg.ProgressGraceMinutes) * time.Minute)
		tracker.StartSweeper(sweepInterval)
		defer tracker.Stop()

		enrichModel := cfg.EnrichModel
		if enrichModel == "" {
			enrichModel = cfg.Model
		}
		enricher := service.NewEnrichService(cfg.AIEndpoint, cfg.OpenAIAPIKey, enrichModel)

		ingestService := service.NewIngestService(pdfService, chunker, enricher, store, documentRepo, tracker)
		chatService := service.NewChatService(aiService, store, documentRepo)
		documentService := service.NewDocumentService(store, documentRepo)
		wsService := service.NewWebSocketService(aiService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		uploadHandler := handler.NewUploadHandler(pdfService, ingestService, cfg.UploadDir, cfg.Enhanced)
		progressHandler := handler.NewProgressHandler(tracker)
		chatHandler := handler.NewChatHandler(chatService)
		documentHandler := handler.NewDocumentHandler(documentService, cfg.UploadDir)
		searchHandler := handler.NewSearchHandler(chatService)
		healthHandler := handler.NewHealthHandler(store)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		router.GET("/health", healthHandler.HandleHealth)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/documents/upload/:upload_id", uploadHandler.UploadDocumentHandler)
			apiV1.GET("/upload/progress/:upload_id", progressHandler.GetProgress)
			apiV1.GET("/upload/progress-stream/:upload_id", progressHandler.StreamProgress)

			apiV1.POST("/chat", chatHandler.HandleChat)
			apiV1.POST("/chat/summary/:document_id", chatHandler.HandleSummary)

			apiV1.GET("/documents", documentHandler.ListDocuments)
			apiV1.GET("/documents/status/:document_id", documentHandler.GetDocumentStatus)
			apiV1.DELETE("/documents/:document_id", documentHandler.DeleteDocument)
			apiV1.POST("/documents/search", searchHandler.HandleSearch)
			apiV1.GET("/pdf", documentHandler.ServeDocument)

			apiV1.GET("/ws", gin.WrapF(wsService.HandleChat))
		}

		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			logrus.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
