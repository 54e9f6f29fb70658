/*
Copyright © 2025 pdfchat
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pdfchat/pdfchat-be/config"
	"github.com/pdfchat/pdfchat-be/database"
	"github.com/pdfchat/pdfchat-be/service"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// uploadDocumentCmd represents the upload-document command
var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document",
	Short: "Ingest one local PDF into the memory store",
	Long: `Runs the full ingestion pipeline for a local PDF file, printing live
progress until the job finishes.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		enhanced, _ := cmd.Flags().GetBool("enhanced")
		reinit, _ := cmd.Flags().GetBool("reinit")
		if filePath == "" {
			logrus.Fatal("--file is required")
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}
		ingestService, tracker, err := buildPipeline(cfg, reinit)
		if err != nil {
			logrus.Fatalf("Failed to build pipeline: %v", err)
		}
		defer tracker.Stop()

		if err := ingestFile(ingestService, tracker, filePath, enhanced); err != nil {
			os.Exit(1)
		}
	},
}

func buildPipeline(cfg *config.Config, reinit bool) (*service.IngestService, *service.ProgressTracker, error) {
	store, err := database.NewMemoryStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	if reinit {
		weaviateStore, ok := store.(*database.WeaviateStore)
		if !ok {
			return nil, nil, errors.New("--reinit is only supported with the weaviate memory store")
		}
		if err := weaviateStore.ReInit(); err != nil {
			return nil, nil, err
		}
	}
	enrichModel := cfg.EnrichModel
	if enrichModel == "" {
		enrichModel = cfg.Model
	}
	tracker := service.NewProgressTracker(time.Duration(cfg.ProgressGraceMinutes) * time.Minute)
	ingestService := service.NewIngestService(
		service.NewPDFService(cfg.MaxFileSizeMB),
		service.NewChunker(cfg.MaxChunkBytes),
		service.NewEnrichService(cfg.AIEndpoint, cfg.OpenAIAPIKey, enrichModel),
		store,
		nil, // no registry from the CLI
		tracker,
	)
	return ingestService, tracker, nil
}

func ingestFile(ingestService *service.IngestService, tracker *service.ProgressTracker, filePath string, enhanced bool) error {
	info, err := os.Stat(filePath)
	if err != nil {
		logrus.Errorf("Cannot read %s: %v", filePath, err)
		return err
	}

	jobID := uuid.NewString()
	req := &types.IngestRequest{
		FilePath:       filePath,
		Filename:       info.Name(),
		FileSize:       info.Size(),
		ExternalUserID: types.DemoUserID,
		Enhanced:       enhanced,
	}

	done := make(chan error, 1)
	go func() {
		_, err := ingestService.Ingest(context.Background(), jobID, req)
		done <- err
	}()

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	lastMessage := ""
	for {
		select {
		case err := <-done:
			if record, ok := tracker.Get(jobID); ok {
				printProgress(record, &lastMessage)
			}
			if err != nil {
				logrus.Errorf("Ingestion of %s failed: %v", filePath, err)
				return err
			}
			fmt.Printf("Done: %s\n", filePath)
			return nil
		case <-ticker.C:
			if record, ok := tracker.Get(jobID); ok {
				printProgress(record, &lastMessage)
			}
		}
	}
}

func printProgress(record types.UploadProgress, lastMessage *string) {
	line := fmt.Sprintf("[%3.0f%%] %s", record.Percent, record.Message)
	if line == *lastMessage {
		return
	}
	*lastMessage = line
	fmt.Println(line)
}

func init() {
	rootCmd.AddCommand(uploadDocumentCmd)

	uploadDocumentCmd.Flags().StringP("file", "f", "", "Path to the PDF file to ingest")
	uploadDocumentCmd.Flags().BoolP("enhanced", "e", false, "Enrich chunk metadata with the LLM")
	uploadDocumentCmd.Flags().BoolP("reinit", "r", false, "Wipe and recreate the chunk class before ingesting (weaviate only)")
}
