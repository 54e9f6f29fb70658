/*
Copyright © 2025 pdfchat
*/
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfchat/pdfchat-be/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// batchUploadDocumentCmd represents the batch-upload command
var batchUploadDocumentCmd = &cobra.Command{
	Use:   "batch-upload",
	Short: "Ingest every PDF in a directory",
	Run: func(cmd *cobra.Command, args []string) {
		directory, _ := cmd.Flags().GetString("directory")
		enhanced, _ := cmd.Flags().GetBool("enhanced")
		reinit, _ := cmd.Flags().GetBool("reinit")
		if directory == "" {
			logrus.Fatal("--directory is required")
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

		files, err := os.ReadDir(directory)
		if err != nil {
			logrus.Fatalf("Failed to read directory: %v", err)
		}

		failed := 0
		for _, file := range files {
			if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".pdf") {
				continue
			}
			path := filepath.Join(directory, file.Name())
			if err := ingestFile(ingestService, tracker, path, enhanced); err != nil {
				failed++
			}
		}
		if failed > 0 {
			logrus.Errorf("%d documents failed to ingest", failed)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(batchUploadDocumentCmd)

	batchUploadDocumentCmd.Flags().StringP("directory", "d", "", "Directory containing PDF files")
	batchUploadDocumentCmd.Flags().BoolP("enhanced", "e", false, "Enrich chunk metadata with the LLM")
	batchUploadDocumentCmd.Flags().BoolP("reinit", "r", false, "Wipe and recreate the chunk class before ingesting (weaviate only)")
}
