package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chunkafd",
	Short: "Chunkaf - LLM-guided semantic chunking and hybrid search",
	Long: `Chunkaf splits documents into semantically coherent chunks with an LLM
segmenter, embeds each chunk with dense and sparse vectors, and serves
hybrid search over the stored chunks using reciprocal rank fusion.

Use chunkafd to run the HTTP service, ingest documents from the command
line, or preview how a document would be chunked.`,
	Version: version,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(chunkCmd)
}
