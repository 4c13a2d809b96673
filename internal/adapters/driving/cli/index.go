package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clearfreight-labs/htsclass/internal/adapters/driven/catalog/jsonfile"
)

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the catalog index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the catalog index from the HTS dataset",
	Long: `Loads the HTS chapter files, embeds every description (hitting the
embedding cache where possible) and builds the similarity index. With
--watch, keeps running and rebuilds whenever the dataset changes.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index configuration",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

func init() {
	indexBuildCmd.Flags().BoolVar(&indexWatch, "watch", false, "rebuild automatically on dataset changes")
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := catalogIndex.Build(ctx); err != nil {
		return fmt.Errorf("building catalog index: %w", err)
	}
	cmd.Println("Catalog index built.")

	if !indexWatch {
		return nil
	}

	watcher, err := jsonfile.NewWatcher(jsonfile.NewSource(catalogDir(configStore)), 0)
	if err != nil {
		return fmt.Errorf("watching dataset: %w", err)
	}
	defer watcher.Close()

	catalogIndex.WatchRebuilds(ctx, watcher)
	cmd.Println("Watching for dataset changes (Ctrl+C to stop)...")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	cmd.Printf("Catalog directory:  %s\n", catalogDir(configStore))
	cmd.Printf("Embedding model:    %s\n", embeddingProvider.ModelVersion())
	cmd.Printf("Config file:        %s\n", configStore.Path())
	if metaStore != nil {
		cmd.Printf("Storage:            %s\n", metaStore.Path())
	} else {
		cmd.Println("Storage:            in-memory")
	}
	return nil
}
