package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, catalog location, storage
and validator options. Settings are stored in a TOML config file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value by dotted key.

Common keys:
  embedding.provider              ollama or openai
  embedding.model                 model name for the provider
  embedding.base_url              provider API base URL
  embedding.requests_per_second   embedding rate limit
  catalog.dir                     directory of htsdata*.json files
  storage.data_dir                database directory
  validator.enabled               enable the second-opinion validator
  validator.model                 chat model for validation`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider:    %s\n", orDefault(configStore.GetString("embedding.provider"), "ollama"))
	cmd.Printf("  Model:       %s\n", embeddingProvider.ModelVersion())
	cmd.Printf("  Rate limit:  %.0f req/s\n", embedRPS(configStore))
	cmd.Println()

	cmd.Println("[Catalog]")
	cmd.Printf("  Directory:   %s\n", catalogDir(configStore))
	cmd.Println()

	cmd.Println("[Validator]")
	cmd.Printf("  Enabled:     %v\n", configStore.GetBool("validator.enabled"))
	cmd.Println()

	cmd.Printf("Config file: %s\n", configStore.Path())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := configStore.Set(key, coerceValue(value)); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

// coerceValue keeps booleans typed in the TOML file so GetBool works.
func coerceValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	default:
		return v
	}
}

// orDefault returns fallback when s is empty.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
