package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stoik/lure/internal/ai"
	"github.com/stoik/lure/internal/logger"
	"github.com/stoik/lure/internal/phishing"
	"github.com/stoik/lure/services/analyzer/internal/analysis"
	"github.com/stoik/lure/services/analyzer/internal/db"
	"github.com/stoik/lure/services/analyzer/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Lure phishing analyzer",
	Long:  "Scores inbound email for phishing risk, classifies the targeted persona and drafts persona replies",
}

// env maps viper keys onto the environment variables operators set
var env = map[string]string{
	"llm.base_url":       "LLM_BASE_URL",
	"llm.model":          "LLM_MODEL",
	"llm.fallback_model": "LLM_FALLBACK_MODEL",
	"llm.api_key":        "LLM_API_KEY",
	"llm.provider":       "LLM_PROVIDER",
	"llm.timeout":        "LLM_TIMEOUT",
	"database.url":       "DATABASE_URL",
	"redis.url":          "REDIS_URL",
	"port":               "PORT",
	"log.level":          "LOG_LEVEL",
	"log.format":         "LOG_FORMAT",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Flags
	rootCmd.PersistentFlags().String("database.url", "", "Database connection URL (history is kept in memory when empty)")
	rootCmd.PersistentFlags().String("log.level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log.format", "console", "Log format: 'console' or 'json'")
	rootCmd.PersistentFlags().String("llm.provider", ai.ProviderOpenAI, "Model API flavour: 'openai' or 'gemini'")
	rootCmd.PersistentFlags().String("llm.base_url", "", "Model API base URL")
	rootCmd.PersistentFlags().String("llm.model", "", "Primary model id")
	rootCmd.PersistentFlags().String("llm.fallback_model", "", "Model id used once the primary exhausts its quota")
	rootCmd.PersistentFlags().Duration("llm.timeout", ai.DefaultTimeout, "Upper bound for one model call including retries")

	// Bind flags to viper
	for _, key := range []string{"database.url", "log.level", "log.format", "llm.provider", "llm.base_url", "llm.model", "llm.fallback_model", "llm.timeout"} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./services/analyzer")
	viper.AutomaticEnv()

	for key, name := range env {
		viper.BindEnv(key, name)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func newLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
}

func aiConfig() ai.Config {
	return ai.Config{
		Provider:      viper.GetString("llm.provider"),
		BaseURL:       viper.GetString("llm.base_url"),
		Model:         viper.GetString("llm.model"),
		FallbackModel: viper.GetString("llm.fallback_model"),
		APIKey:        viper.GetString("llm.api_key"),
		Timeout:       viper.GetDuration("llm.timeout"),
	}
}

// newAIClient returns nil when the model settings are incomplete. Only the
// model-backed features are lost; the heuristic pipeline keeps working.
func newAIClient(log *logger.Logger) *ai.Client {
	client, err := ai.NewClient(aiConfig(), nil, log)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			log.Error().Err(err).Msg("AI client disabled, set LLM_BASE_URL, LLM_MODEL, LLM_FALLBACK_MODEL and LLM_API_KEY")
		} else {
			log.Error().Err(err).Msg("AI client disabled")
		}
		return nil
	}
	log.Info().
		Str("provider", aiConfig().Provider).
		Str("model", client.State().Active()).
		Str("fallback_model", client.State().Fallback()).
		Msg("AI client ready")
	return client
}

// components is everything serve and worker share
type components struct {
	service *analysis.Service
	aiState *ai.ModelState
	close   func()
}

func buildComponents(ctx context.Context, log *logger.Logger) (*components, error) {
	var (
		analyzer *phishing.Analyzer
		aiState  *ai.ModelState
	)
	if client := newAIClient(log); client != nil {
		analyzer = phishing.NewAnalyzer(client, log)
		aiState = client.State()
	} else {
		analyzer = phishing.NewAnalyzer(nil, log)
	}

	var st store.Store
	closeFn := func() {}
	if db.Configured() {
		if err := db.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		st = store.NewPostgres(db.Pool)
		closeFn = db.Close
		log.Info().Msg("recording analyses in PostgreSQL")
	} else {
		st = store.NewMemory(0)
		log.Warn().Msg("database.url not set, analysis history is kept in memory")
	}

	return &components{
		service: analysis.NewService(analyzer, st, log),
		aiState: aiState,
		close:   closeFn,
	}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
