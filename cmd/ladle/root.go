package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aurachef/ladle/extract"
	"github.com/aurachef/ladle/fetch"
	"github.com/aurachef/ladle/llm"
	"github.com/aurachef/ladle/normalize"
	"github.com/aurachef/ladle/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "ladle",
	Short: "Recipe extraction pipeline",
	Long:  "Ladle fetches recipe pages and social posts, extracts the recipe text, and normalizes it into a structured recipe via an LLM.",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("model", "m", "gpt-4o-mini", "LLM model to use")
	rootCmd.PersistentFlags().String("base-url", "", "OpenAI-compatible API base URL (default: api.openai.com)")
	rootCmd.PersistentFlags().String("api-key", "", "API key (default: LADLE_API_KEY or OPENAI_API_KEY)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	viper.SetEnvPrefix("LADLE")
	viper.AutomaticEnv()
}

func buildLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// buildStages wires the fetch, extract and normalize stages from flags and
// environment.
func buildStages(log *zap.Logger) (*fetch.Client, *fetch.Follower, *extract.Extractor, *normalize.Stage, error) {
	fetcher := fetch.NewClient(
		fetch.WithCredentials(fetch.EnvCredentialStore{}),
		fetch.WithLogger(log),
	)
	extractor := extract.New()
	follower := fetch.NewFollower(fetcher, extractor.Score, log)

	var llmOpts []llm.HTTPClientOption
	if base := viper.GetString("base_url"); base != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(base))
	}
	client, err := llm.NewHTTPClient(viper.GetString("api_key"), llmOpts...)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("configuring model client: %w", err)
	}

	stage := normalize.NewStage(client, viper.GetString("model"),
		normalize.WithLogger(log))
	return fetcher, follower, extractor, stage, nil
}

// terminalEventListener prints run progress to stderr.
func terminalEventListener(cmd *cobra.Command) pipeline.EventHandler {
	return func(e pipeline.Event) {
		switch e.Type {
		case pipeline.EventStageStarted:
			stage, _ := e.Data["stage"].(string)
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s]\n", stage)
		case pipeline.EventRunFailed:
			reason, _ := e.Data["reason"].(string)
			fmt.Fprintf(cmd.ErrOrStderr(), "[failed] %s\n", reason)
		case pipeline.EventRunCompleted:
			source, _ := e.Data["source"].(string)
			fmt.Fprintf(cmd.ErrOrStderr(), "[done] recipe ready (source: %s)\n", source)
		}
	}
}
