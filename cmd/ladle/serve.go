package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aurachef/ladle/pipeline"
	"github.com/aurachef/ladle/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline HTTP server",
	Long:  "Serve the pipeline over HTTP: launch extraction and knowledge runs, watch their state and events, resolve approval gates, and browse archived recipes.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("db", "ladle.db", "SQLite database path for the recipe archive")

	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("db", serveCmd.Flags().Lookup("db"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	fetcher, follower, extractor, stage, err := buildStages(log)
	if err != nil {
		return err
	}

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("opening recipe archive: %w", err)
	}
	defer db.Close()

	srv := pipeline.NewServer(pipeline.ServerConfig{
		Fetcher:   fetcher,
		Follower:  follower,
		Extractor: extractor,
		Stage:     stage,
		Store:     db,
		Logger:    log,
	})

	addr := viper.GetString("addr")
	log.Info("listening", zap.String("addr", addr))
	fmt.Fprintf(cmd.ErrOrStderr(), "ladle serving on %s\n", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
