package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurachef/ladle/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract a recipe from a URL",
	Long:  "Fetch the URL, extract the recipe text (following one embedded link if the post points at a recipe site), and normalize it into a structured recipe.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().Bool("json", false, "Print the recipe as JSON instead of markdown")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	fetcher, follower, extractor, stage, err := buildStages(log)
	if err != nil {
		return err
	}

	emitter := pipeline.NewEventEmitter()
	emitter.Subscribe(terminalEventListener(cmd))

	orch := pipeline.New(fetcher, extractor, stage,
		pipeline.WithFollower(follower),
		pipeline.WithEmitter(emitter),
		pipeline.WithOrchestratorLogger(log),
	)

	result := orch.ExtractAndProcess(cmd.Context(), args[0])
	return printResult(cmd, result)
}

func printResult(cmd *cobra.Command, result *pipeline.Result) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Success {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", result.Reason)
		if result.PartialSignal() && result.RecipeName != "" {
			fmt.Fprintf(cmd.ErrOrStderr(),
				"Partial data found for %q; try: ladle generate %q\n",
				result.RecipeName, result.RecipeName)
		}
		return fmt.Errorf("%s", result.Reason)
	}

	fmt.Fprint(cmd.OutOrStdout(), result.RecipeJSON.Markdown())
	return nil
}
