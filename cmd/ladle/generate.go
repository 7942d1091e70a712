package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurachef/ladle/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate <recipe name>",
	Short: "Generate a recipe from the model's knowledge",
	Long:  "Ask the model to write a recipe for a named dish without any source URL. Prompts for confirmation first, since the result is generated rather than extracted.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().Bool("json", false, "Print the recipe as JSON instead of markdown")
	generateCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	fetcher, _, extractor, stage, err := buildStages(log)
	if err != nil {
		return err
	}

	name := strings.Join(args, " ")

	var approver pipeline.Approver = pipeline.AutoApprover{}
	if skip, _ := cmd.Flags().GetBool("yes"); !skip {
		approver = &pipeline.CallbackApprover{Callback: promptApproval(cmd)}
	}

	emitter := pipeline.NewEventEmitter()
	emitter.Subscribe(terminalEventListener(cmd))

	orch := pipeline.New(fetcher, extractor, stage,
		pipeline.WithApprover(approver),
		pipeline.WithEmitter(emitter),
		pipeline.WithOrchestratorLogger(log),
	)

	result := orch.ProvideFromKnowledge(cmd.Context(), name)
	return printResult(cmd, result)
}

// promptApproval asks on the terminal before a knowledge-mode generation.
func promptApproval(cmd *cobra.Command) func(context.Context, *pipeline.ApprovalRequest) (*pipeline.Decision, error) {
	return func(ctx context.Context, req *pipeline.ApprovalRequest) (*pipeline.Decision, error) {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"Generate a recipe for %q from the model's knowledge? [y/N] ", req.RecipeName)

		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return &pipeline.Decision{Approved: false}, nil
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return &pipeline.Decision{Approved: answer == "y" || answer == "yes"}, nil
	}
}
