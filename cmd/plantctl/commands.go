package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"plant-advisor/internal/domain/model"
)

var chatContext string

var recommendCmd = &cobra.Command{
	Use:     "recommend <disease>",
	Short:   "Request treatment recommendations for a disease label",
	Example: `  plantctl recommend Tomato___Early_blight`,
	Args:    cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		text, _, err := e.facade.Recommend(ctx, args[0], e.opts)
		if err != nil {
			return exitOnInterrupt(err)
		}
		printOutcome(cmd, text)
		return nil
	}),
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the plant care assistant a question",
	Example: `  plantctl ask "How often should I water basil?"
  plantctl ask "Is it contagious?" --context Potato___Late_blight`,
	Args: cobra.MinimumNArgs(1),
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		if chatContext != "" {
			e.facade.Session.SetDisease(chatContext)
		}
		if note := e.facade.ContextNote(); note != "" {
			printOutcome(cmd, note)
		}
		text, _, err := e.facade.Ask(ctx, strings.Join(args, " "), e.opts)
		if err != nil {
			return exitOnInterrupt(err)
		}
		printOutcome(cmd, text)
		return nil
	}),
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <image>",
	Short: "Classify a leaf image, then request recommendations for the result",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		img, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		msg, pred, err := e.facade.Diagnose(ctx, img)
		if err != nil {
			return err
		}
		printOutcome(cmd, msg)
		text, _, err := e.facade.Recommend(ctx, pred.Label, e.opts)
		if err != nil {
			return exitOnInterrupt(err)
		}
		printOutcome(cmd, text)
		return nil
	}),
}

var retryCmd = &cobra.Command{
	Use:   "retry <disease|chat> <id>",
	Short: "Check again for the result of an earlier request without resubmitting it",
	Args:  cobra.ExactArgs(2),
	RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		wt, ok := model.ParseWorkType(args[0])
		if !ok {
			return fmt.Errorf("unknown work type %q (want disease or chat)", args[0])
		}
		text, _, err := e.facade.RetryByID(ctx, wt, args[1], e.opts)
		if err != nil {
			return exitOnInterrupt(err)
		}
		printOutcome(cmd, text)
		return nil
	}),
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List the disease labels the classifier can predict",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for i, l := range model.DefaultLabels {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i, l)
		}
	},
}

func init() {
	askCmd.Flags().StringVar(&chatContext, "context", "", "disease label to prime the answer with")
	rootCmd.AddCommand(recommendCmd, askCmd, diagnoseCmd, retryCmd, labelsCmd)
}
