package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"plant-advisor/internal/application"
	"plant-advisor/internal/config"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/infra/adapters/classifier"
	"plant-advisor/internal/infra/filestore"
	"plant-advisor/internal/infra/logging"
	"plant-advisor/internal/usecase"
)

var (
	cfgFile     string
	devMode     bool
	maxAttempts int
)

var rootCmd = &cobra.Command{
	Use:   "plantctl",
	Short: "Submit plant questions to the advisor queue and wait for answers",
	Long: `plantctl writes requests into the shared queue documents and polls for the
results the advisor service produces. A request that is not ready yet can be
checked again later with 'plantctl retry' without being submitted twice.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "developer mode (console logs)")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "attempts", 0, "poll attempts before giving up (default from config)")
}

// env is what every producer command needs.
type env struct {
	cfg      *config.Config
	facade   *application.AdvisorFacade
	opts     usecase.PollOptions
	closeFns []func() error
}

func (e *env) Close() {
	for _, fn := range e.closeFns {
		_ = fn()
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadConfig(cfgFile, devMode)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	shared := filestore.Open(cfg.Shared.Dir, logger)
	if _, err := shared.Init(ctx); err != nil {
		return nil, err
	}
	notifier, closeNotifier, err := application.NewResultNotifier(ctx, cfg, shared, logger)
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	opts := usecase.PollOptions{
		MaxAttempts: cfg.Producer.MaxAttempts,
		Interval:    cfg.Producer.Interval,
		Progress: func(attempt, max int) {
			fmt.Fprintf(out, "attempt %d of %d\n", attempt, max)
		},
	}
	if maxAttempts > 0 {
		opts.MaxAttempts = maxAttempts
	}
	producer := usecase.NewProducer(application.QueuePairs(shared), opts, notifier, logger)

	var cls adapter.LeafClassifier
	if cfg.Classifier.URL != "" {
		c, err := classifier.NewTFServingClassifier(cfg.Classifier.URL, cfg.Classifier.Model, cfg.Classifier.ImageSize, cfg.Classifier.Labels, cfg.Classifier.Timeout)
		if err != nil {
			_ = closeNotifier()
			return nil, err
		}
		cls = c
	}
	return &env{
		cfg:      cfg,
		facade:   application.NewAdvisorFacade(producer, cls),
		opts:     opts,
		closeFns: []func() error{closeNotifier},
	}, nil
}

// withEnv runs fn with a ready env and a signal-aware context.
func withEnv(fn func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		e, err := newEnv(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(ctx, cmd, e, args)
	}
}

func printOutcome(cmd *cobra.Command, text string) {
	fmt.Fprintln(cmd.OutOrStdout(), text)
}

func exitOnInterrupt(err error) error {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "interrupted")
		return nil
	}
	return err
}
