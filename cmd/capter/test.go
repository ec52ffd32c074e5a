package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/capter/pkg/core"
	"github.com/blackcoderx/capter/pkg/log"
	"github.com/blackcoderx/capter/pkg/report"
	"github.com/blackcoderx/capter/pkg/source"
	"github.com/blackcoderx/capter/pkg/storage"
	"github.com/blackcoderx/capter/pkg/transport"
	"github.com/blackcoderx/capter/pkg/tui"
	"github.com/blackcoderx/capter/pkg/workflow"
)

var testCmd = &cobra.Command{
	Use:   "test <glob>",
	Short: "Run the workflows matching a glob",
	Example: `  capter test .capter/example.test.yml
  capter test '.capter/**/*.test.yml' --env dev --token $CAPTER_TOKEN`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: expected exactly one glob, got %d", core.ErrUsage, len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := optionsFromConfig(args[0])
		if err := opts.Validate(); err != nil {
			return err
		}
		live := !opts.Debug && isTerminal(os.Stdout)
		return runTests(cmd.Context(), opts, cmd.OutOrStdout(), live)
	},
}

func init() {
	f := testCmd.Flags()
	f.Int("timeout", core.DefaultTimeout, "connect timeout in seconds")
	f.Float64("rate", 0, "maximum requests per second, 0 for no limit")
	f.String("webhook", "", "post the run to this URL")
	f.String("token", "", "token sent to the webhook; posts to capter.io when no webhook is set")
	f.Bool("dry-run", false, "do not post to the webhook")
	f.Bool("debug", false, "plain output, debug logs and response bodies of failed steps")
	f.StringP("env", "e", "", "environment from .capter/environments")
	f.String("pushgateway", "", "push run metrics to this Prometheus Pushgateway")
	f.Bool("copy-url", false, "copy the run URL returned by the webhook")

	for _, name := range []string{"timeout", "rate", "webhook", "token", "dry-run", "debug", "env", "pushgateway", "copy-url"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
	rootCmd.AddCommand(testCmd)
}

func optionsFromConfig(glob string) *core.Options {
	return &core.Options{
		Glob:                glob,
		Timeout:             viper.GetInt("timeout"),
		Rate:                viper.GetFloat64("rate"),
		Webhook:             viper.GetString("webhook"),
		Token:               viper.GetString("token"),
		Pushgateway:         viper.GetString("pushgateway"),
		Env:                 viper.GetString("env"),
		DryRun:              viper.GetBool("dry-run"),
		Debug:               viper.GetBool("debug"),
		CopyURL:             viper.GetBool("copy-url"),
		WebhookClientID:     viper.GetString("webhook_client_id"),
		WebhookClientSecret: viper.GetString("webhook_client_secret"),
		WebhookTokenURL:     viper.GetString("webhook_token_url"),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runTests loads every workflow matching opts.Glob, checks them all before
// sending anything, runs them in order and reports the results.
func runTests(ctx context.Context, opts *core.Options, out io.Writer, live bool) error {
	logger := log.WithModule("cmd")

	paths, err := storage.Discover(opts.Glob)
	if err != nil {
		return err
	}
	logger.WithField("count", len(paths)).Debug("workflows found")

	defs := make([]*workflow.Definition, 0, len(paths))
	for _, path := range paths {
		def, err := storage.LoadWorkflow(path)
		if err != nil {
			return err
		}
		if !def.Skip {
			if err := workflow.Preflight(def); err != nil {
				return err
			}
		}
		defs = append(defs, def)
	}

	var environment map[string]any
	if opts.Env != "" {
		if environment, err = storage.LoadEnvironment(core.CapterFolderName, opts.Env); err != nil {
			return err
		}
	}

	client := transport.New(opts.TimeoutDuration(),
		transport.WithRate(opts.Rate),
		transport.WithLogger(log.WithModule("transport")),
	)
	runner := workflow.NewRunner(client,
		workflow.WithEnvironment(environment),
		workflow.WithRunnerLogger(log.WithModule("workflow")),
	)

	var results []*workflow.Result
	runAll := func(ctx context.Context, observer workflow.Observer) error {
		for _, def := range defs {
			result, err := runner.Run(ctx, def, observer)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	}

	term := report.NewTerminal(out, defs)
	if opts.Debug {
		term.WithBodyDump(tui.HighlightJSON)
	}

	if live {
		transcript, err := tui.Run(ctx, defs, runAll)
		fmt.Fprint(out, transcript)
		if err != nil {
			return err
		}
	} else if err := runAll(ctx, term); err != nil {
		return err
	}

	term.Summarize(results)

	passed := true
	for _, result := range results {
		if !result.Passed {
			passed = false
		}
	}

	if !passed {
		if _, err := report.WriteFailureLogs(report.LogDir, results); err != nil {
			logger.WithError(err).Warn("could not write failure logs")
		}
	}

	src := source.Detect()

	if url := opts.WebhookURL(); url != "" {
		hook := report.NewWebhook(out, url,
			report.WithToken(opts.Token),
			report.WithDryRun(opts.DryRun),
			report.WithCopyURL(opts.CopyURL),
			report.WithClientCredentials(opts.WebhookClientID, opts.WebhookClientSecret, opts.WebhookTokenURL),
			report.WithWebhookLogger(log.WithModule("webhook")),
		)
		if _, err := hook.Post(ctx, src, results); err != nil {
			logger.WithError(err).Debug("webhook failed")
		}
	}

	if opts.Pushgateway != "" {
		if err := report.PushMetrics(ctx, opts.Pushgateway, src.RunID, results); err != nil {
			logger.WithError(err).Warn("could not push metrics")
		}
	}

	if !passed {
		return errWorkflowsFailed
	}
	return nil
}
