package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/capter/pkg/core"
	"github.com/blackcoderx/capter/pkg/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errWorkflowsFailed is returned by `test` when a check failed. The report
// already said why, so it is not printed again.
var errWorkflowsFailed = errors.New("workflows failed")

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "capter",
		Short: "capter - declarative end-to-end API tests",
		Long: `capter runs API workflows written in YAML: a sequence of HTTP requests
where later steps use values captured from earlier responses, each response
checked against a list of expectations.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Setup(viper.GetString("log_level"), viper.GetBool("debug"))
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .capter/config.json)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", core.ErrUsage, err)
	})
}

func initConfig() {
	// Load .env file if it exists (optional, warn if malformed)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(core.CapterFolderName)
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CAPTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil && !errors.Is(err, errWorkflowsFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(core.ExitCode(err))
}
