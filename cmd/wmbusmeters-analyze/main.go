package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/karstenatgit/wmbusmeters/pkg/wmbusmeters"
)

var (
	rootCmd = &cobra.Command{
		Use:   "wmbusmeters-analyze [hex]",
		Short: "Decode IZAR/PRIOS water-meter telegrams",
		Long:  "wmbusmeters-analyze decodes IZAR/PRIOS water-meter telegrams using the wmbusmeters library.",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := wmbusmeters.AnalyzeOptions{
				KeyHex:  viper.GetString("key"),
				Passive: viper.GetBool("passive"),
			}
			ctx := cmd.Context()
			if len(args) == 0 {
				return runInteractive(ctx, opts)
			}
			return runAnalyze(ctx, opts, args[0])
		},
	}

	configFile string
)

func init() {
	rootCmd.PersistentFlags().String("key", "", "hex-encoded 8-byte confidentiality key (16 hex chars)")
	rootCmd.PersistentFlags().Bool("passive", false, "suppress decode-failure diagnostics (bulk analysis)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	_ = viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
	_ = viper.BindPFlag("passive", rootCmd.PersistentFlags().Lookup("passive"))
}

func loadConfig() error {
	viper.SetEnvPrefix("WMBUSMETERS")
	viper.AutomaticEnv()
	if configFile == "" {
		return nil
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configFile, err)
	}
	return nil
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func runInteractive(ctx context.Context, opts wmbusmeters.AnalyzeOptions) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("wmbusmeters analyze mode. Paste a hex telegram and press Enter (Ctrl+D to exit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(ctx, opts, line); err != nil {
			logrus.WithError(err).Error("failed to decode telegram")
		}
	}
	return scanner.Err()
}

func runAnalyze(ctx context.Context, opts wmbusmeters.AnalyzeOptions, hex string) error {
	result, err := wmbusmeters.AnalyzeHexWithOptions(ctx, hex, opts)
	if err != nil {
		return err
	}
	fmt.Println(result.String())
	return nil
}
