package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iTheRudy/solana-token/config"
)

var (
	version = "0.3.0"

	configPath string
	logLevel   string

	cfg *config.Config

	stdin = bufio.NewReader(os.Stdin)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "solana-token",
	Short: "HTTP API for wallets and a single SPL token on Solana",
	Long: `solana-token generates Solana wallets and manages one SPL token:
associated token accounts, supply, credits from the treasury,
user transfers, freezing and thawing.

Configuration comes from environment variables (MINT, PAYER_MNEMONIC, ...)
and an optional config file.

Examples:
  solana-token serve                      # Start the HTTP API
  solana-token wallet generate            # Create a new wallet
  solana-token keystore seal keys.vault   # Encrypt the service mnemonics
  solana-token supply                     # Show the current supply
  solana-token mint 1000                  # Mint new supply into the treasury`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if err := configureLogger(loaded.LogLevel, "text"); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(keystoreCmd)
	rootCmd.AddCommand(supplyCmd)
	rootCmd.AddCommand(mintCmd)
	rootCmd.AddCommand(versionCmd)
}

func configureLogger(levelName, format string) error {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)

	switch strings.ToLower(format) {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// readSecret prompts for a value without echoing it when stdin is a terminal
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(prompt), err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Printf("%s: ", prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("solana-token v%s\n", version)
	},
}
