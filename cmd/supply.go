package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	sol "github.com/iTheRudy/solana-token/chains/solana"
	"github.com/iTheRudy/solana-token/token"
)

var supplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Show the current token supply",
	Args:  cobra.NoArgs,
	RunE:  runSupply,
}

var mintCmd = &cobra.Command{
	Use:   "mint <amount>",
	Short: "Mint new supply into the treasury account",
	Long: `Mint new tokens into MINT_TOKEN_ACCOUNT_ADDRESS, signed by the mint
authority and paid by the payer, then print the new supply.

Example:
  solana-token mint 1000
  solana-token mint 0.5 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runMint,
}

func init() {
	mintCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

func runSupply(cmd *cobra.Command, args []string) error {
	service, _, err := newService()
	if err != nil {
		return err
	}

	supply, err := service.CurrentSupply(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get supply: %w", err)
	}

	fmt.Printf("🪙 Mint:   %s\n", color.CyanString(service.Mint().String()))
	fmt.Printf("📦 Supply: %s\n", color.GreenString(supply.String()))
	return nil
}

func runMint(cmd *cobra.Command, args []string) error {
	amount, err := sol.ParseAmount(args[0])
	if err != nil {
		return err
	}

	service, _, err := newService()
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Printf("Mint %s tokens into %s? (y/N): ",
			color.YellowString(amount.String()), color.CyanString(service.TreasuryAccount().String()))
		answer, _ := stdin.ReadString('\n')
		if answer != "y\n" && answer != "Y\n" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	var result *token.MintResult
	err = withSpinner(cmd.Context(), "Waiting for confirmation...", func(ctx context.Context) error {
		var err error
		result, err = service.CreateSupply(ctx, amount)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mint: %w", err)
	}

	fmt.Println("✅ Supply minted")
	fmt.Printf("   Signature: %s\n", color.CyanString(result.Signature))
	fmt.Printf("   Supply:    %s\n", color.GreenString(result.Supply.String()))
	return nil
}

// withSpinner runs fn while an indeterminate progress bar spins
func withSpinner(ctx context.Context, description string, fn func(ctx context.Context) error) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			_ = bar.Finish()
			return err
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}
