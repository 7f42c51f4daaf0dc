package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iTheRudy/solana-token/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Offline wallet helpers",
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new wallet",
	Long: `Generate a new 12-word recovery phrase and print it with its address.

Nothing is stored; write the phrase down.`,
	Args: cobra.NoArgs,
	RunE: runWalletGenerate,
}

var walletPubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Print the address of a recovery phrase",
	Long: `Print the address a recovery phrase derives to.
The phrase is read from stdin without echo.`,
	Args: cobra.NoArgs,
	RunE: runWalletPubkey,
}

func init() {
	walletGenerateCmd.Flags().Bool("show-secret", false, "also print the base58 secret key")

	walletCmd.AddCommand(walletGenerateCmd)
	walletCmd.AddCommand(walletPubkeyCmd)
}

func runWalletGenerate(cmd *cobra.Command, args []string) error {
	w, err := wallet.New()
	if err != nil {
		return fmt.Errorf("failed to generate wallet: %w", err)
	}

	fmt.Println("✅ Wallet generated")
	fmt.Println()
	fmt.Printf("🔐 Recovery phrase: %s\n", color.YellowString(w.Mnemonic))
	fmt.Printf("📍 Address:         %s\n", color.GreenString(w.Address()))

	if show, _ := cmd.Flags().GetBool("show-secret"); show {
		fmt.Printf("🔑 Secret key:      %s\n", color.RedString(wallet.SecretKeyBase58(w.PrivateKey)))
	}

	fmt.Println()
	fmt.Println("⚠️  Anyone with this phrase controls the wallet")
	return nil
}

func runWalletPubkey(cmd *cobra.Command, args []string) error {
	mnemonic, err := readSecret("Recovery phrase")
	if err != nil {
		return err
	}

	w, err := wallet.FromMnemonic(mnemonic)
	if err != nil {
		return fmt.Errorf("failed to restore wallet: %w", err)
	}

	fmt.Println(color.GreenString(w.Address()))
	return nil
}
