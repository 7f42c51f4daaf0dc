package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iTheRudy/solana-token/crypto"
	"github.com/iTheRudy/solana-token/wallet"
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage the encrypted keystore",
}

var keystoreSealCmd = &cobra.Command{
	Use:   "seal <path>",
	Short: "Encrypt the service mnemonics into a keystore file",
	Long: `Prompt for the payer, mint authority and (optional) freeze authority
mnemonics and write them to an encrypted keystore.

Point KEYSTORE_PATH and KEYSTORE_PASSWORD at the file to use it with serve.

Example:
  solana-token keystore seal /etc/solana-token/keys.vault`,
	Args: cobra.ExactArgs(1),
	RunE: runKeystoreSeal,
}

func init() {
	keystoreSealCmd.Flags().BoolP("force", "f", false, "overwrite an existing keystore")

	keystoreCmd.AddCommand(keystoreSealCmd)
}

func runKeystoreSeal(cmd *cobra.Command, args []string) error {
	path := args[0]

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("keystore %s already exists. Use --force to overwrite it", path)
	}

	entries := make(map[string]string)
	for _, entry := range []struct {
		name     string
		prompt   string
		optional bool
	}{
		{crypto.EntryPayer, "Payer mnemonic", false},
		{crypto.EntryMintAuthority, "Mint authority mnemonic", false},
		{crypto.EntryFreezeAuthority, "Freeze authority mnemonic (empty to skip)", true},
	} {
		mnemonic, err := readSecret(entry.prompt)
		if err != nil {
			return err
		}
		if mnemonic == "" && entry.optional {
			continue
		}

		w, err := wallet.FromMnemonic(mnemonic)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.name, err)
		}
		entries[entry.name] = w.Mnemonic
		fmt.Printf("   %s: %s\n", entry.name, color.CyanString(w.Address()))
	}

	password, err := readSecret("Keystore password")
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	confirm, err := readSecret("Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	vault, err := crypto.NewVault(entries, password)
	if err != nil {
		return fmt.Errorf("failed to create keystore: %w", err)
	}
	if err := vault.Save(path); err != nil {
		return fmt.Errorf("failed to save keystore: %w", err)
	}

	fmt.Printf("✅ Keystore written to %s\n", color.GreenString(path))
	return nil
}
