package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
)

// Transaction collects instructions and signers before building a signed ledger transaction
type Transaction struct {
	Instructions    []solana.Instruction
	Signers         []solana.PrivateKey
	FeePayer        solana.PublicKey
	RecentBlockhash solana.Hash
}

func NewTransaction(feePayer solana.PrivateKey) *Transaction {
	tx := &Transaction{
		Instructions: make([]solana.Instruction, 0),
		Signers:      make([]solana.PrivateKey, 0),
		FeePayer:     feePayer.PublicKey(),
	}
	tx.AddSigner(feePayer)
	return tx
}

func (tx *Transaction) AddInstruction(instruction solana.Instruction) *Transaction {
	tx.Instructions = append(tx.Instructions, instruction)
	return tx
}

// AddSigner registers a signing key; duplicates are ignored
func (tx *Transaction) AddSigner(signer solana.PrivateKey) *Transaction {
	for _, existing := range tx.Signers {
		if existing.PublicKey().Equals(signer.PublicKey()) {
			return tx
		}
	}
	tx.Signers = append(tx.Signers, signer)
	return tx
}

func (tx *Transaction) SetRecentBlockhash(blockhash solana.Hash) *Transaction {
	tx.RecentBlockhash = blockhash
	return tx
}

// Build compiles and signs the transaction
func (tx *Transaction) Build() (*solana.Transaction, error) {
	if len(tx.Instructions) == 0 {
		return nil, fmt.Errorf("transaction has no instructions")
	}

	if tx.RecentBlockhash.IsZero() {
		return nil, fmt.Errorf("blockhash is empty")
	}

	stx, err := solana.NewTransaction(
		tx.Instructions,
		tx.RecentBlockhash,
		solana.TransactionPayer(tx.FeePayer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = stx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range tx.Signers {
			if key.Equals(tx.Signers[i].PublicKey()) {
				return &tx.Signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return stx, nil
}

// FindAssociatedTokenAddress derives the ATA of owner for mint
func FindAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	return address, nil
}

func CreateAssociatedTokenAccountInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

func MintToInstruction(amount uint64, mint, destination, authority solana.PublicKey) solana.Instruction {
	return token.NewMintToInstruction(amount, mint, destination, authority, nil).Build()
}

func TransferCheckedInstruction(amount uint64, decimals uint8, source, mint, destination, owner solana.PublicKey) solana.Instruction {
	return token.NewTransferCheckedInstruction(amount, decimals, source, mint, destination, owner, nil).Build()
}

func FreezeAccountInstruction(account, mint, authority solana.PublicKey) solana.Instruction {
	return token.NewFreezeAccountInstruction(account, mint, authority, nil).Build()
}

func ThawAccountInstruction(account, mint, authority solana.PublicKey) solana.Instruction {
	return token.NewThawAccountInstruction(account, mint, authority, nil).Build()
}
