package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	sol "github.com/iTheRudy/solana-token/chains/solana"
	"github.com/iTheRudy/solana-token/metrics"
)

// BlockHeight returns the current block height of the endpoint
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get block height: %w", err)
	}
	return height, nil
}

// TokenAccount fetches and decodes an SPL token account
func (c *Client) TokenAccount(ctx context.Context, address solana.PublicKey) (*TokenAccount, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}

	if !out.Value.Owner.Equals(solana.TokenProgramID) {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrAccountNotFound, address, out.Value.Owner)
	}

	var account token.Account
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to decode token account %s: %w", address, err)
	}

	return &TokenAccount{
		Address: address,
		Mint:    account.Mint,
		Owner:   account.Owner,
		Amount:  account.Amount,
		Frozen:  account.State == token.Frozen,
	}, nil
}

// GetOrCreateAssociatedTokenAccount returns the associated token account of
// owner for mint, creating it with payer's funds when it does not exist yet
func (c *Client) GetOrCreateAssociatedTokenAccount(ctx context.Context, payer solana.PrivateKey, mint, owner solana.PublicKey) (solana.PublicKey, bool, error) {
	address, err := sol.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, false, err
	}

	_, err = c.TokenAccount(ctx, address)
	if err == nil {
		return address, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return solana.PublicKey{}, false, err
	}

	tx := sol.NewTransaction(payer).
		AddInstruction(sol.CreateAssociatedTokenAccountInstruction(payer.PublicKey(), owner, mint))

	if _, err := c.submit(ctx, "create_associated_token_account", tx); err != nil {
		// Another request may have created the account in the meantime
		if _, lookupErr := c.TokenAccount(ctx, address); lookupErr == nil {
			return address, false, nil
		}
		return solana.PublicKey{}, false, fmt.Errorf("failed to create associated token account: %w", err)
	}

	return address, true, nil
}

// TokenBalances lists every SPL token account held by owner
func (c *Client) TokenBalances(ctx context.Context, owner solana.PublicKey) ([]TokenBalance, error) {
	out, err := c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{
			ProgramId: solana.TokenProgramID.ToPointer(),
		},
		&rpc.GetTokenAccountsOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	balances := make([]TokenBalance, 0)
	if out == nil {
		return balances, nil
	}

	decimals := make(map[solana.PublicKey]uint8)
	for _, tokenAccount := range out.Value {
		if tokenAccount == nil {
			continue
		}

		var account token.Account
		if err := bin.NewBinDecoder(tokenAccount.Account.Data.GetBinary()).Decode(&account); err != nil {
			return nil, fmt.Errorf("failed to decode token account %s: %w", tokenAccount.Pubkey, err)
		}

		d, ok := decimals[account.Mint]
		if !ok {
			supply, err := c.TokenSupply(ctx, account.Mint)
			if err != nil {
				return nil, err
			}
			d = supply.Decimals
			decimals[account.Mint] = d
		}

		balances = append(balances, TokenBalance{
			Account:  tokenAccount.Pubkey,
			Mint:     account.Mint,
			Amount:   account.Amount,
			Decimals: d,
		})
	}

	return balances, nil
}

// TokenSupply returns the supply and precision of a mint
func (c *Client) TokenSupply(ctx context.Context, mint solana.PublicKey) (*Supply, error) {
	out, err := c.rpc.GetTokenSupply(ctx, mint, c.commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to get token supply of %s: %w", mint, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("no supply returned for mint %s", mint)
	}

	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid supply amount %q: %w", out.Value.Amount, err)
	}

	return &Supply{
		Amount:   amount,
		Decimals: out.Value.Decimals,
	}, nil
}

// MintTo mints amount base units of mint into destination
func (c *Client) MintTo(ctx context.Context, payer, authority solana.PrivateKey, mint, destination solana.PublicKey, amount uint64) (solana.Signature, error) {
	tx := sol.NewTransaction(payer).
		AddInstruction(sol.MintToInstruction(amount, mint, destination, authority.PublicKey())).
		AddSigner(authority)

	return c.submit(ctx, "mint_to", tx)
}

// Transfer moves tokens between two token accounts of the same mint
func (c *Client) Transfer(ctx context.Context, params TransferParams) (solana.Signature, error) {
	feePayer := params.FeePayer
	if len(feePayer) == 0 {
		feePayer = params.Owner
	}

	tx := sol.NewTransaction(feePayer).
		AddInstruction(sol.TransferCheckedInstruction(
			params.Amount,
			params.Decimals,
			params.Source,
			params.Mint,
			params.Destination,
			params.Owner.PublicKey(),
		)).
		AddSigner(params.Owner)

	return c.submit(ctx, "transfer", tx)
}

// FreezeAccount freezes a token account with the mint's freeze authority
func (c *Client) FreezeAccount(ctx context.Context, payer, authority solana.PrivateKey, account, mint solana.PublicKey) (solana.Signature, error) {
	tx := sol.NewTransaction(payer).
		AddInstruction(sol.FreezeAccountInstruction(account, mint, authority.PublicKey())).
		AddSigner(authority)

	return c.submit(ctx, "freeze_account", tx)
}

// ThawAccount thaws a frozen token account
func (c *Client) ThawAccount(ctx context.Context, payer, authority solana.PrivateKey, account, mint solana.PublicKey) (solana.Signature, error) {
	tx := sol.NewTransaction(payer).
		AddInstruction(sol.ThawAccountInstruction(account, mint, authority.PublicKey())).
		AddSigner(authority)

	return c.submit(ctx, "thaw_account", tx)
}

// submit attaches a fresh blockhash, signs, sends and waits for confirmation
func (c *Client) submit(ctx context.Context, operation string, tx *sol.Transaction) (sig solana.Signature, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerTransaction(operation, err, time.Since(start))
	}()

	// Get blockhash immediately before signing
	latest, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get blockhash: %w", err)
	}
	if latest == nil || latest.Value == nil {
		return solana.Signature{}, fmt.Errorf("failed to get blockhash: empty response")
	}

	stx, err := tx.SetRecentBlockhash(latest.Value.Blockhash).Build()
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err = c.rpc.SendTransactionWithOpts(ctx, stx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	log := c.log.WithFields(logrus.Fields{
		"operation": operation,
		"signature": sig.String(),
	})
	log.Debug("transaction submitted")

	if err := c.confirm(ctx, sig); err != nil {
		log.WithError(err).Warn("transaction not confirmed")
		return sig, err
	}

	log.WithField("duration", time.Since(start)).Info("transaction confirmed")
	return sig, nil
}

// confirm polls the signature status until the client's commitment is reached
func (c *Client) confirm(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, status.Err)
			}
			if commitmentReached(status.ConfirmationStatus, c.commitment) {
				return nil
			}
		} else if err != nil {
			c.log.WithError(err).WithField("signature", sig.String()).Debug("signature status lookup failed")
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrConfirmationTimeout, sig)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func commitmentReached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	default:
		return status != ""
	}
}
