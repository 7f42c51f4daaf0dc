package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iTheRudy/solana-token/token"
)

type publicKeyRequest struct {
	PublicKey string `json:"publicKey"`
}

type mnemonicRequest struct {
	Mnemonic string `json:"mnemonic"`
}

type tokenAccountRequest struct {
	TokenAccount string `json:"tokenAccount"`
}

type creditRequest struct {
	TokenAccount string           `json:"tokenAccount"`
	Amount       *decimal.Decimal `json:"amount"`
}

type supplyRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	PayerMnemonic        string           `json:"payerMnemonic"`
	PayerTokenAccount    string           `json:"payerTokenAccount"`
	ReceiverTokenAccount string           `json:"receiverTokenAccount"`
	Amount               *decimal.Decimal `json:"amount"`
}

func requireAmount(amount *decimal.Decimal) error {
	if amount == nil {
		return fmt.Errorf("%w: amount is required", token.ErrInvalidRequest)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"ledger":      "up",
		"blockHeight": s.service.LastBlockHeight(),
		"mint":        s.service.Mint().String(),
	}
	if !s.service.Available() {
		data["ledger"] = "down"
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Status: statusError,
			Error:  token.ErrLedgerUnavailable.Error(),
			Data:   data,
		})
		return
	}
	writeSuccess(w, data)
}

func (s *Server) handleGenerateWallet(w http.ResponseWriter, r *http.Request) {
	generated, err := s.service.GenerateWallet(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, generated)
}

func (s *Server) handlePublicKeyFromMnemonic(w http.ResponseWriter, r *http.Request) {
	var req mnemonicRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := required("mnemonic", req.Mnemonic); err != nil {
		s.fail(w, r, err)
		return
	}

	publicKey, err := s.service.PublicKeyFromMnemonic(req.Mnemonic)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, map[string]string{"publicKey": publicKey})
}

func (s *Server) handleGetOrCreateTokenAccount(w http.ResponseWriter, r *http.Request) {
	var req publicKeyRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := required("publicKey", req.PublicKey); err != nil {
		s.fail(w, r, err)
		return
	}

	address, err := s.service.GetOrCreateTokenAccount(r.Context(), req.PublicKey)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, map[string]string{"tokenAccountPublicKey": address})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	var req publicKeyRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.PublicKey == "" {
		req.PublicKey = r.URL.Query().Get("publicKey")
	}
	if err := required("publicKey", req.PublicKey); err != nil {
		s.fail(w, r, err)
		return
	}

	balances, err := s.service.Balances(r.Context(), req.PublicKey)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, map[string]interface{}{"balances": balances})
}

func (s *Server) handleCreditAccount(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := required("tokenAccount", req.TokenAccount); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := requireAmount(req.Amount); err != nil {
		s.fail(w, r, err)
		return
	}

	signature, err := s.service.CreditAccount(r.Context(), req.TokenAccount, *req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, map[string]string{"signature": signature})
}

func (s *Server) handleGetSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := s.service.CurrentSupply(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, map[string]interface{}{"supply": supply})
}

func (s *Server) handleCreateSupply(w http.ResponseWriter, r *http.Request) {
	var req supplyRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := requireAmount(req.Amount); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.service.CreateSupply(r.Context(), *req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, result)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	for _, f := range []struct{ name, value string }{
		{"payerMnemonic", req.PayerMnemonic},
		{"payerTokenAccount", req.PayerTokenAccount},
		{"receiverTokenAccount", req.ReceiverTokenAccount},
	} {
		if err := required(f.name, f.value); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if err := requireAmount(req.Amount); err != nil {
		s.fail(w, r, err)
		return
	}

	signature, err := s.service.TransferTokens(r.Context(), token.TransferRequest{
		PayerMnemonic:        req.PayerMnemonic,
		PayerTokenAccount:    req.PayerTokenAccount,
		ReceiverTokenAccount: req.ReceiverTokenAccount,
		Amount:               *req.Amount,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, map[string]string{"signature": signature})
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	s.handleAccountState(w, r, s.service.FreezeAccount)
}

func (s *Server) handleThaw(w http.ResponseWriter, r *http.Request) {
	s.handleAccountState(w, r, s.service.ThawAccount)
}

func (s *Server) handleAccountState(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, tokenAccount string) (string, error)) {
	var req tokenAccountRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := required("tokenAccount", req.TokenAccount); err != nil {
		s.fail(w, r, err)
		return
	}

	signature, err := apply(r.Context(), req.TokenAccount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSuccess(w, map[string]string{"signature": signature})
}
