package api

// API Client-
//
// Files:
//   config.go    - RPC endpoints, network and commitment constants
//   types.go     - Struct definitions (token account, balance, supply) and errors
//   base.go      - Core client functionality (RPC interface, client struct, newClient)
//   solana.go    - Ledger operations (account lookup, ATA creation, mint, transfer, freeze)
//
// Usage:
//   client := api.NewClient(api.TestnetSolanaRPC, api.Options{})     // from base.go
//   account, err := client.TokenAccount(ctx, address)                 // from solana.go
//   sig, err := client.MintTo(ctx, payer, authority, mint, dest, n)  // from solana.go
