package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iTheRudy/solana-token/api"
	"github.com/iTheRudy/solana-token/server"
	"github.com/iTheRudy/solana-token/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

The ledger is probed on start and every PROBE_INTERVAL afterwards; wallet
generation is refused while the probe fails. SIGINT or SIGTERM drains
in-flight requests for up to SHUTDOWN_GRACE_PERIOD.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := configureLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	log := logrus.StandardLogger().WithField("type", "cmd/serve")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	service, client, err := newService()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if height, err := service.Probe(ctx); err != nil {
		log.WithError(err).Error("error while connecting to the ledger")
	} else {
		log.WithFields(logrus.Fields{
			"block_height": height,
			"commitment":   client.Commitment(),
			"mint":         service.Mint().String(),
		}).Info("connected to the ledger")
	}
	go service.Run(ctx)

	srv := server.New(service, server.Config{
		Addr:                cfg.ListenAddr(),
		CORSOrigins:         cfg.CORSOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		ShutdownGracePeriod: cfg.ShutdownGracePeriod,
	}, logrus.StandardLogger().WithField("type", "server"))

	return srv.ListenAndServe(ctx)
}

// newService builds the token service from the loaded configuration
func newService() (*token.Service, *api.Client, error) {
	mint, treasury, err := cfg.Addresses()
	if err != nil {
		return nil, nil, err
	}

	keys, err := cfg.Keyring()
	if err != nil {
		return nil, nil, err
	}

	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.ClientOptions()
	if err != nil {
		return nil, nil, err
	}
	opts.Logger = logrus.StandardLogger().WithField("type", "api/client")
	client := api.NewClient(endpoint, opts)

	service, err := token.NewService(client, token.Config{
		Mint:                mint,
		TreasuryAccount:     treasury,
		Keys:                keys,
		SponsorTransferFees: cfg.SponsorTransferFees,
		ProbeInterval:       cfg.ProbeInterval,
	}, logrus.StandardLogger().WithField("type", "token/service"))
	if err != nil {
		return nil, nil, err
	}

	return service, client, nil
}
