package cmd

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hexbet/internal/operator"
)

func operatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Run the round operator against a node's RPC endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateOperator(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			seed, err := cfg.Operator.Seed()
			if err != nil {
				return err
			}
			priv := ed25519.NewKeyFromSeed(seed)

			node, err := operator.DialNode(cfg.Operator.RPC)
			if err != nil {
				return err
			}
			secrets, err := operator.OpenSecretStore(cfg.Home, cfg.Operator.SecretDB)
			if err != nil {
				return err
			}
			defer func() { _ = secrets.Close() }()

			logger.Info("operator key",
				"account", cfg.Operator.Account,
				"pub_key", hex.EncodeToString(priv.Public().(ed25519.PublicKey)),
			)
			op := operator.New(node, secrets, cfg.Operator.Account, priv, operator.WithLogger(logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := op.Run(ctx, cfg.Operator.Schedule); err != nil {
				return fmt.Errorf("operator: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String(flagRPC, "", "CometBFT RPC endpoint")
	return cmd
}
