package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/operator-account-registry/cmd/flags"
	"github.com/ruteri/operator-account-registry/config"
	"github.com/ruteri/operator-account-registry/httpserver"
	"github.com/ruteri/operator-account-registry/identity"
	"github.com/ruteri/operator-account-registry/interfaces"
	"github.com/ruteri/operator-account-registry/registry"
	"github.com/ruteri/operator-account-registry/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the operator-gated account registry",
		Flags: append([]cli.Flag{
			flags.ConfigFlag,
			flags.OperatorFlag,
			flags.StoreFlag,
			flags.ListenAddrFlag,
			flags.RpcAddrFlag,
			flags.ContractKeyFlag,
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			cfg, err := flags.LoadConfig(cCtx)
			if err != nil {
				return err
			}

			logger := flags.SetupLogger(cfg.Log)

			operator, err := identity.ParseOperator(cfg.Registry.Operator)
			if err != nil {
				logger.Error("Invalid operator", "err", err)
				return err
			}

			store, err := setupStore(cCtx.Context, cfg, logger)
			if err != nil {
				logger.Error("Failed to set up storage", "err", err)
				return err
			}

			verifier := identity.NewVerifier(logger)
			verifier.MaxSkew = cfg.Server.MaxClockSkew.Duration

			reg := registry.NewRegistry(operator, store, logger)
			server, err := httpserver.New(flags.ConfigureServer(cfg, logger), reg, verifier)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "operator", operator.Hex(), "store", store.LocationURI())
			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupStore builds the configured backends. The Ethereum client is only
// dialed when an onchain:// location is present.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (interfaces.KVStore, error) {
	if len(cfg.Registry.Stores) == 0 {
		return nil, fmt.Errorf("no store locations configured")
	}

	locations := make([]interfaces.StoreLocation, 0, len(cfg.Registry.Stores))
	needsChain := false
	for _, uri := range cfg.Registry.Stores {
		location, err := interfaces.NewStoreLocation(uri)
		if err != nil {
			return nil, err
		}
		needsChain = needsChain || location.Scheme == "onchain"
		locations = append(locations, location)
	}

	factory := storage.NewStoreFactory(logger)
	if needsChain {
		logger.Info("Connecting to Ethereum RPC", "address", cfg.Chain.RPCAddr)
		ethClient, err := ethclient.Dial(cfg.Chain.RPCAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial RPC: %w", err)
		}

		auth, err := transactOpts(ctx, ethClient, cfg.Chain.ContractKey)
		if err != nil {
			return nil, err
		}
		if auth == nil {
			logger.Warn("No contract key configured, onchain stores are read-only")
		}
		factory.WithOnchain(ethClient, ethClient, auth)
	}

	return factory.CreateMultiStore(locations)
}

func transactOpts(ctx context.Context, client *ethclient.Client, hexKey string) (*bind.TransactOpts, error) {
	if hexKey == "" {
		return nil, nil
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid contract key: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch chain id: %w", err)
	}

	return bind.NewKeyedTransactorWithChainID(key, chainID)
}
