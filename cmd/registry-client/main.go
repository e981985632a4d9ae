package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/operator-account-registry/api/clients"
	"github.com/ruteri/operator-account-registry/cmd/flags"
	"github.com/ruteri/operator-account-registry/interfaces"
	"github.com/ruteri/operator-account-registry/serviceresolver"
	"github.com/urfave/cli/v2"
)

var flagDNSServer = &cli.StringFlag{
	Name:  "dns-server",
	Value: serviceresolver.DefaultNameserver,
	Usage: "nameserver used to resolve srv:// server addresses",
}

var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 30 * time.Second,
	Usage: "request timeout",
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Read and write registry accounts as a signing caller",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flags.KeyFlag,
			flagDNSServer,
			flagTimeout,
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the address bound to an identifier",
				ArgsUsage: "<id>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return cli.Exit("usage: get <id>", 2)
					}
					client, err := newClient(cCtx)
					if err != nil {
						return err
					}

					address, found, err := client.GetAccount(cCtx.Context, cCtx.Args().Get(0))
					if err != nil {
						return exitError(err)
					}
					if !found {
						return cli.Exit("account not found", 1)
					}
					fmt.Println(address)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "bind an identifier to an address",
				ArgsUsage: "<id> <address>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return cli.Exit("usage: set <id> <address>", 2)
					}
					client, err := newClient(cCtx)
					if err != nil {
						return err
					}

					if err := client.SetAccount(cCtx.Context, cCtx.Args().Get(0), cCtx.Args().Get(1)); err != nil {
						return exitError(err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) (*clients.RegistryClient, error) {
	hexKey := cCtx.String(flags.KeyFlag.Name)
	if hexKey == "" {
		return nil, cli.Exit("--key or REGISTRY_KEY is required", 2)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}

	serverAddr, err := serviceresolver.NewResolver(cCtx.String(flagDNSServer.Name)).ResolveServerAddr(cCtx.String(flags.ServerAddrFlag.Name))
	if err != nil {
		return nil, err
	}

	return &clients.RegistryClient{
		ServerAddr: serverAddr,
		Key:        key,
		HTTPClient: &http.Client{Timeout: cCtx.Duration(flagTimeout.Name)},
	}, nil
}

func exitError(err error) error {
	if errors.Is(err, interfaces.ErrUnauthorized) {
		return cli.Exit("unauthorized: the key is not the registry operator", 1)
	}
	return err
}
