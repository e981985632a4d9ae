package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/operator-account-registry/api"
	"github.com/ruteri/operator-account-registry/common"
	"github.com/ruteri/operator-account-registry/config"
	"github.com/urfave/cli/v2"
)

// LoadConfig reads --config when given and overrides it with every flag
// that was set explicitly on the command line.
func LoadConfig(cCtx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := cCtx.String(ConfigFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cCtx.IsSet(OperatorFlag.Name) {
		cfg.Registry.Operator = cCtx.String(OperatorFlag.Name)
	}
	if cCtx.IsSet(StoreFlag.Name) {
		cfg.Registry.Stores = cCtx.StringSlice(StoreFlag.Name)
	}
	if cCtx.IsSet(ListenAddrFlag.Name) {
		cfg.Server.ListenAddr = cCtx.String(ListenAddrFlag.Name)
	}
	if cCtx.IsSet(MetricsAddrFlag.Name) {
		cfg.Server.MetricsAddr = cCtx.String(MetricsAddrFlag.Name)
	}
	if cCtx.IsSet(PprofFlag.Name) {
		cfg.Server.Pprof = cCtx.Bool(PprofFlag.Name)
	}
	if cCtx.IsSet(DrainSecondsFlag.Name) {
		cfg.Server.DrainDuration.Duration = time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second
	}
	if cCtx.IsSet(RpcAddrFlag.Name) {
		cfg.Chain.RPCAddr = cCtx.String(RpcAddrFlag.Name)
	}
	if cCtx.IsSet(ContractKeyFlag.Name) {
		cfg.Chain.ContractKey = cCtx.String(ContractKeyFlag.Name)
	}
	if cCtx.IsSet(LogJsonFlag.Name) {
		cfg.Log.JSON = cCtx.Bool(LogJsonFlag.Name)
	}
	if cCtx.IsSet(LogDebugFlag.Name) {
		cfg.Log.Debug = cCtx.Bool(LogDebugFlag.Name)
	}
	if cCtx.IsSet(LogUidFlag.Name) {
		cfg.Log.UID = cCtx.Bool(LogUidFlag.Name)
	}
	if cCtx.IsSet(LogServiceFlag.Name) {
		cfg.Log.Service = cCtx.String(LogServiceFlag.Name)
	}
	return cfg, nil
}

func SetupLogger(cfg config.LogConfig) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cfg.Debug,
		JSON:    cfg.JSON,
		Service: cfg.Service,
		Version: common.Version,
	})

	if cfg.UID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cfg *config.Config, logger *slog.Logger) *api.HTTPServerConfig {
	return &api.HTTPServerConfig{
		ListenAddr:               cfg.Server.ListenAddr,
		MetricsAddr:              cfg.Server.MetricsAddr,
		MetricsNamespace:         cfg.Server.MetricsNamespace,
		Log:                      logger,
		EnablePprof:              cfg.Server.Pprof,
		DrainDuration:            cfg.Server.DrainDuration.Duration,
		GracefulShutdownDuration: cfg.Server.ShutdownTimeout.Duration,
		ReadTimeout:              cfg.Server.ReadTimeout.Duration,
		WriteTimeout:             cfg.Server.WriteTimeout.Duration,
	}
}

var ConfigFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "TOML configuration file; explicitly set flags take precedence",
}

var OperatorFlag = &cli.StringFlag{
	Name:    "operator",
	EnvVars: []string{"REGISTRY_OPERATOR"},
	Usage:   "address of the only caller allowed to read and write accounts",
}

var StoreFlag = &cli.StringSliceFlag{
	Name:  "store",
	Value: cli.NewStringSlice("memory://"),
	Usage: "storage location URI, repeat for redundancy (memory://, file://, sqlite://, redis://, s3://, vault://, ipfs://, onchain://)",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var RpcAddrFlag = &cli.StringFlag{
	Name:  "rpc-addr",
	Value: "http://127.0.0.1:8545",
	Usage: "address to connect to RPC, used by onchain:// stores",
}

var ContractKeyFlag = &cli.StringFlag{
	Name:    "contract-key",
	EnvVars: []string{"REGISTRY_CONTRACT_KEY"},
	Usage:   "hex private key used to send setAccount transactions; onchain:// stores are read-only without it",
}

var ServerAddrFlag = &cli.StringFlag{
	Name:  "server",
	Value: "http://127.0.0.1:8080",
	Usage: "registry server address to request, or srv://name to look it up in DNS",
}

var KeyFlag = &cli.StringFlag{
	Name:    "key",
	EnvVars: []string{"REGISTRY_KEY"},
	Usage:   "hex private key used to sign requests",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "operator-account-registry",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
