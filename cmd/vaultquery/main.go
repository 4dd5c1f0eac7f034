package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/config"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/configuration"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/metrics"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

type app struct {
	log      logger.Logger
	repos    *configuration.Repositories
	registry *prometheus.Registry
}

func open(ctx context.Context) (*app, error) {
	cfg, err := config.Init()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).Component(cfg.App.ServiceName)

	a := &app{log: log}
	var registerer prometheus.Registerer
	if cfg.Metrics.Enabled {
		a.registry, registerer = metrics.NewRegistry(cfg.App.ServiceName, cfg.Metrics.DefaultCollectors)
	}
	if a.repos, err = configuration.New(ctx, *cfg, log, registerer); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if err := a.repos.Close(); err != nil {
		a.log.Error().Err(err).Msg("close repositories")
	}
}

type locationFlags struct {
	backend string
	path    string
}

func (f locationFlags) register(repos *configuration.Repositories, entity string) error {
	if f.backend == "" && f.path == "" {
		return nil
	}
	return repos.Register(mapping.Secret{Entity: entity, Backend: f.backend, Path: f.path})
}

func newRootCmd() *cobra.Command {
	var (
		inv      invocation
		sortExpr string
		location locationFlags
	)
	root := &cobra.Command{
		Use:   "vaultquery --entity ENTITY --method METHOD [VALUE...]",
		Short: "Run derived queries against secrets stored in Vault",
		Long: "Runs a derived query method such as findTop3ByIdStartingWithOrderByIdDesc.\n" +
			"Values containing commas are passed as lists.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if inv.sort, err = query.ParseSort(sortExpr); err != nil {
				return err
			}
			inv.args = parseValues(args)

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			if err := location.register(a.repos, inv.entity); err != nil {
				return err
			}
			result, err := execute(cmd.Context(), a.repos, inv)
			if err != nil {
				return err
			}
			return result.write(cmd.OutOrStdout())
		},
	}
	root.Flags().StringVar(&inv.entity, "entity", "", "entity whose secrets are queried")
	root.Flags().StringVar(&inv.method, "method", "", "derived query method name")
	root.Flags().StringVar(&sortExpr, "sort", "", `additional ordering, e.g. "id,desc"`)
	root.PersistentFlags().StringVar(&location.backend, "backend", "", "secrets engine mount of the entity")
	root.PersistentFlags().StringVar(&location.path, "path", "", "path of the entity below its mount")
	_ = root.MarkFlagRequired("entity")
	_ = root.MarkFlagRequired("method")

	root.AddCommand(newServeCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
