package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/invosync/invosync/internal/category"
	"github.com/invosync/invosync/internal/config"
	"github.com/invosync/invosync/internal/customer"
	"github.com/invosync/invosync/internal/ingest"
	"github.com/invosync/invosync/internal/invoice"
	"github.com/invosync/invosync/internal/migration"
	"github.com/invosync/invosync/internal/observability/metrics"
	"github.com/invosync/invosync/internal/reporting"
	"github.com/invosync/invosync/internal/vendors"
	"github.com/invosync/invosync/pkg/db"
	"github.com/invosync/invosync/pkg/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		metrics.Module,

		// Functional domains
		vendor.Module,
		customer.Module,
		category.Module,
		invoice.Module,
		reporting.Module,
		ingest.Module,

		fx.Invoke(runIngestion),
	).Run()
}

// runIngestion executes one ingestion pass and shuts the app down.
// Individual record failures are non-fatal; only driver faults produce a
// non-zero exit.
func runIngestion(lc fx.Lifecycle, runner *ingest.Runner, shutdowner fx.Shutdowner, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				summary, err := runner.Run(context.Background())
				if err != nil {
					logger.Error("ingestion aborted", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				fmt.Printf("Summary: %d successful, %d errors (of %d records)\n",
					summary.Succeeded, summary.Failed, summary.Total)
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
