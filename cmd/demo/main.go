// Package main wires the soft-delete platform against PostgreSQL and walks an
// order graph through a delete/restore round trip.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"tombstone/internal/domain/policy"
	"tombstone/internal/domain/sales"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/infrastructure/storage/postgres"
	"tombstone/internal/schema"
	"tombstone/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting tombstone demo")

	// --- Database connection ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	// --- Schema registry ---
	registry := schema.NewRegistry()
	if err := sales.RegisterSchema(registry); err != nil {
		log.Fatalw("failed to register schema", "error", err)
	}

	store := postgres.NewStore(registry, txm)

	// --- Hooks: deletion trail + guards ---
	deletionLog, err := postgres.NewDeletionLog(txm)
	if err != nil {
		log.Fatalw("failed to create deletion log", "error", err)
	}

	hooks := softdelete.NewHooks()
	// The order is what the user names; its dependents are trailed as cascade.
	hooks.On(sales.EntityOrder, softdelete.AfterSoftDelete, deletionLog.Hook(postgres.ActionSoftDelete, postgres.ReasonUserRequest))
	hooks.On(sales.EntityOrder, softdelete.AfterRestore, deletionLog.Hook(postgres.ActionRestore, postgres.ReasonUserRequest))
	for _, name := range []string{sales.EntityOrderLine, sales.EntityShipment} {
		hooks.On(name, softdelete.AfterSoftDelete, deletionLog.Hook(postgres.ActionSoftDelete, postgres.ReasonCascade))
		hooks.On(name, softdelete.AfterRestore, deletionLog.Hook(postgres.ActionRestore, postgres.ReasonCascade))
	}
	// Customers are reference data; deleting them is vetoed outright.
	hooks.On(sales.EntityCustomer, softdelete.BeforeSoftDelete, policy.MustGuard(`entity != "customer"`))

	controller := softdelete.NewController(softdelete.Config{
		Registry: registry,
		Store:    store,
		Hooks:    hooks,
		Logger:   log,
	})

	// --- Scenario: delete and restore an order with lines and a shipment ---
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		customer := sales.NewCustomer("C-0001", "ACME GmbH")
		order := sales.NewOrder("SO-0001", customer.ID)
		order.AddLine("WIDGET", decimal.NewFromInt(4), decimal.RequireFromString("19.90"))
		order.AddLine("GADGET", decimal.NewFromInt(1), decimal.RequireFromString("240.00"))
		shipment := sales.NewShipment(order.ID, "DHL")

		if err := store.Insert(ctx, customer); err != nil {
			return err
		}
		if err := store.Insert(ctx, order); err != nil {
			return err
		}
		for _, line := range order.Lines {
			if err := store.Insert(ctx, line); err != nil {
				return err
			}
		}
		if err := store.Insert(ctx, shipment); err != nil {
			return err
		}

		if err := controller.SoftDelete(ctx, order); err != nil {
			return err
		}
		deleted, err := store.List(ctx, sales.EntityOrderLine, softdelete.ScopeDeleted)
		if err != nil {
			return err
		}
		log.Infow("order soft deleted", "order", order.Number, "deleted_lines", len(deleted))

		if err := controller.Restore(ctx, order); err != nil {
			return err
		}
		active, err := store.List(ctx, sales.EntityOrderLine, softdelete.ScopeActive)
		if err != nil {
			return err
		}
		log.Infow("order restored", "order", order.Number, "active_lines", len(active))

		return nil
	})
	if err != nil {
		log.Fatalw("demo scenario failed", "error", err)
	}

	log.Info("demo finished")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Printf("required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return v
}
