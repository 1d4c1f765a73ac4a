package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// SeedDemoData creates the demo user and a few starter transactions
// on first run. A no-op when the demo user already exists.
func SeedDemoData(ctx context.Context, store storage.Store) error {
	if _, err := store.GetUserByUsername(ctx, "demo"); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check demo user: %w", err)
	}

	slog.InfoContext(ctx, "Seeding database with demo user")

	hash, err := HashPassword("password")
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	user, err := store.CreateUser(ctx, "demo", hash)
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	now := time.Now()
	seeds := []core.TransactionInput{
		{Amount: "5000.00", Category: "Salary", Date: now, Description: "Monthly Salary", Type: core.Income},
		{Amount: "150.00", Category: "Food", Date: now.AddDate(0, 0, -1), Description: "Groceries", Type: core.Expense},
		{Amount: "50.00", Category: "Transport", Date: now.AddDate(0, 0, -2), Description: "Uber", Type: core.Expense},
	}
	for _, in := range seeds {
		if _, err := store.CreateTransaction(ctx, user.ID, in); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}

	slog.InfoContext(ctx, "Seeding complete", "user_id", user.ID, "transactions", len(seeds))
	return nil
}
