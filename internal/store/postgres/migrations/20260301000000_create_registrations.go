package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating registrations table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS registrations (
					id UUID PRIMARY KEY,
					user_id VARCHAR(128) NOT NULL,
					game_id VARCHAR(64) NOT NULL,
					game_name VARCHAR(200) NOT NULL,
					game_day VARCHAR(8) NOT NULL,
					registration_type VARCHAR(16) NOT NULL,
					team_name VARCHAR(200),
					team_leader JSONB NOT NULL,
					team_members JSONB NOT NULL DEFAULT '[]'::jsonb,
					total_fee BIGINT NOT NULL CHECK (total_fee >= 0),
					approval_status VARCHAR(16) NOT NULL DEFAULT 'pending',
					payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT registrations_user_day_key UNIQUE (user_id, game_day)
				);
				CREATE INDEX IF NOT EXISTS idx_registrations_approval_status ON registrations(approval_status);
				CREATE INDEX IF NOT EXISTS idx_registrations_game_day ON registrations(game_day);
			`); err != nil {
				return fmt.Errorf("failed to create registrations table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Rolling back registrations table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS registrations;`); err != nil {
			return fmt.Errorf("failed to drop registrations table: %w", err)
		}
		return nil
	})
}
