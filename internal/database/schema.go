package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgxpool.Pool needed to apply the schema.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// statements are idempotent so EnsureSchema can run on every boot.
var statements = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		icon TEXT,
		display_order INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS subcategories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		display_order INT NOT NULL DEFAULT 0,
		UNIQUE (category_id, slug)
	)`,

	`CREATE TABLE IF NOT EXISTS businesses (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT,
		category_id UUID REFERENCES categories(id) ON DELETE SET NULL,
		subcategory_id UUID REFERENCES subcategories(id) ON DELETE SET NULL,
		address TEXT,
		city TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'CT',
		zip TEXT,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		phone TEXT,
		email TEXT,
		website TEXT,
		hours JSONB NOT NULL DEFAULT '{}'::jsonb,
		photos TEXT[] NOT NULL DEFAULT '{}',
		claimed BOOLEAN NOT NULL DEFAULT FALSE,
		claimed_by UUID REFERENCES users(id) ON DELETE SET NULL,
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		view_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT businesses_city_slug_key UNIQUE (city, slug),
		CONSTRAINT businesses_claimed_owner CHECK (claimed = (claimed_by IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS businesses_listing_idx ON businesses (active, featured DESC, name)`,

	`CREATE TABLE IF NOT EXISTS claims (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		business_id UUID NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_email TEXT NOT NULL,
		proof TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reviewed_at TIMESTAMPTZ,
		superseded_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS claims_user_business_active_key
		ON claims (user_id, business_id) WHERE status IN ('pending', 'approved')`,
	`CREATE INDEX IF NOT EXISTS claims_business_status_idx ON claims (business_id, status)`,

	`CREATE TABLE IF NOT EXISTS business_events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		business_id UUID NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		referrer TEXT,
		search_term TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS business_events_business_created_idx ON business_events (business_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS early_access_signups (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('consumer', 'business')),
		business_name TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT early_access_signups_email_key UNIQUE (email)
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		excerpt TEXT,
		content TEXT NOT NULL DEFAULT '',
		cover_image TEXT,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		published_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE OR REPLACE FUNCTION increment_view_count(business_id UUID) RETURNS VOID AS $$
		UPDATE businesses SET view_count = view_count + 1 WHERE id = business_id;
	$$ LANGUAGE sql`,
}

// EnsureSchema creates tables, indexes and functions when they are missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
