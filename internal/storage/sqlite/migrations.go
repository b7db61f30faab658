package sqlite

import "database/sql"

// schema sets up the ledger tables. It runs on startup to ensure tables exist.
// Subscriptions must be created before subscription_members due to the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
    key TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    group_id TEXT NOT NULL,
    total_cost TEXT NOT NULL,
    cost_per_person TEXT NOT NULL,
    created_at TEXT NOT NULL,
    next_payment TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subscription_members (
    subscription_key TEXT NOT NULL,
    position INTEGER NOT NULL,
    member_id TEXT NOT NULL,
    PRIMARY KEY (subscription_key, member_id),
    FOREIGN KEY (subscription_key) REFERENCES subscriptions(key) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payments (
    key TEXT PRIMARY KEY,
    paid INTEGER NOT NULL DEFAULT 0,
    last_payment TEXT
);

CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_group_id ON subscriptions(group_id);
CREATE INDEX IF NOT EXISTS idx_subscription_members_key ON subscription_members(subscription_key);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
