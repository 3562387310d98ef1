package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    discord_id TEXT UNIQUE NOT NULL,
    username TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    nickname TEXT NOT NULL,
    rp_amount INTEGER NOT NULL DEFAULT 0,
    friends_count INTEGER NOT NULL DEFAULT 0,
    max_friends INTEGER NOT NULL DEFAULT 250,
    region TEXT NOT NULL DEFAULT 'BR',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS friendships (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    game_nickname TEXT NOT NULL,
    game_tag TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    notified_eligible BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE(user_id, account_id)
);

CREATE TABLE IF NOT EXISTS carts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    ticket_channel_id TEXT UNIQUE NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    total_rp INTEGER NOT NULL DEFAULT 0,
    total_price REAL NOT NULL DEFAULT 0.00,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cart_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cart_id INTEGER NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    skin_name TEXT NOT NULL,
    skin_price INTEGER NOT NULL,
    skin_image_url TEXT,
    category TEXT,
    original_item_id INTEGER,
    added_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reference TEXT UNIQUE NOT NULL,
    cart_id INTEGER NOT NULL REFERENCES carts(id),
    user_id INTEGER NOT NULL REFERENCES users(id),
    friendship_id INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'PENDING_PAYMENT_PROOF',
    payment_proof_url TEXT,
    total_rp INTEGER NOT NULL,
    total_price REAL NOT NULL,
    approved_by TEXT,
    completed_at DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_discord_id ON users(discord_id);
CREATE INDEX IF NOT EXISTS idx_carts_channel_id ON carts(ticket_channel_id);
CREATE INDEX IF NOT EXISTS idx_carts_status ON carts(status);
CREATE INDEX IF NOT EXISTS idx_cart_items_cart_id ON cart_items(cart_id);
CREATE INDEX IF NOT EXISTS idx_friendships_user_id ON friendships(user_id);
CREATE INDEX IF NOT EXISTS idx_friendships_account_id ON friendships(account_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
`

const defaultSettings = `
INSERT OR IGNORE INTO settings (key, value) VALUES
    ('price_per_rp', '0.035'),
    ('pix_key', ''),
    ('min_friendship_days', '7'),
    ('panel_title', 'PawStore'),
    ('panel_description', 'Abra um ticket para montar seu pedido.');
`

const migrations = `
ALTER TABLE friendships ADD COLUMN notified_eligible BOOLEAN NOT NULL DEFAULT FALSE;
ALTER TABLE orders ADD COLUMN friendship_id INTEGER NOT NULL DEFAULT 0;
ALTER TABLE accounts ADD COLUMN region TEXT NOT NULL DEFAULT 'BR';
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return err
	}

	_, err = db.Exec(defaultSettings)
	if err != nil {
		return err
	}

	db.Exec(migrations)

	return nil
}
