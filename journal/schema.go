package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	date TEXT NOT NULL,
	shares INTEGER NOT NULL,
	price TEXT NOT NULL,
	amount TEXT NOT NULL,
	cash_after TEXT NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, date);

CREATE TABLE IF NOT EXISTS results (
	run_id TEXT NOT NULL,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	symbol TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	starting_cash TEXT NOT NULL,
	ending_cash TEXT NOT NULL,
	gain_loss TEXT NOT NULL,
	gain_loss_pct TEXT NOT NULL,
	trades INTEGER NOT NULL,
	skipped TEXT NOT NULL,
	PRIMARY KEY (run_id, symbol)
);
`
