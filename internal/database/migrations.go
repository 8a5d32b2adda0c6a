package database

import "strings"

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
//
// Statements are written for SQLite and translated by translate for Postgres.
var migrations = [][]string{
	// Migration 1: core CRM tables
	{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE companies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			industry TEXT,
			website TEXT,
			address TEXT,
			employee_count INTEGER,
			annual_revenue TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE INDEX idx_companies_name ON companies(name)`,

		`CREATE TABLE contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			job_title TEXT,
			company_id INTEGER REFERENCES companies(id) ON DELETE SET NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			lead_source TEXT,
			lifecycle_stage TEXT,
			lead_score INTEGER NOT NULL DEFAULT 0,
			created_by INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE INDEX idx_contacts_company ON contacts(company_id)`,

		`CREATE TABLE deals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			value TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			stage TEXT NOT NULL,
			probability INTEGER NOT NULL DEFAULT 0,
			expected_close_date TEXT,
			actual_close_date TEXT,
			contact_id INTEGER REFERENCES contacts(id) ON DELETE SET NULL,
			company_id INTEGER REFERENCES companies(id) ON DELETE SET NULL,
			assigned_to INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE INDEX idx_deals_stage ON deals(stage)`,
		`CREATE INDEX idx_deals_assigned ON deals(assigned_to)`,

		// No foreign key on deal_id: history outlives a deleted deal.
		`CREATE TABLE deal_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deal_id INTEGER NOT NULL,
			old_stage TEXT,
			new_stage TEXT,
			old_value TEXT,
			new_value TEXT,
			old_probability INTEGER,
			new_probability INTEGER,
			changed_by INTEGER,
			change_reason TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_deal_history_deal ON deal_history(deal_id, created_at)`,
		`CREATE INDEX idx_deal_history_stages ON deal_history(old_stage, new_stage)`,

		`CREATE TABLE activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			subject TEXT NOT NULL,
			description TEXT,
			outcome TEXT,
			contact_id INTEGER REFERENCES contacts(id) ON DELETE SET NULL,
			deal_id INTEGER,
			user_id INTEGER,
			scheduled_at TEXT,
			completed_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_activities_deal ON activities(deal_id)`,
		`CREATE INDEX idx_activities_contact ON activities(contact_id)`,

		`CREATE TABLE tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			priority TEXT NOT NULL DEFAULT 'medium',
			status TEXT NOT NULL DEFAULT 'pending',
			due_date TEXT,
			assigned_to INTEGER NOT NULL,
			created_by INTEGER NOT NULL,
			related_contact_id INTEGER REFERENCES contacts(id) ON DELETE SET NULL,
			related_deal_id INTEGER,
			completed_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE INDEX idx_tasks_assigned ON tasks(assigned_to, status)`,
	},

	// Migration 2: agent run log
	{
		`CREATE TABLE agent_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent TEXT NOT NULL,
			subject_id INTEGER,
			user_id INTEGER,
			model TEXT,
			prompt TEXT NOT NULL,
			response TEXT,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_agent_runs_agent ON agent_runs(agent, created_at)`,
	},

	// Migration 3: market intelligence
	{
		`CREATE TABLE market_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			data_type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			source TEXT,
			url TEXT,
			industry TEXT,
			region TEXT,
			observed_at TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_market_data_type ON market_data(data_type, created_at)`,
	},
}

// translate adapts a SQLite DDL statement to the given dialect.
func translate(d Dialect, stmt string) string {
	if d != Postgres {
		return stmt
	}
	return strings.ReplaceAll(stmt, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
}
