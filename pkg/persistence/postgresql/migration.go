package postgresql

// migrations returns the ordered schema migrations for the playbook store.
// Steps and trigger conditions are stored as JSONB documents: the editor is
// the single writer of a playbook's graph and reads it whole.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS playbooks (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				steps JSONB NOT NULL DEFAULT '[]',
				trigger_type TEXT,
				trigger_conditions JSONB,
				status TEXT NOT NULL DEFAULT 'draft',
				revision BIGINT NOT NULL DEFAULT 1,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_playbooks_status ON playbooks (status);

			CREATE TABLE IF NOT EXISTS executions (
				id UUID PRIMARY KEY,
				playbook_id UUID NOT NULL REFERENCES playbooks (id) ON DELETE CASCADE,
				customer_id TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				results JSONB NOT NULL DEFAULT '[]',
				error TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_executions_playbook_id ON executions (playbook_id);
		`,
	}
}
