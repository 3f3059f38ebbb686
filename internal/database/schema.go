package database

const schemaSQL = `
-- One row per crawl
CREATE TABLE IF NOT EXISTS crawl_runs (
	id UUID PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	admitted INTEGER NOT NULL DEFAULT 0,
	token_cost INTEGER NOT NULL DEFAULT 0
);

-- Job records, unique per board
CREATE TABLE IF NOT EXISTS jobs (
	source TEXT NOT NULL,
	job_id TEXT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	posted_time TIMESTAMPTZ,
	title_language TEXT NOT NULL DEFAULT '',
	description_language TEXT NOT NULL DEFAULT '',
	seniority_level TEXT NOT NULL DEFAULT '',
	employment_type TEXT NOT NULL DEFAULT '',
	job_function TEXT NOT NULL DEFAULT '',
	industries TEXT NOT NULL DEFAULT '',
	required_studies TEXT NOT NULL DEFAULT '',
	technologies_required TEXT[] NOT NULL DEFAULT '{}',
	experience_years_needed INTEGER NOT NULL DEFAULT 0,
	salary_offered TEXT NOT NULL DEFAULT '',
	easy_apply BOOLEAN NOT NULL DEFAULT FALSE,
	date_analyzed TIMESTAMPTZ,
	run_id UUID REFERENCES crawl_runs(id),
	PRIMARY KEY (source, job_id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_date_analyzed ON jobs(date_analyzed DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_company_title ON jobs(lower(company), lower(title));
`
