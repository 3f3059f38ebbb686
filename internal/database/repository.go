package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

const upsertJobSQL = `
	INSERT INTO jobs (source, job_id, title, url, company, location, posted_time,
		title_language, description_language, seniority_level, employment_type,
		job_function, industries, required_studies, technologies_required,
		experience_years_needed, salary_offered, easy_apply, date_analyzed, run_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (source, job_id)
	DO UPDATE SET title = EXCLUDED.title, url = EXCLUDED.url, company = EXCLUDED.company,
		location = EXCLUDED.location, posted_time = EXCLUDED.posted_time,
		title_language = EXCLUDED.title_language, description_language = EXCLUDED.description_language,
		seniority_level = EXCLUDED.seniority_level, employment_type = EXCLUDED.employment_type,
		job_function = EXCLUDED.job_function, industries = EXCLUDED.industries,
		required_studies = EXCLUDED.required_studies, technologies_required = EXCLUDED.technologies_required,
		experience_years_needed = EXCLUDED.experience_years_needed, salary_offered = EXCLUDED.salary_offered,
		easy_apply = EXCLUDED.easy_apply, date_analyzed = EXCLUDED.date_analyzed, run_id = EXCLUDED.run_id`

const insertRunSQL = `
	INSERT INTO crawl_runs (id, started_at, finished_at, admitted, token_cost)
	VALUES ($1, $2, $3, $4, $5)`

// Run is the bookkeeping row of one crawl.
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Admitted   int
	TokenCost  int
}

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	//poolers in transaction mode cannot keep prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Migrate creates the tables when they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveRun records a crawl and upserts its records in one transaction.
func (r *Repository) SaveRun(ctx context.Context, run Run, records []models.JobRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertRunSQL, run.ID, run.StartedAt, run.FinishedAt, run.Admitted, run.TokenCost); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	if err := sendBatch(ctx, tx, BuildBatch(run.ID, records)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// SaveJobs upserts records keyed by (source, job_id) without a run row.
func (r *Repository) SaveJobs(ctx context.Context, records []models.JobRecord) error {
	return sendBatch(ctx, r.db, BuildBatch(uuid.Nil, records))
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func sendBatch(ctx context.Context, db batchSender, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	results := db.SendBatch(ctx, batch)
	var errs []error
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", i, err))
		}
	}
	if err := results.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to save jobs: %w", errors.Join(errs...))
	}
	return nil
}

// BuildBatch queues one upsert per record. A nil run id is stored as NULL.
func BuildBatch(runID uuid.UUID, records []models.JobRecord) *pgx.Batch {
	var run any
	if runID != uuid.Nil {
		run = runID
	}
	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		techs := rec.TechnologiesRequired
		if techs == nil {
			techs = []string{}
		}
		salary := ""
		if !rec.SalaryOffered.IsZero() {
			salary = rec.SalaryOffered.String()
		}
		batch.Queue(upsertJobSQL,
			string(rec.Source), rec.JobID, rec.Title, rec.URL, rec.Company, rec.Location,
			nullTime(rec.PostedTime), rec.TitleLanguage, rec.DescriptionLanguage,
			rec.SeniorityLevel, rec.EmploymentType, rec.JobFunction, rec.Industries,
			rec.RequiredStudies, techs, rec.ExperienceYearsNeeded, salary, rec.EasyApply,
			nullTime(rec.DateAnalyzed), run,
		)
	}
	return batch
}

func nullTime(ts models.Timestamp) *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}
