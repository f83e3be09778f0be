package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairline/fairsweep/internal/dataset"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const jobColumns = `job_id, name, requester,
	constraint_name, grid_size, eval_fraction, seed, standardize, include_predictions,
	dataset,
	status, error,
	created_at, started_at, completed_at, updated_at,
	result`

func (s *PostgresStore) CreateJob(ctx context.Context, job *Job) error {
	datasetJSON, err := json.Marshal(job.Dataset)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO sweep_jobs (name, requester,
			constraint_name, grid_size, eval_fraction, seed, standardize, include_predictions,
			dataset, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING job_id, created_at, updated_at`,
		job.Name, job.Requester,
		job.Constraint, job.GridSize, job.EvalFraction, job.Seed, job.Standardize, job.IncludePredictions,
		datasetJSON, job.Status,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM sweep_jobs WHERE job_id = $1`, id)
	job, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM sweep_jobs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.Requester != "" {
		n++
		query += fmt.Sprintf(" AND requester = $%d", n)
		args = append(args, filter.Requester)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (s *PostgresStore) GetPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM sweep_jobs WHERE status = 'pending'
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) GetRunningJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM sweep_jobs WHERE status = 'running'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *Job) error {
	datasetJSON, err := json.Marshal(job.Dataset)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	resultJSON, err := json.Marshal(job.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE sweep_jobs SET
			name = $2, requester = $3,
			constraint_name = $4, grid_size = $5, eval_fraction = $6, seed = $7,
			standardize = $8, include_predictions = $9,
			dataset = $10,
			status = $11, error = $12,
			started_at = $13, completed_at = $14, updated_at = now(),
			result = $15
		WHERE job_id = $1`,
		job.ID, job.Name, job.Requester,
		job.Constraint, job.GridSize, job.EvalFraction, job.Seed,
		job.Standardize, job.IncludePredictions,
		datasetJSON,
		job.Status, job.Error,
		job.StartedAt, job.CompletedAt,
		resultJSON,
	)
	return err
}

func (s *PostgresStore) CancelJob(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sweep_jobs SET status = 'canceled', updated_at = now()
		WHERE job_id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetJobStats(ctx context.Context) (*JobStats, error) {
	stats := &JobStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'running'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status IN ('failed', 'timed_out')),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at)) * 1000)
				FILTER (WHERE status = 'completed'), 0)
		FROM sweep_jobs`,
	).Scan(&stats.TotalPending, &stats.TotalRunning, &stats.TotalCompleted,
		&stats.TotalFailed, &stats.AvgDurationMs)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanJob(row pgx.Row) (*Job, error) {
	j := &Job{}
	var datasetJSON, resultJSON []byte
	var jobError sql.NullString
	err := row.Scan(
		&j.ID, &j.Name, &j.Requester,
		&j.Constraint, &j.GridSize, &j.EvalFraction, &j.Seed, &j.Standardize, &j.IncludePredictions,
		&datasetJSON,
		&j.Status, &jobError,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt, &j.UpdatedAt,
		&resultJSON,
	)
	if err != nil {
		return nil, err
	}
	if jobError.Valid {
		j.Error = jobError.String
	}
	if len(datasetJSON) > 0 && string(datasetJSON) != "null" {
		j.Dataset = &dataset.Dataset{}
		if err := json.Unmarshal(datasetJSON, j.Dataset); err != nil {
			return nil, fmt.Errorf("unmarshal dataset: %w", err)
		}
	}
	if len(resultJSON) > 0 && string(resultJSON) != "null" {
		j.Result = &JobResult{}
		if err := json.Unmarshal(resultJSON, j.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return j, nil
}

func scanJobs(rows pgx.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
