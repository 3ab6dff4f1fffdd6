package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medreconcile/medreconcile-api/clinical/entities"
	"github.com/medreconcile/medreconcile-api/interfaces"
)

var _ interfaces.MedicationStore = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS medication_records (
	id          UUID PRIMARY KEY,
	user_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	dosage      TEXT NOT NULL DEFAULT '',
	frequency   TEXT NOT NULL DEFAULT '',
	prescriber  TEXT NOT NULL DEFAULT '',
	pharmacy    TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS medication_records_user_idx ON medication_records (user_id, created_at);
`

// PostgresStore persists records in Postgres through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Create(ctx context.Context, record *entities.MedicationRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO medication_records
			(id, user_id, name, dosage, frequency, prescriber, pharmacy, notes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID, record.UserID,
		record.Medication.Name, record.Medication.Dosage, record.Medication.Frequency,
		record.Prescriber, record.Pharmacy, record.Notes, record.Active,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert medication record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, id string) (*entities.MedicationRecord, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, dosage, frequency, prescriber, pharmacy, notes, active, created_at, updated_at
		FROM medication_records
		WHERE id = $1 AND user_id = $2`, recordID, userID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get medication record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]entities.MedicationRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, dosage, frequency, prescriber, pharmacy, notes, active, created_at, updated_at
		FROM medication_records
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list medication records: %w", err)
	}
	defer rows.Close()

	records := []entities.MedicationRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, record *entities.MedicationRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE medication_records
		SET name = $3, dosage = $4, frequency = $5, prescriber = $6,
			pharmacy = $7, notes = $8, active = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		record.ID, record.UserID,
		record.Medication.Name, record.Medication.Dosage, record.Medication.Frequency,
		record.Prescriber, record.Pharmacy, record.Notes, record.Active,
	)
	if err != nil {
		return fmt.Errorf("update medication record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM medication_records WHERE id = $1 AND user_id = $2`, recordID, userID)
	if err != nil {
		return fmt.Errorf("delete medication record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanRecord(row pgx.Row) (*entities.MedicationRecord, error) {
	var record entities.MedicationRecord
	err := row.Scan(
		&record.ID, &record.UserID,
		&record.Medication.Name, &record.Medication.Dosage, &record.Medication.Frequency,
		&record.Prescriber, &record.Pharmacy, &record.Notes, &record.Active,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
