package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certisched-api/internal/models"
)

// PostgresStore assembles group snapshots from the table repositories and commits
// changesets in a single transaction.
type PostgresStore struct {
	db          *sqlx.DB
	technicians *TechnicianRepository
	schedules   *CertificationScheduleRepository
	events      *AnalystEventRepository
	cities      *CityGroupRepository
	users       *UserRepository
	adjustments *ScoreAdjustmentRepository
}

// NewPostgresStore wires the table repositories around a shared handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:          db,
		technicians: NewTechnicianRepository(db),
		schedules:   NewCertificationScheduleRepository(db),
		events:      NewAnalystEventRepository(db),
		cities:      NewCityGroupRepository(db),
		users:       NewUserRepository(db),
		adjustments: NewScoreAdjustmentRepository(db),
	}
}

// LoadGroup reads every collection of the group.
func (s *PostgresStore) LoadGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error) {
	snap := &models.GroupSnapshot{GroupID: groupID}
	var err error
	if snap.Technicians, err = s.technicians.ListByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if snap.Schedules, err = s.schedules.ListByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if snap.Events, err = s.events.ListByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if snap.Cities, err = s.cities.ListByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if snap.Users, err = s.users.ListByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if snap.Adjustments, err = s.adjustments.ListByGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return snap, nil
}

// CommitGroup persists the changeset atomically. Technicians are written before
// schedules so foreign keys resolve on fresh imports.
func (s *PostgresStore) CommitGroup(ctx context.Context, groupID string, changes models.GroupChangeset) error {
	if changes.IsEmpty() {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group commit tx: %w", err)
	}
	if err := s.write(ctx, tx, groupID, changes); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) write(ctx context.Context, tx *sqlx.Tx, groupID string, changes models.GroupChangeset) error {
	if err := s.technicians.UpsertBatch(ctx, tx, changes.Technicians); err != nil {
		return err
	}
	if err := s.schedules.UpsertBatch(ctx, tx, changes.Schedules); err != nil {
		return err
	}
	if err := s.events.DeleteByIDs(ctx, tx, groupID, changes.EventsRemoved); err != nil {
		return err
	}
	if err := s.events.UpsertBatch(ctx, tx, changes.EventsUpserted); err != nil {
		return err
	}
	if err := s.cities.UpsertBatch(ctx, tx, changes.Cities); err != nil {
		return err
	}
	if err := s.adjustments.DeleteByIDs(ctx, tx, groupID, changes.AdjustmentsRemoved); err != nil {
		return err
	}
	return s.adjustments.UpsertBatch(ctx, tx, changes.Adjustments)
}

// Groups lists every group that has technicians.
func (s *PostgresStore) Groups(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT group_id FROM technicians ORDER BY group_id ASC`
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return ids, nil
}
