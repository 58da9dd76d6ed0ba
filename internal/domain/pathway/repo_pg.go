package pathway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
)

type stageRepoPG struct{ pool *pgxpool.Pool }

func NewStageRepoPG(pool *pgxpool.Pool) StageRepository {
	return &stageRepoPG{pool: pool}
}

func (r *stageRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const stageCols = `id, patient_id, step_order, stage_type, duration_weeks,
	treatment_goal, estimated_cost, ltc_application_advised, created_at`

func (r *stageRepoPG) scanStage(row pgx.Row) (*Stage, error) {
	var s Stage
	err := row.Scan(&s.ID, &s.PatientID, &s.StepOrder, &s.StageType, &s.DurationWeeks,
		&s.TreatmentGoal, &s.EstimatedCost, &s.LTCApplicationAdvised, &s.CreatedAt)
	return &s, err
}

func (r *stageRepoPG) CreateAll(ctx context.Context, patientID uuid.UUID, stages []*Stage) error {
	batch := &pgx.Batch{}
	for _, s := range stages {
		s.ID = uuid.New()
		s.PatientID = patientID
		batch.Queue(`
			INSERT INTO care_pathways (id, patient_id, step_order, stage_type, duration_weeks,
				treatment_goal, estimated_cost, ltc_application_advised)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING created_at`,
			s.ID, s.PatientID, s.StepOrder, s.StageType, s.DurationWeeks,
			s.TreatmentGoal, s.EstimatedCost, s.LTCApplicationAdvised)
	}

	br := r.sendBatch(ctx, batch)
	defer br.Close()
	for _, s := range stages {
		if err := br.QueryRow().Scan(&s.CreatedAt); err != nil {
			return fmt.Errorf("insert stage %d: %w", s.StepOrder, err)
		}
	}
	return br.Close()
}

func (r *stageRepoPG) sendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx.SendBatch(ctx, b)
	}
	return r.pool.SendBatch(ctx, b)
}

func (r *stageRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Stage, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+stageCols+` FROM care_pathways WHERE patient_id = $1 ORDER BY step_order`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Stage
	for rows.Next() {
		s, err := r.scanStage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *stageRepoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM care_pathways WHERE patient_id = $1`, patientID).Scan(&n)
	return n, err
}
