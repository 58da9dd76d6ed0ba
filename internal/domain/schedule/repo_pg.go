package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
)

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

func (r *scheduleRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const scheduleCols = `id, patient_id, caregiver_name, caregiver_role, start_time, end_time,
	task, notes, created_at, updated_at`

func (r *scheduleRepoPG) scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.PatientID, &s.CaregiverName, &s.CaregiverRole, &s.StartTime,
		&s.EndTime, &s.Task, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &s, nil
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO caregiver_schedules (id, patient_id, caregiver_name, caregiver_role,
			start_time, end_time, task, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		s.ID, s.PatientID, s.CaregiverName, s.CaregiverRole, s.StartTime, s.EndTime, s.Task, s.Notes,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return r.scanSchedule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM caregiver_schedules WHERE id = $1`, id))
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE caregiver_schedules SET patient_id=$2, caregiver_name=$3, caregiver_role=$4,
			start_time=$5, end_time=$6, task=$7, notes=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		s.ID, s.PatientID, s.CaregiverName, s.CaregiverRole, s.StartTime, s.EndTime, s.Task, s.Notes,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.NotFound(err)
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM caregiver_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func filterClause(f ListFilter) (string, []interface{}) {
	var where []string
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("end_time > $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("start_time < $%d", len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *scheduleRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Schedule, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Schedule
	for rows.Next() {
		s, err := r.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *scheduleRepoPG) List(ctx context.Context, f ListFilter) ([]*Schedule, error) {
	clause, args := filterClause(f)
	return r.query(ctx, `SELECT `+scheduleCols+` FROM caregiver_schedules`+clause+
		` ORDER BY start_time, end_time`, args...)
}

func (r *scheduleRepoPG) Page(ctx context.Context, f ListFilter, limit, offset int) ([]*Schedule, int, error) {
	clause, args := filterClause(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM caregiver_schedules`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	items, err := r.query(ctx, `SELECT `+scheduleCols+` FROM caregiver_schedules`+clause+
		fmt.Sprintf(" ORDER BY start_time, end_time LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
