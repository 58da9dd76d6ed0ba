package checklist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
)

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const itemCols = `id, patient_id, transfer_type, sort_order, title, description, category,
	required, completed, completed_at, created_at`

func (r *itemRepoPG) scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.PatientID, &it.TransferType, &it.SortOrder, &it.Title,
		&it.Description, &it.Category, &it.Required, &it.Completed, &it.CompletedAt, &it.CreatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &it, nil
}

func (r *itemRepoPG) CreateAll(ctx context.Context, patientID uuid.UUID, items []*Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		it.ID = uuid.New()
		it.PatientID = patientID
		batch.Queue(`
			INSERT INTO checklist_items (id, patient_id, transfer_type, sort_order, title,
				description, category, required)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING created_at`,
			it.ID, it.PatientID, it.TransferType, it.SortOrder, it.Title,
			it.Description, it.Category, it.Required)
	}

	var br pgx.BatchResults
	if tx := db.TxFromContext(ctx); tx != nil {
		br = tx.SendBatch(ctx, batch)
	} else {
		br = r.pool.SendBatch(ctx, batch)
	}
	defer br.Close()
	for _, it := range items {
		if err := br.QueryRow().Scan(&it.CreatedAt); err != nil {
			return db.Conflict(fmt.Errorf("insert checklist item %d: %w", it.SortOrder, err))
		}
	}
	return db.Conflict(br.Close())
}

func (r *itemRepoPG) List(ctx context.Context, patientID uuid.UUID, transferType TransferType) ([]*Item, error) {
	query := `SELECT ` + itemCols + ` FROM checklist_items WHERE patient_id = $1`
	args := []interface{}{patientID}
	if transferType != "" {
		query += ` AND transfer_type = $2`
		args = append(args, transferType)
	}
	query += ` ORDER BY transfer_type, sort_order`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		it, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *itemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return r.scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM checklist_items WHERE id = $1`, id))
}

func (r *itemRepoPG) SetCompleted(ctx context.Context, id uuid.UUID, completed bool, at *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE checklist_items SET completed = $2, completed_at = $3 WHERE id = $1`, id, completed, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
