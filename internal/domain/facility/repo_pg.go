package facility

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
)

type facilityRepoPG struct{ pool *pgxpool.Pool }

func NewFacilityRepoPG(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepoPG{pool: pool}
}

func (r *facilityRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const facilityCols = `id, name, facility_type, address, region, phone, total_beds,
	available_beds, monthly_cost, specialties, created_at, updated_at`

func (r *facilityRepoPG) scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.FacilityType, &f.Address, &f.Region, &f.Phone,
		&f.TotalBeds, &f.AvailableBeds, &f.MonthlyCost, &f.Specialties, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	if f.Specialties == nil {
		f.Specialties = []string{}
	}
	return &f, nil
}

func (r *facilityRepoPG) Create(ctx context.Context, f *Facility) error {
	f.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO facilities (id, name, facility_type, address, region, phone, total_beds,
			available_beds, monthly_cost, specialties)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		f.ID, f.Name, f.FacilityType, f.Address, f.Region, f.Phone, f.TotalBeds,
		f.AvailableBeds, f.MonthlyCost, f.Specialties,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

func (r *facilityRepoPG) InsertIfAbsent(ctx context.Context, f *Facility) (bool, error) {
	f.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO facilities (id, name, facility_type, address, region, phone, total_beds,
			available_beds, monthly_cost, specialties)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (name) DO NOTHING`,
		f.ID, f.Name, f.FacilityType, f.Address, f.Region, f.Phone, f.TotalBeds,
		f.AvailableBeds, f.MonthlyCost, f.Specialties)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *facilityRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return r.scanFacility(r.conn(ctx).QueryRow(ctx, `SELECT `+facilityCols+` FROM facilities WHERE id = $1`, id))
}

func (r *facilityRepoPG) Update(ctx context.Context, f *Facility) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE facilities SET name=$2, facility_type=$3, address=$4, region=$5, phone=$6,
			total_beds=$7, available_beds=$8, monthly_cost=$9, specialties=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		f.ID, f.Name, f.FacilityType, f.Address, f.Region, f.Phone, f.TotalBeds,
		f.AvailableBeds, f.MonthlyCost, f.Specialties,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return db.NotFound(err)
}

func (r *facilityRepoPG) List(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	return r.Search(ctx, SearchFilter{}, limit, offset)
}

func (r *facilityRepoPG) Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*Facility, int, error) {
	var where []string
	var args []interface{}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("facility_type = $%d", len(args)))
	}
	if f.Region != "" {
		args = append(args, "%"+f.Region+"%")
		where = append(where, fmt.Sprintf("region ILIKE $%d", len(args)))
	}
	if f.Specialty != "" {
		args = append(args, f.Specialty)
		where = append(where, fmt.Sprintf("$%d = ANY(specialties)", len(args)))
	}
	if f.MaxCost > 0 {
		args = append(args, f.MaxCost)
		where = append(where, fmt.Sprintf("monthly_cost <= $%d", len(args)))
	}
	if f.Available {
		where = append(where, "available_beds > 0")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM facilities`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+facilityCols+` FROM facilities`+clause+
		fmt.Sprintf(" ORDER BY monthly_cost, name LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Facility
	for rows.Next() {
		fac, err := r.scanFacility(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, fac)
	}
	return items, total, rows.Err()
}

func (r *facilityRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM facilities WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}
