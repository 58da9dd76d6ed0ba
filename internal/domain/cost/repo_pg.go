package cost

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
)

type simulationRepoPG struct{ pool *pgxpool.Pool }

func NewSimulationRepoPG(pool *pgxpool.Pool) SimulationRepository {
	return &simulationRepoPG{pool: pool}
}

func (r *simulationRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const simCols = `id, patient_id, facility_id, facility_type, duration_months, insurance_type,
	ltc_grade, base_monthly_cost, total_base_cost, insurable_cost, insurance_coverage,
	non_coverage, ltc_copayment, total_cost, monthly_cost, margin_low, margin_high, created_at`

func (r *simulationRepoPG) scanSim(row pgx.Row) (*Simulation, error) {
	var s Simulation
	err := row.Scan(&s.ID, &s.PatientID, &s.FacilityID, &s.FacilityType, &s.DurationMonths,
		&s.InsuranceType, &s.LTCGrade, &s.BaseMonthlyCost, &s.TotalBaseCost, &s.InsurableCost,
		&s.InsuranceCoverage, &s.NonCoverage, &s.LTCCopayment, &s.TotalCost, &s.MonthlyCost,
		&s.MarginLow, &s.MarginHigh, &s.CreatedAt)
	return &s, err
}

func (r *simulationRepoPG) Create(ctx context.Context, s *Simulation) error {
	s.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cost_simulations (id, patient_id, facility_id, facility_type, duration_months,
			insurance_type, ltc_grade, base_monthly_cost, total_base_cost, insurable_cost,
			insurance_coverage, non_coverage, ltc_copayment, total_cost, monthly_cost,
			margin_low, margin_high)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at`,
		s.ID, s.PatientID, s.FacilityID, s.FacilityType, s.DurationMonths,
		s.InsuranceType, s.LTCGrade, s.BaseMonthlyCost, s.TotalBaseCost, s.InsurableCost,
		s.InsuranceCoverage, s.NonCoverage, s.LTCCopayment, s.TotalCost, s.MonthlyCost,
		s.MarginLow, s.MarginHigh).Scan(&s.CreatedAt)
}

func (r *simulationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Simulation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM cost_simulations WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+simCols+` FROM cost_simulations
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Simulation
	for rows.Next() {
		s, err := r.scanSim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
