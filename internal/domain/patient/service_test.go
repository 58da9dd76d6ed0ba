package patient

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/domain/pathway"
	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/events"
)

// -- Mocks --

type mockPatientRepo struct {
	store map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{store: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.store[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.store[p.ID]; !ok {
		return db.ErrNotFound
	}
	m.store[p.ID] = p
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Patient, int, error) {
	var r []*Patient
	for _, p := range m.store {
		if f.Severity != "" && string(p.Severity) != f.Severity {
			continue
		}
		if f.Search != "" && !strings.Contains(p.Name, f.Search) && !strings.Contains(p.Diagnosis, f.Search) {
			continue
		}
		r = append(r, p)
	}
	return r, len(r), nil
}

func (m *mockPatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.store[id]
	return ok, nil
}

type mockStageRepo struct {
	store map[uuid.UUID][]*pathway.Stage
	err   error
}

func newMockStageRepo() *mockStageRepo {
	return &mockStageRepo{store: make(map[uuid.UUID][]*pathway.Stage)}
}

func (m *mockStageRepo) CreateAll(_ context.Context, pid uuid.UUID, stages []*pathway.Stage) error {
	if m.err != nil {
		return m.err
	}
	for _, s := range stages {
		s.ID = uuid.New()
		s.PatientID = pid
	}
	m.store[pid] = stages
	return nil
}

func (m *mockStageRepo) ListByPatient(_ context.Context, pid uuid.UUID) ([]*pathway.Stage, error) {
	return m.store[pid], nil
}

func (m *mockStageRepo) CountByPatient(_ context.Context, pid uuid.UUID) (int, error) {
	return len(m.store[pid]), nil
}

// rollbackTx discards the patient insert when fn fails, the way a real
// transaction would.
type rollbackTx struct {
	patients *mockPatientRepo
}

func (r rollbackTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	before := make(map[uuid.UUID]*Patient, len(r.patients.store))
	for k, v := range r.patients.store {
		before[k] = v
	}
	if err := fn(ctx); err != nil {
		r.patients.store = before
		return err
	}
	return nil
}

type testEnv struct {
	svc      *Service
	patients *mockPatientRepo
	stages   *mockStageRepo
	events   *events.Recorder
}

func newTestEnv() *testEnv {
	env := &testEnv{
		patients: newMockPatientRepo(),
		stages:   newMockStageRepo(),
		events:   &events.Recorder{},
	}
	env.svc = NewService(env.patients, env.stages, db.NoTx{}, env.events)
	return env
}

func newTestService() *Service {
	return newTestEnv().svc
}

func intPtr(i int) *int { return &i }

func validInput(adl int) Input {
	return Input{
		Name:          "Kim Minsu",
		Diagnosis:     "cerebral infarction",
		ADLScore:      intPtr(adl),
		InsuranceType: "employee",
	}
}

func expectInvalid(t *testing.T, err error) {
	t.Helper()
	if !apperr.IsInvalid(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// -- Service Tests --

func TestCreatePatient_SevereGeneratesThreeStages(t *testing.T) {
	env := newTestEnv()
	p, err := env.svc.CreatePatient(context.Background(), validInput(35))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Severity != pathway.SeveritySevere {
		t.Errorf("expected severe, got %s", p.Severity)
	}
	if len(p.Pathway.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(p.Pathway.Stages))
	}
	if p.Pathway.TotalCost != 38_500_000 {
		t.Errorf("expected total 38500000, got %d", p.Pathway.TotalCost)
	}
	if len(env.stages.store[p.ID]) != 3 {
		t.Errorf("expected stages persisted under patient id")
	}
	if got := env.events.Types(); len(got) != 1 || got[0] != events.PatientCreated {
		t.Errorf("expected one patient.created event, got %v", got)
	}
}

func TestCreatePatient_MildPathway(t *testing.T) {
	p, err := newTestService().CreatePatient(context.Background(), validInput(70))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Severity != pathway.SeverityMild {
		t.Errorf("expected mild at 70, got %s", p.Severity)
	}
	if len(p.Pathway.Stages) != 2 || p.Pathway.TotalCost != 11_000_000 {
		t.Errorf("unexpected mild pathway: %d stages, total %d", len(p.Pathway.Stages), p.Pathway.TotalCost)
	}
}

func TestCreatePatient_ModerateBoundary(t *testing.T) {
	p, err := newTestService().CreatePatient(context.Background(), validInput(40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Severity != pathway.SeverityModerate {
		t.Errorf("expected moderate at 40, got %s", p.Severity)
	}
	if p.Pathway.TotalCost != 22_500_000 {
		t.Errorf("expected 22500000, got %d", p.Pathway.TotalCost)
	}
}

func TestCreatePatient_MissingFields(t *testing.T) {
	svc := newTestService()
	cases := map[string]Input{
		"no name":      {Diagnosis: "x", ADLScore: intPtr(50), InsuranceType: "local"},
		"no diagnosis": {Name: "x", ADLScore: intPtr(50), InsuranceType: "local"},
		"no adl":       {Name: "x", Diagnosis: "x", InsuranceType: "local"},
		"no insurance": {Name: "x", Diagnosis: "x", ADLScore: intPtr(50)},
		"blank name":   {Name: "   ", Diagnosis: "x", ADLScore: intPtr(50), InsuranceType: "local"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreatePatient(context.Background(), in)
			expectInvalid(t, err)
			if err.Error() != ErrMissingFields {
				t.Errorf("expected static message, got %q", err.Error())
			}
		})
	}
}

func TestCreatePatient_RangeChecks(t *testing.T) {
	svc := newTestService()

	in := validInput(101)
	_, err := svc.CreatePatient(context.Background(), in)
	expectInvalid(t, err)

	in = validInput(-1)
	_, err = svc.CreatePatient(context.Background(), in)
	expectInvalid(t, err)

	in = validInput(50)
	in.InsuranceType = "private"
	_, err = svc.CreatePatient(context.Background(), in)
	expectInvalid(t, err)

	in = validInput(50)
	in.LTCGrade = intPtr(6)
	_, err = svc.CreatePatient(context.Background(), in)
	expectInvalid(t, err)

	in = validInput(50)
	in.Age = intPtr(-3)
	_, err = svc.CreatePatient(context.Background(), in)
	expectInvalid(t, err)
}

func TestCreatePatient_BoundaryScoresAccepted(t *testing.T) {
	svc := newTestService()
	for _, adl := range []int{0, 100} {
		if _, err := svc.CreatePatient(context.Background(), validInput(adl)); err != nil {
			t.Errorf("adl %d: unexpected error: %v", adl, err)
		}
	}
}

func TestCreatePatient_StageFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	env.stages.err = errors.New("insert failed")
	env.svc = NewService(env.patients, env.stages, rollbackTx{patients: env.patients}, env.events)

	_, err := env.svc.CreatePatient(context.Background(), validInput(50))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(env.patients.store) != 0 {
		t.Errorf("expected patient insert rolled back, got %d rows", len(env.patients.store))
	}
	if len(env.events.Events()) != 0 {
		t.Errorf("expected no events on failure")
	}
}

func TestGetPatient_WithPathway(t *testing.T) {
	env := newTestEnv()
	created, _ := env.svc.CreatePatient(context.Background(), validInput(55))

	got, err := env.svc.GetPatient(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Kim Minsu" {
		t.Errorf("unexpected name %q", got.Name)
	}
	if len(got.Pathway.Stages) != 2 {
		t.Errorf("expected 2 moderate stages, got %d", len(got.Pathway.Stages))
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	_, err := newTestService().GetPatient(context.Background(), uuid.New())
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePatient_RecomputesSeverityKeepsPathway(t *testing.T) {
	env := newTestEnv()
	created, _ := env.svc.CreatePatient(context.Background(), validInput(30))

	updated, err := env.svc.UpdatePatient(context.Background(), created.ID, validInput(85))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Severity != pathway.SeverityMild {
		t.Errorf("expected mild after update, got %s", updated.Severity)
	}
	if n := len(env.stages.store[created.ID]); n != 3 {
		t.Errorf("expected the existing 3-stage pathway untouched, got %d", n)
	}
	types := env.events.Types()
	if len(types) != 2 || types[1] != events.PatientUpdated {
		t.Errorf("expected patient.updated event, got %v", types)
	}
}

func TestUpdatePatient_NotFound(t *testing.T) {
	_, err := newTestService().UpdatePatient(context.Background(), uuid.New(), validInput(50))
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPatients_Filters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.svc.CreatePatient(ctx, validInput(20))
	env.svc.CreatePatient(ctx, validInput(50))
	env.svc.CreatePatient(ctx, validInput(90))

	all, total, err := env.svc.ListPatients(ctx, ListFilter{}, 20, 0)
	if err != nil || total != 3 || len(all) != 3 {
		t.Fatalf("expected 3 patients, got %d (%v)", total, err)
	}
	severe, total, _ := env.svc.ListPatients(ctx, ListFilter{Severity: "severe"}, 20, 0)
	if total != 1 || severe[0].ADLScore != 20 {
		t.Errorf("expected one severe patient, got %d", total)
	}
}

func TestListPatients_InvalidSeverity(t *testing.T) {
	_, _, err := newTestService().ListPatients(context.Background(), ListFilter{Severity: "critical"}, 20, 0)
	expectInvalid(t, err)
}

func TestGetPathway(t *testing.T) {
	env := newTestEnv()
	created, _ := env.svc.CreatePatient(context.Background(), validInput(10))

	sum, err := env.svc.GetPathway(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.TotalCost != 38_500_000 || sum.TotalWeeks == 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if _, err := env.svc.GetPathway(context.Background(), uuid.New()); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown patient, got %v", err)
	}
}

func TestExists(t *testing.T) {
	env := newTestEnv()
	created, _ := env.svc.CreatePatient(context.Background(), validInput(60))
	if ok, _ := env.svc.Exists(context.Background(), created.ID); !ok {
		t.Error("expected created patient to exist")
	}
	if ok, _ := env.svc.Exists(context.Background(), uuid.New()); ok {
		t.Error("expected random id to not exist")
	}
}

func TestCreatePatient_DiagnosisDate(t *testing.T) {
	env := newTestEnv()
	in := validInput(50)
	date := "2024-03-01"
	in.DiagnosisDate = &date

	p, err := env.svc.CreatePatient(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DiagnosisDate == nil || p.DiagnosisDate.String() != "2024-03-01" {
		t.Errorf("expected diagnosis date 2024-03-01, got %v", p.DiagnosisDate)
	}
}

func TestCreatePatient_InvalidDiagnosisDate(t *testing.T) {
	env := newTestEnv()
	in := validInput(50)
	bad := "March 1st"
	in.DiagnosisDate = &bad

	_, err := env.svc.CreatePatient(context.Background(), in)
	expectInvalid(t, err)
	if len(env.patients.store) != 0 {
		t.Error("expected nothing stored")
	}
}
