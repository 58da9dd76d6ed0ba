package facility

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepath/carepath/internal/domain/pathway"
	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/internal/platform/cache"
	"github.com/carepath/carepath/internal/platform/events"
)

// SearchCachePrefix prefixes every cached search page.
const SearchCachePrefix = "facility:search:"

type Service struct {
	repo   FacilityRepository
	cache  cache.Cache
	ttl    time.Duration
	events events.Publisher
	logger zerolog.Logger
}

func NewService(repo FacilityRepository, c cache.Cache, ttl time.Duration, pub events.Publisher, logger zerolog.Logger) *Service {
	if c == nil {
		c = cache.NewMemory()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, cache: c, ttl: ttl, events: pub, logger: logger}
}

func validateFacility(f *Facility) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" || f.FacilityType == "" {
		return apperr.Invalid("name and facility_type are required")
	}
	if !pathway.ValidStageType(f.FacilityType) {
		return apperr.Invalid(fmt.Sprintf("invalid facility_type: %s", f.FacilityType))
	}
	if f.TotalBeds < 0 || f.AvailableBeds < 0 || f.MonthlyCost < 0 {
		return apperr.Invalid("bed counts and monthly_cost must not be negative")
	}
	if f.AvailableBeds > f.TotalBeds {
		return apperr.Invalid("available_beds must not exceed total_beds")
	}
	if f.Specialties == nil {
		f.Specialties = []string{}
	}
	return nil
}

func (s *Service) CreateFacility(ctx context.Context, f *Facility) error {
	if err := validateFacility(f); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.events.Publish(ctx, events.New(events.FacilityCreated, f.ID.String(), map[string]interface{}{
		"name":          f.Name,
		"facility_type": f.FacilityType,
	}))
	return nil
}

func (s *Service) UpdateFacility(ctx context.Context, f *Facility) error {
	if err := validateFacility(f); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, f); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListFacilities(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Exists reports whether a facility with id exists.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// SearchFacilities serves a filtered page from the cache when possible.
// Cache failures fall through to the database.
func (s *Service) SearchFacilities(ctx context.Context, f SearchFilter, limit, offset int) (*SearchResult, error) {
	if f.Type != "" && !pathway.ValidStageType(f.Type) {
		return nil, apperr.Invalid(fmt.Sprintf("invalid type: %s", f.Type))
	}
	if f.MaxCost < 0 {
		return nil, apperr.Invalid("max_cost must not be negative")
	}

	key := searchKey(f, limit, offset)
	var cached SearchResult
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("facility search cache read failed")
	}
	if hit {
		return &cached, nil
	}

	items, total, err := s.repo.Search(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Facility{}
	}
	res := &SearchResult{Items: items, Total: total}
	if err := s.cache.Set(ctx, key, res, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("facility search cache write failed")
	}
	return res, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, SearchCachePrefix); err != nil {
		s.logger.Warn().Err(err).Msg("facility search cache invalidation failed")
	}
}

// searchKey is stable for equal filters: url.Values.Encode sorts keys.
func searchKey(f SearchFilter, limit, offset int) string {
	v := url.Values{}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.Region != "" {
		v.Set("region", strings.ToLower(f.Region))
	}
	if f.Specialty != "" {
		v.Set("specialty", f.Specialty)
	}
	if f.MaxCost > 0 {
		v.Set("max_cost", strconv.FormatInt(f.MaxCost, 10))
	}
	if f.Available {
		v.Set("available", "true")
	}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(offset))
	return SearchCachePrefix + v.Encode()
}

// Seed inserts the reference facilities that are not present yet and
// returns how many were added.
func (s *Service) Seed(ctx context.Context) (int, error) {
	added := 0
	for _, f := range SeedFacilities() {
		ok, err := s.repo.InsertIfAbsent(ctx, f)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", f.Name, err)
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		s.invalidate(ctx)
	}
	return added, nil
}
