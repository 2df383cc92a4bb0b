package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/tripflow/tripflow/internal/shared"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service caches recommendations from the configured Source and computes
// simulations and elasticity curves locally.
type Service struct {
	source   Source
	fallback Source
	cache    *redis.Client
	cacheTTL time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

// NewService constructs a Service. cache may be nil to disable caching;
// fallback answers when the primary source fails.
func NewService(source, fallback Source, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &Service{
		source:   source,
		fallback: fallback,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Recommend returns a recommendation for the query, from cache when fresh.
// Concurrent lookups for the same query collapse into one upstream call.
func (s *Service) Recommend(ctx context.Context, q RecommendationQuery) (*Recommendation, error) {
	if err := validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	key := fmt.Sprintf("rates:rec:%s:%d:%d", q.Destination, q.DurationDays, q.Travelers)
	if rec := s.fromCache(ctx, key); rec != nil {
		return rec, nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		rec, err := s.source.Recommend(ctx, q)
		if err != nil {
			if s.fallback == nil {
				return nil, err
			}
			s.logger.Warn("market feed unavailable, using heuristic", slog.Any("error", err))
			rec, err = s.fallback.Recommend(ctx, q)
			if err != nil {
				return nil, err
			}
		}
		s.toCache(ctx, key, rec)
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	return result.(*Recommendation), nil
}

// Simulate prices a what-if scenario.
func (s *Service) Simulate(params SimulationParams) (*SimulationResult, error) {
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	result := Simulate(params)
	return &result, nil
}

// Elasticity samples the price/conversion curve around a base price.
func (s *Service) Elasticity(basePrice float64, points int) ([]ElasticityPoint, error) {
	if basePrice <= 0 {
		return nil, fmt.Errorf("%w: base_price must be positive", shared.ErrValidation)
	}
	if points < 2 {
		points = 9
	}

	// Sweep 80% to 120% of base price.
	out := make([]ElasticityPoint, 0, points)
	step := 0.4 / float64(points-1)
	for i := 0; i < points; i++ {
		price := basePrice * (0.8 + step*float64(i))
		out = append(out, ElasticityPoint{
			Price:                 math.Round(price),
			ConversionProbability: conversionProbability(price),
		})
	}
	return out, nil
}

func (s *Service) fromCache(ctx context.Context, key string) *Recommendation {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var rec Recommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return &rec
}

func (s *Service) toCache(ctx context.Context, key string, rec *Recommendation) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("cache recommendation", slog.Any("error", err))
	}
}

var hotelNightly = map[int]float64{3: 3000, 4: 5000, 5: 8000}

var transportFares = map[string]float64{
	"economy": 5000,
	"premium": 8000,
	"luxury":  12000,
}

// Simulate estimates a package price from the coarse scenario knobs:
// nightly hotel rate by star scaled over the stay, plus a per-traveller
// transport fare by class.
func Simulate(params SimulationParams) SimulationResult {
	nightly, ok := hotelNightly[params.HotelStar]
	if !ok {
		nightly = 5000
	}
	fare, ok := transportFares[params.TransportClass]
	if !ok {
		fare = 8000
	}

	estimated := nightly*float64(params.DurationDays)*float64(params.Travelers) + fare*float64(params.Travelers)
	return SimulationResult{
		EstimatedPrice:        estimated,
		ConversionProbability: conversionProbability(estimated),
		MarginEstimate:        estimated * 0.15,
	}
}

// conversionProbability decays linearly with price, floored at 30%.
func conversionProbability(price float64) float64 {
	return math.Max(30, 90-price/1000)
}
