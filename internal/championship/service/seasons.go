package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
	"paddock/pkg/platform/sentinel"
)

const (
	seasonLookupConcurrency = 8
	dateLayout              = "2006-01-02"
)

// ListSeasons groups races by year and returns one summary per year, newest
// first. Summaries carry the race count only.
func (s *Service) ListSeasons(ctx context.Context, filter models.YearFilter) (seasons []models.Season, err error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "ListSeasons")
	defer func() { endSpan(span, err) }()
	defer s.observeView("season_list", time.Now())

	races, err := s.stores.Races.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "race", "list races")
	}

	counts := make(map[int]int)
	for _, race := range races {
		counts[race.Year]++
	}
	seasons = make([]models.Season, 0, len(counts))
	for year, n := range counts {
		seasons = append(seasons, models.Season{Year: year, RaceCount: n, Races: []models.SeasonRace{}})
	}
	slices.SortFunc(seasons, func(a, b models.Season) int {
		return cmp.Compare(b.Year, a.Year)
	})
	return seasons, nil
}

// GetSeason returns the races of a year by round, each with its circuit name
// and, when a winning result exists, the winner and the winning team.
func (s *Service) GetSeason(ctx context.Context, year int) (season *models.Season, err error) {
	ctx, span := startSpan(ctx, "GetSeason", attribute.Int("year", year))
	defer func() { endSpan(span, err) }()
	defer s.observeView("season_detail", time.Now())

	races, err := s.stores.Races.List(ctx, models.YearFilter{Year: &year})
	if err != nil {
		return nil, storeError(err, "race", "list races")
	}
	if len(races) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("season %d not found", year))
	}

	circuits, err := s.stores.Circuits.FindByIDs(ctx, distinct(races, func(r *models.Race) int { return r.CircuitID }))
	if err != nil {
		return nil, storeError(err, "circuit", "load circuits")
	}

	winners := make([]*models.Result, len(races))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seasonLookupConcurrency)
	for i, race := range races {
		g.Go(func() error {
			w, err := s.stores.Results.FindWinner(gctx, race.ID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return storeError(err, "result", "load race winner")
			}
			winners[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := make([]*models.Result, 0, len(winners))
	for _, w := range winners {
		if w != nil {
			found = append(found, w)
		}
	}
	names, err := s.participantNames(ctx, found)
	if err != nil {
		return nil, err
	}

	season = &models.Season{Year: year, RaceCount: len(races), Races: make([]models.SeasonRace, 0, len(races))}
	for i, race := range races {
		entry := models.SeasonRace{
			RaceID: race.ID,
			Name:   race.Name,
			Round:  race.Round,
		}
		if race.Date != nil {
			date := race.Date.Format(dateLayout)
			entry.Date = &date
		}
		if c, ok := circuits[race.CircuitID]; ok {
			entry.CircuitName = &c.Name
		}
		if w := winners[i]; w != nil {
			if d, ok := names.drivers[w.DriverID]; ok {
				full := d.FullName()
				entry.Winner = &full
			}
			if c, ok := names.constructors[w.ConstructorID]; ok {
				entry.Team = &c.Name
			}
		}
		season.Races = append(season.Races, entry)
	}
	return season, nil
}
