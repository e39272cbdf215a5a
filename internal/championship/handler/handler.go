package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
	"paddock/pkg/platform/httputil"
	"paddock/pkg/platform/middleware/admin"
	"paddock/pkg/requestcontext"
)

// Service defines the championship operations exposed over HTTP.
type Service interface {
	GetDriver(ctx context.Context, id int) (*models.Driver, error)
	ListDrivers(ctx context.Context, q models.DriverQuery) ([]*models.Driver, error)
	Nationalities(ctx context.Context) ([]string, error)
	SaveDriver(ctx context.Context, driver *models.Driver) (int, error)
	DeleteDriver(ctx context.Context, id int) error
	DriverHistory(ctx context.Context, driverID int, filter models.YearFilter) (*models.DriverHistory, error)

	GetConstructor(ctx context.Context, id int) (*models.Constructor, error)
	ListConstructors(ctx context.Context) ([]*models.Constructor, error)
	SaveConstructor(ctx context.Context, constructor *models.Constructor) (int, error)
	DeleteConstructor(ctx context.Context, id int) error
	ConstructorHistory(ctx context.Context, constructorID int, filter models.YearFilter) (*models.ConstructorHistory, error)
	ConstructorsForDriver(ctx context.Context, driverID int) ([]*models.Constructor, error)

	GetCircuit(ctx context.Context, id int) (*models.Circuit, error)
	ListCircuits(ctx context.Context, q models.CircuitQuery) ([]*models.Circuit, error)
	SaveCircuit(ctx context.Context, circuit *models.Circuit) (int, error)
	DeleteCircuit(ctx context.Context, id int) error
	CircuitsForDriver(ctx context.Context, driverID int) ([]*models.Circuit, error)

	GetRace(ctx context.Context, id int) (*models.Race, error)
	ListRaces(ctx context.Context, filter models.YearFilter) ([]*models.Race, error)
	SaveRace(ctx context.Context, race *models.Race) (int, error)
	DeleteRace(ctx context.Context, raceID int) (models.CascadeReport, error)

	GetResult(ctx context.Context, id int) (*models.Result, error)
	ListResults(ctx context.Context) ([]*models.Result, error)
	SaveResult(ctx context.Context, result *models.Result) (int, error)
	SaveResults(ctx context.Context, results []*models.Result) ([]int, error)
	DeleteResult(ctx context.Context, id int) error
	RaceStandings(ctx context.Context, raceID int) ([]models.RaceStandingRow, error)

	ListSeasons(ctx context.Context, filter models.YearFilter) ([]models.Season, error)
	GetSeason(ctx context.Context, year int) (*models.Season, error)
	DriverStandings(ctx context.Context, year int) ([]models.StandingRow, error)
	DeleteSeason(ctx context.Context, year int) (models.CascadeReport, error)

	Health(ctx context.Context) map[string]error
}

// Handler wires the championship endpoints to the service.
type Handler struct {
	service    Service
	logger     *slog.Logger
	adminToken string
}

// New constructs a handler. An empty adminToken leaves mutating routes open.
func New(service Service, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{
		service:    service,
		logger:     logger,
		adminToken: adminToken,
	}
}

// Register mounts the /api routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Route("/driver", func(r chi.Router) {
			r.Get("/all", h.HandleListDrivers)
			r.Get("/find_nationalities", h.HandleNationalities)
			r.Get("/find_results/{id}", h.HandleDriverHistory)
			r.Get("/{id}", h.HandleGetDriver)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin())
				r.Post("/", h.HandleSaveDriver)
				r.Delete("/{id}", h.HandleDeleteDriver)
			})
		})

		r.Route("/constructor", func(r chi.Router) {
			r.Get("/all", h.HandleListConstructors)
			r.Get("/find_results/{id}", h.HandleConstructorHistory)
			r.Get("/find_costructors_by_driverId/{id}", h.HandleConstructorsForDriver)
			r.Get("/{id}", h.HandleGetConstructor)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin())
				r.Post("/", h.HandleSaveConstructor)
				r.Delete("/{id}", h.HandleDeleteConstructor)
			})
		})

		r.Route("/circuit", func(r chi.Router) {
			r.Get("/all", h.HandleListCircuits)
			r.Get("/find_circuits_by_driverId/{id}", h.HandleCircuitsForDriver)
			r.Get("/{id}", h.HandleGetCircuit)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin())
				r.Post("/", h.HandleSaveCircuit)
				r.Delete("/{id}", h.HandleDeleteCircuit)
			})
		})

		r.Route("/race", func(r chi.Router) {
			r.Get("/all", h.HandleListRaces)
			r.Get("/{id}", h.HandleGetRace)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin())
				r.Post("/", h.HandleSaveRace)
				r.Delete("/{id}", h.HandleDeleteRace)
			})
		})

		r.Route("/result", func(r chi.Router) {
			r.Get("/all", h.HandleListResults)
			r.Get("/standings/{raceId}", h.HandleRaceStandings)
			r.Get("/{id}", h.HandleGetResult)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin())
				r.Post("/", h.HandleSaveResult)
				r.Post("/batch", h.HandleSaveResults)
				r.Delete("/{id}", h.HandleDeleteResult)
			})
		})

		r.Route("/season", func(r chi.Router) {
			r.Get("/", h.HandleListSeasons)
			r.Get("/standing", h.HandleDriverStandings)
			r.Get("/{year}", h.HandleGetSeason)
			r.With(h.requireAdmin()).Delete("/{year}", h.HandleDeleteSeason)
		})
	})
}

func (h *Handler) requireAdmin() func(http.Handler) http.Handler {
	return admin.RequireAdminToken(h.adminToken, h.logger)
}

// fail logs the failure and writes the error envelope. Client errors are
// logged at warn, everything else at error.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, attrs...)
	default:
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

// pathInt reads a positive integer URL parameter.
func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

// queryInt reads an optional integer query parameter. Absent and empty values
// yield nil.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s must be an integer", name))
	}
	return &v, nil
}

// yearFilter reads year, from_year and to_year. Range validation is left to
// the service so every caller gets the same error.
func yearFilter(r *http.Request) (models.YearFilter, error) {
	var (
		filter models.YearFilter
		err    error
	)
	if filter.Year, err = queryInt(r, "year"); err != nil {
		return models.YearFilter{}, err
	}
	if filter.FromYear, err = queryInt(r, "from_year"); err != nil {
		return models.YearFilter{}, err
	}
	if filter.ToYear, err = queryInt(r, "to_year"); err != nil {
		return models.YearFilter{}, err
	}
	return filter, nil
}
