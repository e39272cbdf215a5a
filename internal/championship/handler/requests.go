package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
)

// maxBatchSize bounds one batch request; a full season of results is well
// below it.
const maxBatchSize = 2000

const dateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError turns validator failures into a single client message naming
// the first offending field.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
	}
	return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
}

func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, *v); err == nil {
			return &t, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeValidation, field+" must be a date formatted YYYY-MM-DD")
}

type DriverRequest struct {
	ID          int     `json:"id" validate:"gte=0"`
	DriverRef   string  `json:"driverRef" validate:"required,max=64"`
	Forename    string  `json:"forename" validate:"required,max=128"`
	Surname     string  `json:"surname" validate:"required,max=128"`
	DOB         *string `json:"dob,omitempty"`
	Nationality string  `json:"nationality" validate:"max=64"`
	URL         string  `json:"url,omitempty" validate:"omitempty,url"`
}

func (r *DriverRequest) Normalize() {
	r.DriverRef = strings.TrimSpace(r.DriverRef)
	r.Forename = strings.TrimSpace(r.Forename)
	r.Surname = strings.TrimSpace(r.Surname)
	r.Nationality = strings.TrimSpace(r.Nationality)
	r.URL = strings.TrimSpace(r.URL)
}

func (r *DriverRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	_, err := parseDate("dob", r.DOB)
	return err
}

func (r *DriverRequest) toModel() *models.Driver {
	dob, _ := parseDate("dob", r.DOB)
	return &models.Driver{
		ID:          r.ID,
		DriverRef:   r.DriverRef,
		Forename:    r.Forename,
		Surname:     r.Surname,
		DOB:         dob,
		Nationality: r.Nationality,
		URL:         r.URL,
	}
}

type ConstructorRequest struct {
	ID             int    `json:"id" validate:"gte=0"`
	ConstructorRef string `json:"constructorRef" validate:"required,min=2,max=64"`
	Name           string `json:"name" validate:"required,min=2,max=128"`
	Nationality    string `json:"nationality" validate:"max=64"`
	URL            string `json:"url,omitempty" validate:"omitempty,url"`
}

func (r *ConstructorRequest) Normalize() {
	r.ConstructorRef = strings.TrimSpace(r.ConstructorRef)
	r.Name = strings.TrimSpace(r.Name)
	r.Nationality = strings.TrimSpace(r.Nationality)
	r.URL = strings.TrimSpace(r.URL)
}

func (r *ConstructorRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func (r *ConstructorRequest) toModel() *models.Constructor {
	return &models.Constructor{
		ID:             r.ID,
		ConstructorRef: r.ConstructorRef,
		Name:           r.Name,
		Nationality:    r.Nationality,
		URL:            r.URL,
	}
}

type CircuitRequest struct {
	ID         int    `json:"id" validate:"gte=0"`
	CircuitRef string `json:"circuitRef" validate:"max=64"`
	Name       string `json:"name" validate:"required,max=128"`
	Location   string `json:"location,omitempty" validate:"max=128"`
	Country    string `json:"country,omitempty" validate:"max=64"`
	URL        string `json:"url,omitempty" validate:"omitempty,url"`
}

func (r *CircuitRequest) Normalize() {
	r.CircuitRef = strings.TrimSpace(r.CircuitRef)
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	r.Country = strings.TrimSpace(r.Country)
	r.URL = strings.TrimSpace(r.URL)
}

func (r *CircuitRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func (r *CircuitRequest) toModel() *models.Circuit {
	return &models.Circuit{
		ID:         r.ID,
		CircuitRef: r.CircuitRef,
		Name:       r.Name,
		Location:   r.Location,
		Country:    r.Country,
		URL:        r.URL,
	}
}

type RaceRequest struct {
	ID        int     `json:"id" validate:"gte=0"`
	Year      int     `json:"year" validate:"required,gte=1900,lte=2200"`
	Round     int     `json:"round" validate:"required,gt=0"`
	CircuitID int     `json:"circuitId" validate:"gte=0"`
	Name      string  `json:"name" validate:"required,min=2,max=128"`
	Date      *string `json:"date,omitempty"`
	URL       string  `json:"url,omitempty" validate:"omitempty,url"`
}

func (r *RaceRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.URL = strings.TrimSpace(r.URL)
}

func (r *RaceRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	_, err := parseDate("date", r.Date)
	return err
}

func (r *RaceRequest) toModel() *models.Race {
	date, _ := parseDate("date", r.Date)
	return &models.Race{
		ID:        r.ID,
		Year:      r.Year,
		Round:     r.Round,
		CircuitID: r.CircuitID,
		Name:      r.Name,
		Date:      date,
		URL:       r.URL,
	}
}

type ResultRequest struct {
	ID            int     `json:"id" validate:"gte=0"`
	RaceID        int     `json:"raceId" validate:"required,gt=0"`
	DriverID      int     `json:"driverId" validate:"required,gt=0"`
	ConstructorID int     `json:"constructorId" validate:"required,gt=0"`
	Grid          int     `json:"grid" validate:"gte=0"`
	PositionText  string  `json:"positionText" validate:"required,max=8"`
	PositionOrder int     `json:"positionOrder" validate:"required,gt=0"`
	Points        float64 `json:"points" validate:"gte=0"`
	Laps          int     `json:"laps" validate:"gte=0"`
	StatusID      int     `json:"statusId" validate:"gte=0"`
}

func (r *ResultRequest) Normalize() {
	r.PositionText = strings.TrimSpace(r.PositionText)
}

func (r *ResultRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func (r *ResultRequest) toModel() *models.Result {
	return &models.Result{
		ID:            r.ID,
		RaceID:        r.RaceID,
		DriverID:      r.DriverID,
		ConstructorID: r.ConstructorID,
		Grid:          r.Grid,
		PositionText:  r.PositionText,
		PositionOrder: r.PositionOrder,
		Points:        r.Points,
		Laps:          r.Laps,
		StatusID:      r.StatusID,
	}
}

// ResultBatchRequest is a bare JSON array of results.
type ResultBatchRequest []ResultRequest

func (r *ResultBatchRequest) Normalize() {
	for i := range *r {
		(*r)[i].Normalize()
	}
}

func (r *ResultBatchRequest) Validate() error {
	if len(*r) > maxBatchSize {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("batch exceeds %d results", maxBatchSize))
	}
	for i := range *r {
		if err := (*r)[i].Validate(); err != nil {
			return dErrors.New(dErrors.CodeOf(err), fmt.Sprintf("result %d: %s", i, err.Error()))
		}
	}
	return nil
}

func (r *ResultBatchRequest) toModels() []*models.Result {
	out := make([]*models.Result, len(*r))
	for i := range *r {
		out[i] = (*r)[i].toModel()
	}
	return out
}
