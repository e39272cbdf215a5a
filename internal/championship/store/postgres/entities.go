package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paddock/internal/championship/models"
	"paddock/pkg/platform/tx"
)

const driverColumns = `id, driver_ref, forename, surname, dob, nationality, url`

type DriverStore struct {
	db *sql.DB
}

func scanDriver(row scanner) (*models.Driver, error) {
	var d models.Driver
	var dob sql.NullTime
	if err := row.Scan(&d.ID, &d.DriverRef, &d.Forename, &d.Surname, &dob, &d.Nationality, &d.URL); err != nil {
		return nil, err
	}
	d.DOB = timePtr(dob)
	return &d, nil
}

func (s *DriverStore) FindByID(ctx context.Context, id int) (*models.Driver, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)
	d, err := scanDriver(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("driver", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find driver %d: %w", id, err)
	}
	return d, nil
}

func (s *DriverStore) FindByIDs(ctx context.Context, ids []int) (map[int]*models.Driver, error) {
	out := make(map[int]*models.Driver, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = ANY($1)`, int64s(ids))
	if err != nil {
		return nil, fmt.Errorf("find drivers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		out[d.ID] = d
	}
	return out, rows.Err()
}

func (s *DriverStore) List(ctx context.Context, q models.DriverQuery) ([]*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers`
	var args []any
	if q.Nationality != "" {
		query += ` WHERE nationality = $1`
		args = append(args, q.Nationality)
	}
	query += ` ORDER BY ` + orderBy("surname", q.Sort) + `id`

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *DriverStore) Nationalities(ctx context.Context) ([]string, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT DISTINCT nationality FROM drivers WHERE nationality <> '' ORDER BY nationality`)
	if err != nil {
		return nil, fmt.Errorf("list nationalities: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan nationality: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *DriverStore) Insert(ctx context.Context, d *models.Driver) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO drivers (`+driverColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.DriverRef, d.Forename, d.Surname, nullTime(d.DOB), d.Nationality, d.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("insert driver %d", d.ID), nil)
	}
	return nil
}

func (s *DriverStore) Update(ctx context.Context, d *models.Driver) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE drivers
		SET driver_ref = $2, forename = $3, surname = $4, dob = $5, nationality = $6, url = $7
		WHERE id = $1`,
		d.ID, d.DriverRef, d.Forename, d.Surname, nullTime(d.DOB), d.Nationality, d.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("update driver %d", d.ID), nil)
	}
	return expectRow(res, "driver", d.ID)
}

func (s *DriverStore) Delete(ctx context.Context, id int) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete driver %d: %w", id, err)
	}
	return expectRow(res, "driver", id)
}

const constructorColumns = `id, constructor_ref, name, nationality, url`

type ConstructorStore struct {
	db *sql.DB
}

func scanConstructor(row scanner) (*models.Constructor, error) {
	var c models.Constructor
	if err := row.Scan(&c.ID, &c.ConstructorRef, &c.Name, &c.Nationality, &c.URL); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ConstructorStore) FindByID(ctx context.Context, id int) (*models.Constructor, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT `+constructorColumns+` FROM constructors WHERE id = $1`, id)
	c, err := scanConstructor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("constructor", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find constructor %d: %w", id, err)
	}
	return c, nil
}

func (s *ConstructorStore) FindByIDs(ctx context.Context, ids []int) (map[int]*models.Constructor, error) {
	out := make(map[int]*models.Constructor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `SELECT `+constructorColumns+` FROM constructors WHERE id = ANY($1)`, int64s(ids))
	if err != nil {
		return nil, fmt.Errorf("find constructors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanConstructor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan constructor: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (s *ConstructorStore) List(ctx context.Context) ([]*models.Constructor, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `SELECT `+constructorColumns+` FROM constructors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list constructors: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Constructor, 0)
	for rows.Next() {
		c, err := scanConstructor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan constructor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ConstructorStore) Insert(ctx context.Context, c *models.Constructor) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO constructors (`+constructorColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.ConstructorRef, c.Name, c.Nationality, c.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("insert constructor %d", c.ID), nil)
	}
	return nil
}

func (s *ConstructorStore) Update(ctx context.Context, c *models.Constructor) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE constructors SET constructor_ref = $2, name = $3, nationality = $4, url = $5 WHERE id = $1`,
		c.ID, c.ConstructorRef, c.Name, c.Nationality, c.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("update constructor %d", c.ID), nil)
	}
	return expectRow(res, "constructor", c.ID)
}

func (s *ConstructorStore) Delete(ctx context.Context, id int) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM constructors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete constructor %d: %w", id, err)
	}
	return expectRow(res, "constructor", id)
}

const circuitColumns = `id, circuit_ref, name, location, country, url`

type CircuitStore struct {
	db *sql.DB
}

func scanCircuit(row scanner) (*models.Circuit, error) {
	var c models.Circuit
	if err := row.Scan(&c.ID, &c.CircuitRef, &c.Name, &c.Location, &c.Country, &c.URL); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CircuitStore) FindByID(ctx context.Context, id int) (*models.Circuit, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT `+circuitColumns+` FROM circuits WHERE id = $1`, id)
	c, err := scanCircuit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("circuit", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find circuit %d: %w", id, err)
	}
	return c, nil
}

func (s *CircuitStore) FindByIDs(ctx context.Context, ids []int) (map[int]*models.Circuit, error) {
	out := make(map[int]*models.Circuit, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `SELECT `+circuitColumns+` FROM circuits WHERE id = ANY($1)`, int64s(ids))
	if err != nil {
		return nil, fmt.Errorf("find circuits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCircuit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan circuit: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (s *CircuitStore) List(ctx context.Context, q models.CircuitQuery) ([]*models.Circuit, error) {
	order := q.Sort
	if order == models.SortNone {
		order = models.SortAsc
	}
	query := `SELECT ` + circuitColumns + ` FROM circuits`
	var args []any
	if q.Country != "" {
		query += ` WHERE country = $1`
		args = append(args, q.Country)
	}
	query += ` ORDER BY ` + orderBy("name", order) + `id`

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list circuits: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Circuit, 0)
	for rows.Next() {
		c, err := scanCircuit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan circuit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CircuitStore) Insert(ctx context.Context, c *models.Circuit) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO circuits (`+circuitColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.CircuitRef, c.Name, c.Location, c.Country, c.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("insert circuit %d", c.ID), nil)
	}
	return nil
}

func (s *CircuitStore) Update(ctx context.Context, c *models.Circuit) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE circuits SET circuit_ref = $2, name = $3, location = $4, country = $5, url = $6 WHERE id = $1`,
		c.ID, c.CircuitRef, c.Name, c.Location, c.Country, c.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("update circuit %d", c.ID), nil)
	}
	return expectRow(res, "circuit", c.ID)
}

func (s *CircuitStore) Delete(ctx context.Context, id int) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM circuits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete circuit %d: %w", id, err)
	}
	return expectRow(res, "circuit", id)
}

// orderBy returns a leading ORDER BY term for an alphabetical sort, or
// nothing when no sort was requested. The column is always a constant.
func orderBy(column string, order models.SortOrder) string {
	switch order {
	case models.SortAsc:
		return column + " ASC, "
	case models.SortDesc:
		return column + " DESC, "
	}
	return ""
}
