package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"paddock/internal/championship/models"
	"paddock/pkg/platform/sentinel"
)

type driverTable struct{ tables }

func copyDriver(d models.Driver) *models.Driver {
	d.DOB = copyTime(d.DOB)
	return &d
}

func (t driverTable) FindByID(_ context.Context, id int) (*models.Driver, error) {
	d, ok := t.read().drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %d: %w", id, sentinel.ErrNotFound)
	}
	return copyDriver(d), nil
}

func (t driverTable) FindByIDs(_ context.Context, ids []int) (map[int]*models.Driver, error) {
	st := t.read()
	out := make(map[int]*models.Driver, len(ids))
	for _, id := range ids {
		if d, ok := st.drivers[id]; ok {
			out[id] = copyDriver(d)
		}
	}
	return out, nil
}

func (t driverTable) List(_ context.Context, q models.DriverQuery) ([]*models.Driver, error) {
	out := make([]*models.Driver, 0)
	for _, d := range t.read().drivers {
		if q.Nationality != "" && d.Nationality != q.Nationality {
			continue
		}
		out = append(out, copyDriver(d))
	}
	slices.SortFunc(out, func(a, b *models.Driver) int {
		if c := sortByName(q.Sort, a.Surname, b.Surname); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out, nil
}

func (t driverTable) Nationalities(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, d := range t.read().drivers {
		if d.Nationality == "" {
			continue
		}
		if _, ok := seen[d.Nationality]; ok {
			continue
		}
		seen[d.Nationality] = struct{}{}
		out = append(out, d.Nationality)
	}
	slices.Sort(out)
	return out, nil
}

func (t driverTable) Insert(_ context.Context, driver *models.Driver) error {
	return t.write(func(st *state) error {
		if err := checkInsertID(driver.ID, st.drivers); err != nil {
			return fmt.Errorf("driver %d: %w", driver.ID, err)
		}
		st.drivers[driver.ID] = *copyDriver(*driver)
		return nil
	})
}

func (t driverTable) Update(_ context.Context, driver *models.Driver) error {
	return t.write(func(st *state) error {
		if _, ok := st.drivers[driver.ID]; !ok {
			return fmt.Errorf("driver %d: %w", driver.ID, sentinel.ErrNotFound)
		}
		st.drivers[driver.ID] = *copyDriver(*driver)
		return nil
	})
}

func (t driverTable) Delete(_ context.Context, id int) error {
	return t.write(func(st *state) error {
		if _, ok := st.drivers[id]; !ok {
			return fmt.Errorf("driver %d: %w", id, sentinel.ErrNotFound)
		}
		delete(st.drivers, id)
		return nil
	})
}

type constructorTable struct{ tables }

func (t constructorTable) FindByID(_ context.Context, id int) (*models.Constructor, error) {
	c, ok := t.read().constructors[id]
	if !ok {
		return nil, fmt.Errorf("constructor %d: %w", id, sentinel.ErrNotFound)
	}
	return &c, nil
}

func (t constructorTable) FindByIDs(_ context.Context, ids []int) (map[int]*models.Constructor, error) {
	st := t.read()
	out := make(map[int]*models.Constructor, len(ids))
	for _, id := range ids {
		if c, ok := st.constructors[id]; ok {
			out[id] = &c
		}
	}
	return out, nil
}

func (t constructorTable) List(_ context.Context) ([]*models.Constructor, error) {
	out := make([]*models.Constructor, 0)
	for _, c := range t.read().constructors {
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Constructor) int { return a.ID - b.ID })
	return out, nil
}

func (t constructorTable) Insert(_ context.Context, constructor *models.Constructor) error {
	return t.write(func(st *state) error {
		if err := checkInsertID(constructor.ID, st.constructors); err != nil {
			return fmt.Errorf("constructor %d: %w", constructor.ID, err)
		}
		st.constructors[constructor.ID] = *constructor
		return nil
	})
}

func (t constructorTable) Update(_ context.Context, constructor *models.Constructor) error {
	return t.write(func(st *state) error {
		if _, ok := st.constructors[constructor.ID]; !ok {
			return fmt.Errorf("constructor %d: %w", constructor.ID, sentinel.ErrNotFound)
		}
		st.constructors[constructor.ID] = *constructor
		return nil
	})
}

func (t constructorTable) Delete(_ context.Context, id int) error {
	return t.write(func(st *state) error {
		if _, ok := st.constructors[id]; !ok {
			return fmt.Errorf("constructor %d: %w", id, sentinel.ErrNotFound)
		}
		delete(st.constructors, id)
		return nil
	})
}

type circuitTable struct{ tables }

func (t circuitTable) FindByID(_ context.Context, id int) (*models.Circuit, error) {
	c, ok := t.read().circuits[id]
	if !ok {
		return nil, fmt.Errorf("circuit %d: %w", id, sentinel.ErrNotFound)
	}
	return &c, nil
}

func (t circuitTable) FindByIDs(_ context.Context, ids []int) (map[int]*models.Circuit, error) {
	st := t.read()
	out := make(map[int]*models.Circuit, len(ids))
	for _, id := range ids {
		if c, ok := st.circuits[id]; ok {
			out[id] = &c
		}
	}
	return out, nil
}

// List orders circuits by name, ascending unless descending is requested.
func (t circuitTable) List(_ context.Context, q models.CircuitQuery) ([]*models.Circuit, error) {
	order := q.Sort
	if order == models.SortNone {
		order = models.SortAsc
	}
	out := make([]*models.Circuit, 0)
	for _, c := range t.read().circuits {
		if q.Country != "" && c.Country != q.Country {
			continue
		}
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Circuit) int {
		if c := sortByName(order, a.Name, b.Name); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out, nil
}

func (t circuitTable) Insert(_ context.Context, circuit *models.Circuit) error {
	return t.write(func(st *state) error {
		if err := checkInsertID(circuit.ID, st.circuits); err != nil {
			return fmt.Errorf("circuit %d: %w", circuit.ID, err)
		}
		st.circuits[circuit.ID] = *circuit
		return nil
	})
}

func (t circuitTable) Update(_ context.Context, circuit *models.Circuit) error {
	return t.write(func(st *state) error {
		if _, ok := st.circuits[circuit.ID]; !ok {
			return fmt.Errorf("circuit %d: %w", circuit.ID, sentinel.ErrNotFound)
		}
		st.circuits[circuit.ID] = *circuit
		return nil
	})
}

func (t circuitTable) Delete(_ context.Context, id int) error {
	return t.write(func(st *state) error {
		if _, ok := st.circuits[id]; !ok {
			return fmt.Errorf("circuit %d: %w", id, sentinel.ErrNotFound)
		}
		delete(st.circuits, id)
		return nil
	})
}

func checkInsertID[V any](id int, existing map[int]V) error {
	if id <= 0 {
		return fmt.Errorf("id must be assigned before insert: %w", sentinel.ErrConflict)
	}
	if _, ok := existing[id]; ok {
		return sentinel.ErrConflict
	}
	return nil
}

func sortByName(order models.SortOrder, a, b string) int {
	switch order {
	case models.SortAsc:
		return strings.Compare(a, b)
	case models.SortDesc:
		return strings.Compare(b, a)
	}
	return 0
}
