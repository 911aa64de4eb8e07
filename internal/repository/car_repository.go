package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/autodrive/test-drive-portal/internal/model"
)

// CarRepo provides read and write access to the car catalog.  Reads join
// the assigned sales representative so responses can carry the contact
// the portal needs for the WhatsApp handoff.
type CarRepo struct{ db *sql.DB }

func NewCarRepo(db *sql.DB) *CarRepo { return &CarRepo{db: db} }

// CarWithSales pairs a catalog row with its denormalized sales contact.
type CarWithSales struct {
	Car   model.Car
	Sales model.SalesContact
}

const carSelect = `SELECT
		c.id, c.slug, c.name, c.brand, c.image, c.description, c.price,
		c.showroom, c.body_type, c.engine_type, c.capacity, c.year,
		c.sales_id, c.created_at, c.updated_at,
		u.name, u.email, u.phone
	FROM cars c
	JOIN users u ON u.id = c.sales_id`

// Search returns catalog rows matching the optional search term against
// name and brand, newest first.  An empty term lists everything.
func (r *CarRepo) Search(ctx context.Context, term string) ([]CarWithSales, error) {
	query := carSelect
	args := []any{}
	if t := strings.TrimSpace(term); t != "" {
		query += " WHERE LOWER(c.name) LIKE ? OR LOWER(c.brand) LIKE ?"
		like := "%" + strings.ToLower(t) + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CarWithSales{}
	for rows.Next() {
		cw, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Additional images are loaded in one pass to avoid a query per car.
	if err := r.attachImages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBySlug looks up a single car by its external key.
func (r *CarRepo) GetBySlug(ctx context.Context, slug string) (CarWithSales, error) {
	row := r.db.QueryRowContext(ctx, carSelect+" WHERE c.slug=? LIMIT 1", slug)
	cw, err := scanCar(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return CarWithSales{}, ErrCarNotFound
		}
		return CarWithSales{}, err
	}
	one := []CarWithSales{cw}
	if err := r.attachImages(ctx, one); err != nil {
		return CarWithSales{}, err
	}
	return one[0], nil
}

// GetByID fetches a single car by primary key (internal callers only;
// external lookups go through the slug).
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (CarWithSales, error) {
	row := r.db.QueryRowContext(ctx, carSelect+" WHERE c.id=? LIMIT 1", id)
	cw, err := scanCar(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return CarWithSales{}, ErrCarNotFound
		}
		return CarWithSales{}, err
	}
	one := []CarWithSales{cw}
	if err := r.attachImages(ctx, one); err != nil {
		return CarWithSales{}, err
	}
	return one[0], nil
}

// Create inserts a car and stamps its slug in a second statement, since
// the slug embeds the auto-increment id.  Both run in one transaction so
// no row is ever visible without its slug.
func (r *CarRepo) Create(ctx context.Context, c model.Car, slugFor func(name string, id uint64) string) (uint64, string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO cars (slug, name, brand, image, description, price, showroom,
			body_type, engine_type, capacity, year, sales_id)
		 VALUES ('',?,?,?,?,?,?,?,?,?,?,?)`,
		c.Name, c.Brand, c.Image, c.Description, c.Price, c.Showroom,
		c.BodyType, c.EngineType, c.Capacity, c.Year, c.SalesID)
	if err != nil {
		return 0, "", err
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}
	id := uint64(id64)
	slug := slugFor(c.Name, id)
	if _, err := tx.ExecContext(ctx, "UPDATE cars SET slug=? WHERE id=?", slug, id); err != nil {
		return 0, "", err
	}
	for i, url := range c.Images {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO car_images (car_id, url, position) VALUES (?,?,?)",
			id, url, i); err != nil {
			return 0, "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	committed = true
	return id, slug, nil
}

// Count returns the total number of catalog rows (dashboard statistic).
func (r *CarRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cars").Scan(&n)
	return n, err
}

// scanCar works for both *sql.Row and *sql.Rows.
func scanCar(row interface{ Scan(...any) error }) (CarWithSales, error) {
	var cw CarWithSales
	err := row.Scan(
		&cw.Car.ID, &cw.Car.Slug, &cw.Car.Name, &cw.Car.Brand, &cw.Car.Image,
		&cw.Car.Description, &cw.Car.Price, &cw.Car.Showroom, &cw.Car.BodyType,
		&cw.Car.EngineType, &cw.Car.Capacity, &cw.Car.Year, &cw.Car.SalesID,
		&cw.Car.CreatedAt, &cw.Car.UpdatedAt,
		&cw.Sales.Name, &cw.Sales.Email, &cw.Sales.Phone,
	)
	cw.Sales.ID = cw.Car.SalesID
	return cw, err
}

func (r *CarRepo) attachImages(ctx context.Context, cars []CarWithSales) error {
	if len(cars) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(cars))
	ids := make([]any, 0, len(cars))
	ph := make([]string, 0, len(cars))
	for i, cw := range cars {
		idx[cw.Car.ID] = i
		ids = append(ids, cw.Car.ID)
		ph = append(ph, "?")
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT car_id, url FROM car_images WHERE car_id IN ("+strings.Join(ph, ",")+") ORDER BY car_id, position",
		ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var carID uint64
		var url string
		if err := rows.Scan(&carID, &url); err != nil {
			return err
		}
		if i, ok := idx[carID]; ok {
			cars[i].Car.Images = append(cars[i].Car.Images, url)
		}
	}
	return rows.Err()
}
