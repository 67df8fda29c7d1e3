package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/autoagora/autoagora-backend/internal/models"
)

// PostgresListingStore persists listings in the listings table.
type PostgresListingStore struct {
	db *sql.DB
}

func NewPostgresListingStore(db *sql.DB) *PostgresListingStore {
	return &PostgresListingStore{db: db}
}

const listingColumns = `id, owner_id, make, model, year, price, mileage, condition, color,
	fuel_type, transmission, body_type, description, location, image_urls,
	status, view_count, created_at, expires_at`

func scanListing(row interface{ Scan(...interface{}) error }) (*models.Listing, error) {
	var l models.Listing
	var fuelType, transmission, bodyType, description sql.NullString
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Make, &l.Model, &l.Year, &l.Price, &l.Mileage,
		&l.Condition, &l.Color, &fuelType, &transmission, &bodyType,
		&description, &l.Location, pq.Array(&l.ImageURLs),
		&l.Status, &l.ViewCount, &l.CreatedAt, &l.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	l.FuelType = fuelType.String
	l.Transmission = transmission.String
	l.BodyType = bodyType.String
	l.Description = description.String
	return &l, nil
}

func (s *PostgresListingStore) Create(ctx context.Context, ownerID uuid.UUID, attrs ListingAttrs, now time.Time, maxActive int) (*models.Listing, error) {
	if err := ValidateListingAttrs(attrs, now); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &TransientError{Op: "listing create", Err: err}
	}
	defer tx.Rollback()

	// Quota re-check inside the insert transaction: the handler already
	// consulted the policy, but two concurrent requests could both pass
	// that check. Counting again here closes the window.
	if maxActive > 0 {
		var active int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(1) FROM listings WHERE owner_id = $1 AND status = 'available'
		`, ownerID).Scan(&active)
		if err != nil {
			return nil, &TransientError{Op: "listing quota count", Err: err}
		}
		if active >= maxActive {
			return nil, ErrQuotaExceeded
		}
	}

	listing := &models.Listing{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Make:         attrs.Make,
		Model:        attrs.Model,
		Year:         attrs.Year,
		Price:        attrs.Price,
		Mileage:      attrs.Mileage,
		Condition:    strings.ToLower(attrs.Condition),
		Color:        attrs.Color,
		FuelType:     attrs.FuelType,
		Transmission: attrs.Transmission,
		BodyType:     attrs.BodyType,
		Description:  attrs.Description,
		Location:     attrs.Location,
		ImageURLs:    attrs.ImageURLs,
		Status:       models.ListingAvailable,
		ViewCount:    0,
		CreatedAt:    now,
		ExpiresAt:    now.Add(models.RenewalPeriod),
	}
	if listing.ImageURLs == nil {
		listing.ImageURLs = []string{}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO listings (id, owner_id, make, model, year, price, mileage, condition, color,
			fuel_type, transmission, body_type, description, location, image_urls,
			status, view_count, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, listing.ID, listing.OwnerID, listing.Make, listing.Model, listing.Year,
		listing.Price, listing.Mileage, listing.Condition, listing.Color,
		nullable(listing.FuelType), nullable(listing.Transmission), nullable(listing.BodyType),
		nullable(listing.Description), listing.Location, pq.Array(listing.ImageURLs),
		listing.Status, listing.ViewCount, listing.CreatedAt, listing.ExpiresAt)
	if err != nil {
		return nil, &TransientError{Op: "listing insert", Err: err}
	}

	if err = tx.Commit(); err != nil {
		return nil, &TransientError{Op: "listing create commit", Err: err}
	}
	return listing, nil
}

func (s *PostgresListingStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &TransientError{Op: "listing get", Err: err}
	}
	return l, nil
}

func (s *PostgresListingStore) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE status = 'available'`
	args := []interface{}{}
	idx := 1

	add := func(clause string, value interface{}) {
		query += fmt.Sprintf(" AND "+clause, idx)
		args = append(args, value)
		idx++
	}

	if criteria.Make != "" {
		add("make ILIKE $%d", "%"+criteria.Make+"%")
	}
	if criteria.Model != "" {
		add("model ILIKE $%d", "%"+criteria.Model+"%")
	}
	if criteria.MinYear != nil {
		add("year >= $%d", *criteria.MinYear)
	}
	if criteria.MaxYear != nil {
		add("year <= $%d", *criteria.MaxYear)
	}
	if criteria.MinPrice != nil {
		add("price >= $%d", *criteria.MinPrice)
	}
	if criteria.MaxPrice != nil {
		add("price <= $%d", *criteria.MaxPrice)
	}
	if criteria.MinMileage != nil {
		add("mileage >= $%d", *criteria.MinMileage)
	}
	if criteria.MaxMileage != nil {
		add("mileage <= $%d", *criteria.MaxMileage)
	}
	if criteria.Condition != "" {
		add("LOWER(condition) = LOWER($%d)", criteria.Condition)
	}
	if criteria.Location != "" {
		add("LOWER(location) = LOWER($%d)", criteria.Location)
	}
	if criteria.FuelType != "" {
		add("LOWER(fuel_type) = LOWER($%d)", criteria.FuelType)
	}
	if criteria.Transmission != "" {
		add("LOWER(transmission) = LOWER($%d)", criteria.Transmission)
	}
	if criteria.BodyType != "" {
		add("LOWER(body_type) = LOWER($%d)", criteria.BodyType)
	}

	query += " ORDER BY " + orderClause(criteria.Sort)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &TransientError{Op: "listing search", Err: err}
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, &TransientError{Op: "listing search scan", Err: err}
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &TransientError{Op: "listing search rows", Err: err}
	}
	return listings, nil
}

// orderClause maps a sort key to SQL, always tie-breaking by id so paging
// stays stable.
func orderClause(key models.SortKey) string {
	switch key {
	case models.SortPriceAsc:
		return "price ASC, id ASC"
	case models.SortPriceDesc:
		return "price DESC, id ASC"
	case models.SortYearDesc:
		return "year DESC, id ASC"
	case models.SortMileage:
		return "mileage ASC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func (s *PostgresListingStore) SetStatus(ctx context.Context, id uuid.UUID, status models.ListingStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE listings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return &TransientError{Op: "listing set status", Err: err}
	}
	return requireRow(res)
}

func (s *PostgresListingStore) Renew(ctx context.Context, id uuid.UUID, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE listings SET expires_at = $1 WHERE id = $2
	`, now.Add(models.RenewalPeriod), id)
	if err != nil {
		return &TransientError{Op: "listing renew", Err: err}
	}
	return requireRow(res)
}

func (s *PostgresListingStore) UpdateAttrs(ctx context.Context, id uuid.UUID, attrs ListingAttrs) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE listings SET make = $1, model = $2, year = $3, price = $4, mileage = $5,
			condition = $6, color = $7, fuel_type = $8, transmission = $9, body_type = $10,
			description = $11, location = $12, image_urls = $13
		WHERE id = $14
	`, attrs.Make, attrs.Model, attrs.Year, attrs.Price, attrs.Mileage,
		strings.ToLower(attrs.Condition), attrs.Color, nullable(attrs.FuelType),
		nullable(attrs.Transmission), nullable(attrs.BodyType), nullable(attrs.Description),
		attrs.Location, pq.Array(attrs.ImageURLs), id)
	if err != nil {
		return &TransientError{Op: "listing update", Err: err}
	}
	return requireRow(res)
}

func (s *PostgresListingStore) IncrementView(ctx context.Context, id uuid.UUID) error {
	// Single-field atomic bump; last-write-wins semantics are fine here.
	_, err := s.db.ExecContext(ctx, `
		UPDATE listings SET view_count = view_count + 1 WHERE id = $1
	`, id)
	if err != nil {
		return &TransientError{Op: "listing view bump", Err: err}
	}
	return nil
}

func (s *PostgresListingStore) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM listings WHERE owner_id = $1 AND status = 'available'
	`, ownerID).Scan(&count)
	if err != nil {
		return 0, &TransientError{Op: "listing active count", Err: err}
	}
	return count, nil
}

func (s *PostgresListingStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE owner_id = $1 AND status != 'deleted'
		ORDER BY created_at DESC, id ASC
	`, ownerID)
	if err != nil {
		return nil, &TransientError{Op: "listing list by owner", Err: err}
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, &TransientError{Op: "listing list scan", Err: err}
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *PostgresListingStore) Expire(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE listings SET status = 'expired'
		WHERE status = 'available' AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, &TransientError{Op: "listing expire", Err: err}
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &TransientError{Op: "rows affected", Err: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
