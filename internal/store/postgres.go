package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements MarketDataStore against the marketplace's
// relational store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and verifies it.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const listingColumns = `id, card_id, name, set_name, grade, grading_company_id,
		grading_company, price, cert_number, cert_verified, seller_name,
		images, views, watchlist_count, listing_type, status, created_at`

// FindActiveListings returns active listings matching the filter.
func (s *PostgresStore) FindActiveListings(ctx context.Context, filter ItemFilter, limit int) ([]Listing, error) {
	where := []string{"status = 'active'"}
	args := []interface{}{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.CardID != "" {
		addArg("card_id = $%d", filter.CardID)
	} else {
		if filter.Name != "" {
			addArg("name = $%d", filter.Name)
		}
		if filter.SetName != "" {
			addArg("set_name = $%d", filter.SetName)
		}
	}
	if filter.Grade != "" {
		addArg("grade = $%d", filter.Grade)
	}
	if filter.GradingCompanyID != "" {
		addArg("grading_company_id = $%d", filter.GradingCompanyID)
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d`, listingColumns, strings.Join(where, " AND "), len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return listings, nil
}

// FindCompletedSales returns completed sales matching the filter, most
// recent first.
func (s *PostgresStore) FindCompletedSales(ctx context.Context, filter ItemFilter, limit int) ([]Sale, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.CardID != "" {
		addArg("card_id = $%d", filter.CardID)
	} else {
		if filter.Name != "" {
			addArg("name = $%d", filter.Name)
		}
		if filter.SetName != "" {
			addArg("set_name = $%d", filter.SetName)
		}
	}
	if filter.Grade != "" {
		addArg("grade = $%d", filter.Grade)
	}
	if filter.GradingCompanyID != "" {
		addArg("grading_company_id = $%d", filter.GradingCompanyID)
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, listing_id, price, grade, grading_company_id, completed_at
		FROM sales
		WHERE %s
		ORDER BY completed_at DESC
		LIMIT $%d`, strings.Join(where, " AND "), len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(
			&sale.ID,
			&sale.ListingID,
			&sale.Price,
			&sale.Grade,
			&sale.GradingCompanyID,
			&sale.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	return sales, nil
}

// FindItemByID returns a single listing by id, or ErrNotFound.
func (s *PostgresStore) FindItemByID(ctx context.Context, id string) (*Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE id = $1`, listingColumns)

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query listing %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query listing %s: %w", id, err)
		}
		return nil, ErrNotFound
	}

	l, err := scanListing(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan listing %s: %w", id, err)
	}

	return &l, nil
}

func scanListing(rows pgx.Rows) (Listing, error) {
	var l Listing
	err := rows.Scan(
		&l.ID,
		&l.CardID,
		&l.Name,
		&l.SetName,
		&l.Grade,
		&l.GradingCompanyID,
		&l.GradingCompany,
		&l.Price,
		&l.CertNumber,
		&l.CertVerified,
		&l.SellerName,
		&l.Images,
		&l.Views,
		&l.WatchlistCount,
		&l.ListingType,
		&l.Status,
		&l.CreatedAt,
	)
	return l, err
}
