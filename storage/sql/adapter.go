package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sig-0/remitrates/storage/types"
)

const (
	saveQuoteQuery = `
		INSERT INTO quotes (
			provider,
			origin,
			destination,
			send_amount,
			fee,
			exchange_rate,
			total_cost,
			recipient_receives,
			estimated_delivery,
			delivery_method,
			timestamp,
			data_source,
			note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	quotesQuery = `
		SELECT
			id,
			provider,
			origin,
			destination,
			send_amount,
			fee,
			exchange_rate,
			total_cost,
			recipient_receives,
			estimated_delivery,
			delivery_method,
			timestamp,
			data_source,
			note
		FROM quotes
		WHERE ($1 = '' OR provider = $1)
		  AND ($2 = '' OR origin = $2)
		  AND ($3 = '' OR destination = $3)
		  AND ($5::NUMERIC IS NULL OR send_amount = $5)
		ORDER BY timestamp DESC, id DESC
		LIMIT NULLIF($4::BIGINT, 0)
	`

	listProvidersQuery    = `SELECT DISTINCT provider FROM quotes ORDER BY provider`
	listDestinationsQuery = `SELECT DISTINCT destination FROM quotes ORDER BY destination`
)

// DBTX is the subset of the pgx API the storage needs.
// Both *pgx.Conn and *pgxpool.Pool satisfy it
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveQuote(ctx context.Context, q *types.Quote) (uint64, error) {
	elem, err := types.PrepareQuote(q)
	if err != nil {
		return 0, err
	}

	var id int64

	if err = s.db.QueryRow(
		ctx,
		saveQuoteQuery,
		elem.Provider,
		elem.Origin,
		elem.Destination,
		decimalToNumeric(elem.SendAmount),
		decimalToNumeric(elem.Fee),
		decimalToNumeric(elem.ExchangeRate),
		decimalToNumeric(elem.TotalCost),
		decimalToNumeric(elem.RecipientReceives),
		elem.EstimatedDelivery,
		elem.DeliveryMethod,
		timeToTimestampz(elem.Timestamp),
		elem.DataSource,
		elem.Note,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("unable to save quote: %w", err)
	}

	return uint64(id), nil //nolint:gosec // BIGSERIAL is positive
}

func (s *Storage) Quotes(ctx context.Context, query *types.QuoteQuery) ([]*types.Quote, error) {
	if query == nil {
		query = &types.QuoteQuery{}
	}

	rows, err := s.db.Query(
		ctx,
		quotesQuery,
		query.Provider,
		types.NormalizeCode(query.Origin),
		types.NormalizeCode(query.Destination),
		int64(query.Limit),
		amountFilter(query.SendAmount),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch quotes: %w", err)
	}
	defer rows.Close()

	out := make([]*types.Quote, 0)

	for rows.Next() {
		var r quoteRow

		if err = rows.Scan(
			&r.ID,
			&r.Provider,
			&r.Origin,
			&r.Destination,
			&r.SendAmount,
			&r.Fee,
			&r.ExchangeRate,
			&r.TotalCost,
			&r.RecipientReceives,
			&r.EstimatedDelivery,
			&r.DeliveryMethod,
			&r.Timestamp,
			&r.DataSource,
			&r.Note,
		); err != nil {
			return nil, fmt.Errorf("unable to scan quote: %w", err)
		}

		out = append(out, parseQuote(r))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch quotes: %w", err)
	}

	return out, nil
}

func (s *Storage) ListProviders(ctx context.Context) ([]string, error) {
	out, err := s.listStrings(ctx, listProvidersQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch providers: %w", err)
	}

	return out, nil
}

func (s *Storage) ListDestinations(ctx context.Context) ([]string, error) {
	out, err := s.listStrings(ctx, listDestinationsQuery)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch destinations: %w", err)
	}

	return out, nil
}

func (s *Storage) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // valid case
		}

		return nil, err
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	return out, nil
}

// quoteRow is a single scanned quotes table row
type quoteRow struct {
	Timestamp         pgtype.Timestamptz
	Provider          string
	Origin            string
	Destination       string
	EstimatedDelivery string
	DeliveryMethod    string
	DataSource        string
	Note              string
	SendAmount        pgtype.Numeric
	Fee               pgtype.Numeric
	ExchangeRate      pgtype.Numeric
	TotalCost         pgtype.Numeric
	RecipientReceives pgtype.Numeric
	ID                int64
}

// parseQuote parses the postgres quote row to the common Go type
func parseQuote(r quoteRow) *types.Quote {
	return &types.Quote{
		ID:                uint64(r.ID), //nolint:gosec // BIGSERIAL is positive
		Provider:          r.Provider,
		Origin:            r.Origin,
		Destination:       r.Destination,
		SendAmount:        numericToDecimal(r.SendAmount),
		Fee:               numericToDecimal(r.Fee),
		ExchangeRate:      numericToDecimal(r.ExchangeRate),
		TotalCost:         numericToDecimal(r.TotalCost),
		RecipientReceives: numericToDecimal(r.RecipientReceives),
		EstimatedDelivery: r.EstimatedDelivery,
		DeliveryMethod:    r.DeliveryMethod,
		Timestamp:         timestampzToTime(r.Timestamp),
		DataSource:        r.DataSource,
		Note:              r.Note,
	}
}

// decimalToNumeric converts the decimal value to postgres numeric, losslessly
func decimalToNumeric(value decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   value.Coefficient(),
		Exp:   value.Exponent(),
		Valid: true,
	}
}

// amountFilter maps an unset (zero) amount filter to NULL
func amountFilter(value decimal.Decimal) pgtype.Numeric {
	if value.IsZero() {
		return pgtype.Numeric{}
	}

	return decimalToNumeric(value)
}

// numericToDecimal converts the postgres value to decimal
func numericToDecimal(value pgtype.Numeric) decimal.Decimal {
	if !value.Valid || value.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(value.Int, value.Exp)
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
