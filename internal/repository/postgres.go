// Package repository содержит реализацию доступа к удалённому хранилищу карт в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dlanderos/cardtrack-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrCardNotFound возвращается, если карта с указанным идентификатором не найдена
// среди карт пользователя.
var ErrCardNotFound = errors.New("card not found")

const cardColumns = `id, user_id, alias, bank, last_four_digits, network,
	cut_off_date, payment_deadline, annual_fee, annual_fee_deadline,
	credit_line, current_balance, description, benefits,
	expiry_month, expiry_year, created_at, updated_at`

// PostgresRepository предоставляет доступ к хранилищу карт в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// ListCards возвращает карты пользователя, отсортированные по дате создания
// (новые первыми).
func (r *PostgresRepository) ListCards(ctx context.Context, userID string) ([]model.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cardColumns+`
		 FROM cards
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return cards, nil
}

// InsertCard сохраняет новую карту пользователя. Идентификатор и метки времени
// назначает БД; вставленная строка возвращается целиком.
func (r *PostgresRepository) InsertCard(ctx context.Context, userID string, draft model.CardDraft) (*model.Card, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO cards (user_id, alias, bank, last_four_digits, network,
			cut_off_date, payment_deadline, annual_fee, annual_fee_deadline,
			credit_line, current_balance, description, benefits,
			expiry_month, expiry_year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING `+cardColumns,
		userID, draft.Alias, draft.Bank, draft.LastFourDigits, draft.Network,
		draft.CutOffDate, draft.PaymentDeadline, draft.AnnualFee, draft.AnnualFeeDeadline,
		draft.CreditLine, draft.CurrentBalance, draft.Description, draft.Benefits,
		draft.ExpiryMonth, draft.ExpiryYear,
	)

	c, err := scanCard(row)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}
	return &c, nil
}

// UpdateCard накладывает patch на карту пользователя и возвращает обновлённую
// строку. Nil-поля patch оставляют текущие значения.
func (r *PostgresRepository) UpdateCard(ctx context.Context, userID, cardID string, patch model.CardPatch) (*model.Card, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE cards SET
			alias = COALESCE($3, alias),
			bank = COALESCE($4, bank),
			last_four_digits = COALESCE($5, last_four_digits),
			network = COALESCE($6, network),
			cut_off_date = COALESCE($7, cut_off_date),
			payment_deadline = COALESCE($8, payment_deadline),
			annual_fee = COALESCE($9, annual_fee),
			annual_fee_deadline = COALESCE($10, annual_fee_deadline),
			credit_line = COALESCE($11, credit_line),
			current_balance = COALESCE($12, current_balance),
			description = COALESCE($13, description),
			benefits = COALESCE($14, benefits),
			expiry_month = COALESCE($15, expiry_month),
			expiry_year = COALESCE($16, expiry_year),
			updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+cardColumns,
		cardID, userID,
		patch.Alias, patch.Bank, patch.LastFourDigits, patch.Network,
		patch.CutOffDate, patch.PaymentDeadline, patch.AnnualFee, patch.AnnualFeeDeadline,
		patch.CreditLine, patch.CurrentBalance, patch.Description, patch.Benefits,
		patch.ExpiryMonth, patch.ExpiryYear,
	)

	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("update card: %w", err)
	}
	return &c, nil
}

// DeleteCard удаляет карту пользователя. Возвращает ErrCardNotFound, если
// строка не была удалена.
func (r *PostgresRepository) DeleteCard(ctx context.Context, userID, cardID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cards WHERE id = $1 AND user_id = $2`,
		cardID, userID,
	)
	if err != nil {
		if isInvalidID(err) {
			return ErrCardNotFound
		}
		return fmt.Errorf("delete card: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// isInvalidID распознаёт строку, которая не является корректным uuid: для
// вызывающего это равнозначно отсутствию карты.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

func scanCard(row pgx.Row) (model.Card, error) {
	var (
		c           model.Card
		feeDeadline *time.Time
	)

	err := row.Scan(
		&c.ID, &c.UserID, &c.Alias, &c.Bank, &c.LastFourDigits, &c.Network,
		&c.CutOffDate, &c.PaymentDeadline, &c.AnnualFee, &feeDeadline,
		&c.CreditLine, &c.CurrentBalance, &c.Description, &c.Benefits,
		&c.ExpiryMonth, &c.ExpiryYear, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Card{}, pgx.ErrNoRows
		}
		return model.Card{}, fmt.Errorf("scan card: %w", err)
	}

	c.AnnualFeeDeadline = feeDeadline
	return c, nil
}
