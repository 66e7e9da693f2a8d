package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/openaudit/internal/common"
	"github.com/dmitrijs2005/openaudit/internal/dbx"
	"github.com/dmitrijs2005/openaudit/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// Index names from the accounts migration; used to tell which uniqueness
// rule a 23505 violated.
const (
	usernameIdx = "accounts_username_live_idx"
	emailIdx    = "accounts_email_confirmed_live_idx"
)

const accountColumns = `id, username, email_lookup, pending_email_lookup, email_cipher,
		password_hash, email_confirmed, email_confirm_code, password_reset_code,
		do_not_email_code, newsletter_unsubscribe_code, do_not_email, banned,
		newsletter_subscribed, create_date, delete_date, delete_reason,
		real_name, github, linkedin, qualifications`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query :=
		`INSERT INTO accounts (id, username, email_lookup, email_cipher, password_hash,
		    email_confirm_code, do_not_email_code, newsletter_unsubscribe_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING create_date
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Username, a.EmailLookupHash, a.EmailCipher, a.PasswordHash,
		a.EmailConfirmCode, a.DoNotEmailCode, a.NewsletterUnsubscribeCode).Scan(&a.CreateDate)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case usernameIdx:
				return common.ErrUsernameTaken
			case emailIdx:
				return common.ErrEmailTaken
			}
		}
		return wrapDBError(err)
	}

	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*models.Account, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM accounts
		 WHERE id = $1 %s
		 LIMIT 1`, accountColumns, deletedFilter(includeDeleted))

	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string, includeDeleted bool) (*models.Account, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM accounts
		 WHERE lower(username) = lower($1) %s
		 LIMIT 1`, accountColumns, deletedFilter(includeDeleted))

	return scanAccount(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindByEmailLookup(ctx context.Context, lookupHash string, includeDeleted bool) (*models.Account, error) {
	// A confirmed row wins over an unconfirmed duplicate of the same
	// address.
	query := fmt.Sprintf(
		`SELECT %s FROM accounts
		 WHERE email_lookup = $1 %s
		 ORDER BY email_confirmed DESC
		 LIMIT 1`, accountColumns, deletedFilter(includeDeleted))

	return scanAccount(r.db.QueryRowContext(ctx, query, lookupHash))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, p models.Profile) (int64, error) {
	query :=
		`UPDATE accounts
		 SET real_name = $1, github = $2, linkedin = $3, qualifications = $4
		 WHERE id = $5 AND delete_date IS NULL
		 `

	return r.exec(ctx, query, p.RealName, p.GitHub, p.LinkedIn, p.Qualifications, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) (int64, error) {
	query :=
		`UPDATE accounts
		 SET password_hash = $1
		 WHERE id = $2 AND delete_date IS NULL
		 `

	return r.exec(ctx, query, passwordHash, id)
}

func (r *PostgresRepository) ConfirmEmail(ctx context.Context, code, lookupHash string) (int64, error) {
	query :=
		`UPDATE accounts
		 SET email_confirmed = true
		 WHERE email_confirm_code = $1 AND email_lookup = $2
		   AND email_confirmed = false AND delete_date IS NULL
		 `

	return r.exec(ctx, query, code, lookupHash)
}

func (r *PostgresRepository) SetPendingEmail(ctx context.Context, id, pendingLookupHash, confirmCode string) (int64, error) {
	query :=
		`UPDATE accounts
		 SET pending_email_lookup = $1, email_confirm_code = $2
		 WHERE id = $3 AND delete_date IS NULL
		 `

	return r.exec(ctx, query, pendingLookupHash, confirmCode, id)
}

func (r *PostgresRepository) PromotePendingEmail(ctx context.Context, code, lookupHash, emailCipher string) (int64, error) {
	query :=
		`UPDATE accounts
		 SET email_lookup = $1, email_cipher = $2, pending_email_lookup = NULL
		 WHERE email_confirm_code = $3 AND pending_email_lookup = $1
		   AND delete_date IS NULL
		 `

	return r.exec(ctx, query, lookupHash, emailCipher, code)
}

func (r *PostgresRepository) SetPasswordResetCode(ctx context.Context, lookupHash, code string) (int64, error) {
	query :=
		`UPDATE accounts
		 SET password_reset_code = $1
		 WHERE email_lookup = $2 AND email_confirmed = true
		   AND delete_date IS NULL
		 `

	return r.exec(ctx, query, code, lookupHash)
}

func (r *PostgresRepository) ResetPassword(ctx context.Context, code, passwordHash string) (int64, error) {
	// Match-and-clear in one statement so a code cannot be spent twice.
	query :=
		`UPDATE accounts
		 SET password_hash = $1, password_reset_code = NULL
		 WHERE password_reset_code = $2 AND delete_date IS NULL
		 `

	return r.exec(ctx, query, passwordHash, code)
}

func (r *PostgresRepository) SetDoNotEmail(ctx context.Context, lookupHash, code string) (int64, error) {
	query :=
		`UPDATE accounts
		 SET do_not_email = true
		 WHERE email_lookup = $1 AND do_not_email_code = $2
		   AND delete_date IS NULL
		 `

	return r.exec(ctx, query, lookupHash, code)
}

func (r *PostgresRepository) UnsubscribeNewsletter(ctx context.Context, lookupHash, code string) (int64, error) {
	query :=
		`UPDATE accounts
		 SET newsletter_subscribed = false
		 WHERE email_lookup = $1 AND newsletter_unsubscribe_code = $2
		   AND delete_date IS NULL
		 `

	return r.exec(ctx, query, lookupHash, code)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id, username, emailCipher, passwordHash, reason string, banned bool) (int64, error) {
	query :=
		`UPDATE accounts
		 SET username = $1, email_cipher = $2, password_hash = $3,
		     email_confirm_code = NULL, password_reset_code = NULL,
		     delete_date = now(), delete_reason = $4, banned = $5
		 WHERE id = $6 AND delete_date IS NULL
		 `

	return r.exec(ctx, query, username, emailCipher, passwordHash, reason, banned, id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapDBError(err)
	}
	return affected, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var (
		pendingLookup sql.NullString
		emailCipher   sql.NullString
		confirmCode   sql.NullString
		resetCode     sql.NullString
		deleteDate    sql.NullTime
		deleteReason  sql.NullString
		realName      sql.NullString
		github        sql.NullString
		linkedin      sql.NullString
		quals         sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.Username, &a.EmailLookupHash, &pendingLookup, &emailCipher,
		&a.PasswordHash, &a.EmailConfirmed, &confirmCode, &resetCode,
		&a.DoNotEmailCode, &a.NewsletterUnsubscribeCode, &a.DoNotEmail, &a.Banned,
		&a.NewsletterSubscribed, &a.CreateDate, &deleteDate, &deleteReason,
		&realName, &github, &linkedin, &quals)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapDBError(err)
	}

	a.PendingEmailLookupHash = pendingLookup.String
	a.EmailCipher = emailCipher.String
	a.EmailConfirmCode = confirmCode.String
	a.PasswordResetCode = resetCode.String
	if deleteDate.Valid {
		t := deleteDate.Time
		a.DeleteDate = &t
	}
	a.DeleteReason = deleteReason.String
	a.Profile = models.Profile{
		RealName:       realName.String,
		GitHub:         github.String,
		LinkedIn:       linkedin.String,
		Qualifications: quals.String,
	}

	return a, nil
}

func deletedFilter(includeDeleted bool) string {
	if includeDeleted {
		return ""
	}
	return "AND delete_date IS NULL"
}

func wrapDBError(err error) error {
	if dbx.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("db error: %w", err)
}
