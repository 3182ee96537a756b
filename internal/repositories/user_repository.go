package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"capsulelink/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int64) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	FindByIdentifier(identifier string) (*models.User, error)

	// registration / verification
	UpdateRegistration(id int64, username, email, passwordHash string) error
	SetVerificationCode(id int64, code string, expiry time.Time) error
	MarkVerified(id int64) error

	// password reset
	UpdatePassword(id int64, passwordHash string) error

	// accept-toggle: desired==nil flips, otherwise sets; returns the new value
	SetAcceptingMessage(id int64, desired *bool) (bool, error)

	// refresh helpers
	UpdateRefresh(userID int64, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int64) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, username, email, COALESCE(password_hash,''), is_verified, is_accepting_message,
	verification_code, code_expiry,
	refresh_token, refresh_expires_at,
	created_at
`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		code sql.NullString
		exp  sql.NullTime
		rt   sql.NullString
		rte  sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsVerified, &u.IsAcceptingMessage,
		&code, &exp,
		&rt, &rte,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if code.Valid {
		s := code.String
		u.VerificationCode = &s
	}
	if exp.Valid {
		t := exp.Time
		u.CodeExpiry = &t
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			username, email, password_hash, is_verified, is_accepting_message,
			verification_code, code_expiry
		)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7)
		RETURNING id, created_at
	`
	err := r.DB.QueryRow(q,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.IsAcceptingMessage,
		user.VerificationCode,
		user.CodeExpiry,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *userRepository) GetByID(id int64) (*models.User, error) {
	q := `SELECT` + userColumns + `FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	q := `SELECT` + userColumns + `FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRow(q, strings.ToLower(email)))
}

func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	q := `SELECT` + userColumns + `FROM users WHERE username = $1`
	return scanUser(r.DB.QueryRow(q, strings.ToLower(username)))
}

// FindByIdentifier matches either the username or the email, case-normalized.
func (r *userRepository) FindByIdentifier(identifier string) (*models.User, error) {
	q := `SELECT` + userColumns + `FROM users WHERE username = $1 OR email = $1`
	return scanUser(r.DB.QueryRow(q, strings.ToLower(identifier)))
}

func (r *userRepository) UpdateRegistration(id int64, username, email, passwordHash string) error {
	const q = `
		UPDATE users
		SET username=$1, email=$2, password_hash=$3
		WHERE id=$4
	`
	_, err := r.DB.Exec(q, username, email, passwordHash, id)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// SetVerificationCode overwrites any outstanding code (single-active-code policy).
func (r *userRepository) SetVerificationCode(id int64, code string, expiry time.Time) error {
	const q = `
		UPDATE users
		SET verification_code=$1, code_expiry=$2
		WHERE id=$3
	`
	res, err := r.DB.Exec(q, code, expiry, id)
	if err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	return requireRow(res)
}

// MarkVerified flips is_verified and clears the code so it is single-use.
func (r *userRepository) MarkVerified(id int64) error {
	const q = `
		UPDATE users
		SET is_verified=TRUE, verification_code=NULL, code_expiry=NULL
		WHERE id=$1
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return requireRow(res)
}

func (r *userRepository) UpdatePassword(id int64, passwordHash string) error {
	res, err := r.DB.Exec(`UPDATE users SET password_hash=$1 WHERE id=$2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

// SetAcceptingMessage updates the flag in a single statement so concurrent
// toggles never lose updates.
func (r *userRepository) SetAcceptingMessage(id int64, desired *bool) (bool, error) {
	const q = `
		UPDATE users
		SET is_accepting_message = COALESCE($1, NOT is_accepting_message)
		WHERE id = $2
		RETURNING is_accepting_message
	`
	var accepting bool
	if err := r.DB.QueryRow(q, desired, id).Scan(&accepting); err != nil {
		if err == sql.ErrNoRows {
			return false, sql.ErrNoRows
		}
		return false, fmt.Errorf("toggle accepting: %w", err)
	}
	return accepting, nil
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(userID int64, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE id=$3
	`
	_, err := r.DB.Exec(q, token, expiresAt, userID)
	return err
}

func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE refresh_token=$3
		RETURNING` + userColumns
	return scanUser(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
}

func (r *userRepository) ClearRefresh(userID int64) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL
		WHERE id=$1
	`, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	q := `SELECT` + userColumns + `FROM users WHERE refresh_token = $1`
	return scanUser(r.DB.QueryRow(q, token))
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
