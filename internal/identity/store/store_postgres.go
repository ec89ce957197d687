package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"landregistry/internal/identity/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

// Postgres persists user records in PostgreSQL. The wallet address is the
// primary key, stored in its normalized lowercase form.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			wallet_address, role, name, email, phone,
			aadhaar_hash, pan_hash, kyc_verified, kyc_rejection_reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.Wallet.String(), string(user.Role),
		user.Profile.Name, user.Profile.Email, user.Profile.Phone,
		user.KYC.AadhaarHash, user.KYC.PANHash, user.KYC.Verified, user.KYC.RejectionReason,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByWallet(ctx context.Context, wallet id.WalletAddress) (*models.User, error) {
	query := `
		SELECT wallet_address, role, name, email, phone,
		       aadhaar_hash, pan_hash, kyc_verified, kyc_rejection_reason,
		       created_at, updated_at
		FROM users
		WHERE wallet_address = $1
	`
	var (
		user    models.User
		walletS string
		roleS   string
	)
	err := s.db.QueryRowContext(ctx, query, wallet.String()).Scan(
		&walletS, &roleS,
		&user.Profile.Name, &user.Profile.Email, &user.Profile.Phone,
		&user.KYC.AadhaarHash, &user.KYC.PANHash, &user.KYC.Verified, &user.KYC.RejectionReason,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.Wallet = id.WalletAddress(walletS)
	user.Role = id.Role(roleS)
	return &user, nil
}

func (s *Postgres) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			role = $2, name = $3, email = $4, phone = $5,
			aadhaar_hash = $6, pan_hash = $7, kyc_verified = $8, kyc_rejection_reason = $9,
			updated_at = $10
		WHERE wallet_address = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		user.Wallet.String(), string(user.Role),
		user.Profile.Name, user.Profile.Email, user.Profile.Phone,
		user.KYC.AadhaarHash, user.KYC.PANHash, user.KYC.Verified, user.KYC.RejectionReason,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
