package services

import (
	"context"
	"database/sql"
	"time"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuthServiceInterface defines authentication against the dedicated
// admin credential store. Admin accounts are kept separate from the portal
// user roster so a compromised user table cannot grant admin access.
type AdminAuthServiceInterface interface {
	AuthenticateAdmin(ctx context.Context, username, password string) (*models.AdminCredential, error)
	EnsureAdminCredentials(ctx context.Context, username, password string) error
}

// AdminAuthService verifies admin logins against the admin_credentials table
type AdminAuthService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewAdminAuthServiceWithLogger creates a new AdminAuthService instance
func NewAdminAuthServiceWithLogger(db *sql.DB, logger *observability.Logger) *AdminAuthService {
	if db == nil {
		panic("NewAdminAuthServiceWithLogger: db is nil")
	}
	if logger == nil {
		panic("NewAdminAuthServiceWithLogger: logger is nil")
	}
	return &AdminAuthService{db: db, logger: logger}
}

// dummyBcryptHash is compared against when the username does not exist so
// that lookups for unknown and known usernames take similar time.
const dummyBcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthenticateAdmin verifies an admin username/password pair. Unknown
// usernames and wrong passwords both return ErrInvalidCredentials.
func (s *AdminAuthService) AuthenticateAdmin(ctx context.Context, username, password string) (result0 *models.AdminCredential, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "authenticate_admin",
		observability.AttributeUsername(username),
	)
	defer observability.FinishSpan(span, &err)

	var cred models.AdminCredential
	query := `SELECT id, username, password_hash, created_at FROM admin_credentials WHERE username = $1`
	err = s.db.QueryRowContext(ctx, query, username).Scan(&cred.ID, &cred.Username, &cred.PasswordHash, &cred.CreatedAt)
	if err == sql.ErrNoRows {
		// Burn a comparison anyway to keep timing uniform
		_ = bcrypt.CompareHashAndPassword([]byte(dummyBcryptHash), []byte(password))
		return nil, contextutils.ErrInvalidCredentials
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query admin credentials")
	}

	if err = bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, contextutils.ErrInvalidCredentials
	}
	return &cred, nil
}

// EnsureAdminCredentials seeds the admin credential store at startup. The
// password is hashed before storage and the insert relies on the unique
// constraint, so concurrent instances cannot create duplicate rows.
func (s *AdminAuthService) EnsureAdminCredentials(ctx context.Context, username, password string) (err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "ensure_admin_credentials",
		observability.AttributeUsername(username),
	)
	defer observability.FinishSpan(span, &err)

	if username == "" || password == "" {
		s.logger.Warn(ctx, "Admin credentials not configured, skipping bootstrap", nil)
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return contextutils.WrapError(err, "failed to hash admin password")
	}

	query := `INSERT INTO admin_credentials (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING`
	result, err := s.db.ExecContext(ctx, query, username, string(hashedPassword), time.Now())
	if err != nil {
		return contextutils.WrapError(err, "failed to seed admin credentials")
	}

	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows > 0 {
		s.logger.Info(ctx, "Admin credentials seeded", map[string]interface{}{"username": username})
	}
	return nil
}
