package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines the operations on portal user accounts
type UserServiceInterface interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUserWithPassword(ctx context.Context, username, password string, userType models.UserType, active bool) (*models.User, error)
	UpdateUser(ctx context.Context, id int, username, password string, userType models.UserType, active bool) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	GetDB() *sql.DB
}

// UserService manages the roster of executive/manager/operator accounts
type UserService struct {
	db     *sql.DB
	config *config.Config
	logger *observability.Logger
}

// NewUserServiceWithLogger creates a new UserService instance
func NewUserServiceWithLogger(db *sql.DB, cfg *config.Config, logger *observability.Logger) *UserService {
	if db == nil {
		panic("NewUserServiceWithLogger: db is nil")
	}
	if logger == nil {
		panic("NewUserServiceWithLogger: logger is nil")
	}
	return &UserService{db: db, config: cfg, logger: logger}
}

// GetDB exposes the underlying database handle (used by health checks)
func (s *UserService) GetDB() *sql.DB {
	return s.db
}

const userSelectFields = `id, username, password_hash, user_type, is_active, created_at, updated_at`

// isDuplicateKeyError checks for a PostgreSQL unique constraint violation
func isDuplicateKeyError(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// validateUserFields checks the account fields shared by create and update
func validateUserFields(username, password string, userType models.UserType, passwordRequired bool) error {
	if username == "" || userType == "" || (passwordRequired && password == "") {
		return contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn,
			"Username, password and type are required", "")
	}
	if !contextutils.IsValidUsername(username) {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidFormat, contextutils.SeverityWarn,
			"Username must be 3-50 characters (letters, numbers, underscores)", "")
	}
	if password != "" && !contextutils.IsValidPassword(password) {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidFormat, contextutils.SeverityWarn,
			"Password must be at least 6 characters", "")
	}
	if !userType.IsValid() {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"Type must be one of admin, executive, manager, operator", "")
	}
	return nil
}

// GetAllUsers returns all accounts, newest first
func (s *UserService) GetAllUsers(ctx context.Context) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_all_users")
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userSelectFields + ` FROM users ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query users")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if scanErr := scanUser(rows, &user); scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan user row")
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate user rows")
	}
	return users, nil
}

// GetUserByID returns the account with the given id, or ErrRecordNotFound
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id",
		observability.AttributeUserID(id),
	)
	defer observability.FinishSpan(span, &err)

	var user models.User
	query := `SELECT ` + userSelectFields + ` FROM users WHERE id = $1`
	err = scanUser(s.db.QueryRowContext(ctx, query, id), &user)
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapError(contextutils.ErrRecordNotFound, "User not found")
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get user")
	}
	return &user, nil
}

// GetUserByUsername returns the account with the given username.
// Returns (nil, nil) when the username does not exist.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_username",
		observability.AttributeUsername(username),
	)
	defer observability.FinishSpan(span, &err)

	var user models.User
	query := `SELECT ` + userSelectFields + ` FROM users WHERE username = $1`
	err = scanUser(s.db.QueryRowContext(ctx, query, username), &user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get user by username")
	}
	return &user, nil
}

// CreateUserWithPassword creates a new account with a bcrypt-hashed password.
// Username uniqueness is enforced by the database constraint, so concurrent
// creates cannot race past the check.
func (s *UserService) CreateUserWithPassword(ctx context.Context, username, password string, userType models.UserType, active bool) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user_with_password",
		observability.AttributeUsername(username),
		observability.AttributeUserType(string(userType)),
	)
	defer observability.FinishSpan(span, &err)

	if err = validateUserFields(username, password, userType, true); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to hash password")
	}

	var user models.User
	now := time.Now()
	query := `INSERT INTO users (username, password_hash, user_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userSelectFields
	err = scanUser(s.db.QueryRowContext(ctx, query, username, string(hashedPassword), userType, active, now, now), &user)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.WrapError(contextutils.ErrRecordExists, "Username already exists")
		}
		return nil, contextutils.WrapError(err, "failed to insert user")
	}

	s.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id":   user.ID,
		"username":  user.Username,
		"user_type": string(user.UserType),
	})
	return &user, nil
}

// UpdateUser updates an existing account. The password is re-hashed only when
// a new one is supplied; an empty password keeps the stored hash.
func (s *UserService) UpdateUser(ctx context.Context, id int, username, password string, userType models.UserType, active bool) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user",
		observability.AttributeUserID(id),
		observability.AttributeUsername(username),
	)
	defer observability.FinishSpan(span, &err)

	if err = validateUserFields(username, password, userType, false); err != nil {
		return nil, err
	}

	setClauses := []string{"username = $1", "user_type = $2", "is_active = $3", "updated_at = $4"}
	args := []interface{}{username, userType, active, time.Now()}
	argIndex := 5

	if password != "" {
		hashedPassword, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, contextutils.WrapError(hashErr, "failed to hash password")
		}
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", argIndex))
		args = append(args, string(hashedPassword))
		argIndex++
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIndex, userSelectFields)

	var user models.User
	err = scanUser(s.db.QueryRowContext(ctx, query, args...), &user)
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapError(contextutils.ErrRecordNotFound, "User not found")
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.WrapError(contextutils.ErrRecordExists, "Username already exists")
		}
		return nil, contextutils.WrapError(err, "failed to update user")
	}

	s.logger.Info(ctx, "User updated", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return &user, nil
}

// UpdateUserPassword re-hashes and stores a new password for the account
func (s *UserService) UpdateUserPassword(ctx context.Context, id int, password string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user_password",
		observability.AttributeUserID(id),
	)
	defer observability.FinishSpan(span, &err)

	if !contextutils.IsValidPassword(password) {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidFormat, contextutils.SeverityWarn,
			"Password must be at least 6 characters", "")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return contextutils.WrapError(err, "failed to hash password")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		string(hashedPassword), time.Now(), id)
	if err != nil {
		return contextutils.WrapError(err, "failed to update password")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check update result")
	}
	if rowsAffected == 0 {
		return contextutils.WrapError(contextutils.ErrRecordNotFound, "User not found")
	}

	s.logger.Info(ctx, "User password updated", map[string]interface{}{"user_id": id})
	return nil
}

// DeleteUser removes an account by id
func (s *UserService) DeleteUser(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "delete_user",
		observability.AttributeUserID(id),
	)
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete user")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check delete result")
	}
	if rowsAffected == 0 {
		return contextutils.WrapError(contextutils.ErrRecordNotFound, "User not found")
	}

	s.logger.Info(ctx, "User deleted", map[string]interface{}{"user_id": id})
	return nil
}

// AuthenticateUser verifies a username/password pair against the stored bcrypt
// hash. The comparison is constant time. Unknown usernames and wrong passwords
// both return ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "authenticate_user",
		observability.AttributeUsername(username),
	)
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.PasswordHash.Valid {
		return nil, contextutils.ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		return nil, contextutils.ErrInvalidCredentials
	}
	return user, nil
}

// scanUser scans a user row into the provided struct
func scanUser(row rowScanner, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.UserType,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
}
