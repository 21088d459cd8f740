package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/complaint-desk/internal/access"
	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/repository"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
)

type accountRepository interface {
	List(ctx context.Context) ([]models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	ReplaceAll(ctx context.Context, accounts []models.Account) error
}

type sessionRepository interface {
	Current(ctx context.Context) (*models.Account, error)
	Set(ctx context.Context, account models.Account) error
	Clear(ctx context.Context) error
}

// AuthConfig defines configuration for session flows.
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
	Issuer      string
	// SuperAdmin is seeded when the accounts collection is empty.
	SuperAdmin models.Account
	// AdminAccessCodeHash is the bcrypt hash of the code gating admin
	// self-registration. Empty disables it.
	AdminAccessCodeHash string
}

// AuthService maps identities to sessions. Nothing here authenticates a
// caller: login only checks that the email is registered.
type AuthService struct {
	accounts  accountRepository
	sessions  sessionRepository
	writer    storeWriter
	policy    access.Policy
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
	newID     func() string
}

// AuthServiceParams groups constructor dependencies.
type AuthServiceParams struct {
	Accounts  accountRepository
	Sessions  sessionRepository
	Writer    storeWriter
	Policy    access.Policy
	Validator *validator.Validate
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(params AuthServiceParams) *AuthService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Policy == nil {
		params.Policy = access.NewRolePolicy(params.Config.SuperAdmin.ID)
	}
	if params.Config.TokenExpiry <= 0 {
		params.Config.TokenExpiry = 24 * time.Hour
	}
	if params.Config.SuperAdmin.ID == "" {
		params.Config.SuperAdmin = DefaultSuperAdmin()
	}
	params.Config.SuperAdmin.Role = models.RoleAdmin
	return &AuthService{
		accounts:  params.Accounts,
		sessions:  params.Sessions,
		writer:    params.Writer,
		policy:    params.Policy,
		validator: params.Validator,
		metrics:   params.Metrics,
		logger:    params.Logger,
		config:    params.Config,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ResolveAccessCodeHash returns the bcrypt hash gating admin self-registration.
// A configured hash is checked and returned as is; otherwise a non-empty
// plaintext code is hashed. Both empty yields "", which disables the flow.
func ResolveAccessCodeHash(hash, plaintext string) (string, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return "", fmt.Errorf("admin access code hash: %w", err)
		}
		return hash, nil
	}
	if plaintext == "" {
		return "", nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin access code: %w", err)
	}
	return string(hashed), nil
}

// DefaultSuperAdmin is the account seeded on first run.
func DefaultSuperAdmin() models.Account {
	return models.Account{
		ID:         models.SuperAdminID,
		Name:       "Super Administrator",
		Email:      "superadmin@college.edu",
		Role:       models.RoleAdmin,
		Department: models.DepartmentInfrastructure,
	}
}

// Bootstrap seeds the super-admin when no account exists yet.
func (s *AuthService) Bootstrap(ctx context.Context) error {
	seeded := false
	err := runMutation(ctx, s.writer, s.metrics, "bootstrap_accounts", func(ctx context.Context) error {
		accounts, err := s.accounts.List(ctx)
		if err != nil {
			return err
		}
		if len(accounts) > 0 {
			return nil
		}
		seeded = true
		return s.accounts.ReplaceAll(ctx, []models.Account{s.config.SuperAdmin})
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bootstrap accounts")
	}
	if seeded {
		s.logger.Info("super-admin seeded", zap.String("account_id", s.config.SuperAdmin.ID), zap.String("email", s.config.SuperAdmin.Email))
	}
	return nil
}

// Login opens a session for the first account registered with the email.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrAccountNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}

	return s.establish(ctx, *account, "login")
}

// Register appends a new account and signs it in. Duplicate emails are
// accepted; Login always resolves to the earliest registration.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if req.Department != "" && !req.Department.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown department %q", req.Department))
	}

	account := models.Account{
		ID:         s.newID(),
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Department: req.Department,
	}
	switch req.Role {
	case models.RoleAdmin:
		if s.config.AdminAccessCodeHash == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "admin self-registration is disabled")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminAccessCodeHash), []byte(req.AdminCode)); err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidAccessCode, "")
		}
	default:
		account.StudentID = strings.TrimSpace(req.StudentID)
	}

	if err := s.appendAccount(ctx, "register_account", account); err != nil {
		return nil, err
	}
	s.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))

	return s.establish(ctx, account, "register")
}

// CreateAdmin provisions a staff account bound to a department. Only the
// super-admin may call it.
func (s *AuthService) CreateAdmin(ctx context.Context, actor models.Account, req models.CreateAdminRequest) (*models.Account, error) {
	if !s.policy.Allows(actor, access.CapCreateAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the super-admin can create admins")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	if !req.Department.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown department %q", req.Department))
	}

	account := models.Account{
		ID:         s.newID(),
		Name:       req.Name,
		Email:      req.Email,
		Role:       models.RoleAdmin,
		Department: req.Department,
	}
	if err := s.appendAccount(ctx, "create_admin", account); err != nil {
		return nil, err
	}
	s.logger.Info("admin created", zap.String("account_id", account.ID), zap.String("created_by", actor.ID), zap.String("department", string(account.Department)))
	return &account, nil
}

// Logout clears the current-session pointer.
func (s *AuthService) Logout(ctx context.Context) error {
	err := runMutation(ctx, s.writer, s.metrics, "clear_session", s.sessions.Clear)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}
	return nil
}

// Current returns the account behind the session pointer, or nil.
func (s *AuthService) Current(ctx context.Context) (*models.Account, error) {
	account, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return account, nil
}

// Capabilities lists what account may do.
func (s *AuthService) Capabilities(account models.Account) []string {
	return access.Strings(s.policy.Capabilities(account))
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) appendAccount(ctx context.Context, mutation string, account models.Account) error {
	err := runMutation(ctx, s.writer, s.metrics, mutation, func(ctx context.Context) error {
		accounts, err := s.accounts.List(ctx)
		if err != nil {
			return err
		}
		return s.accounts.ReplaceAll(ctx, append(accounts, account))
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store account")
	}
	return nil
}

// establish records the session pointer and issues a token. A pointer write
// failure is logged; the token alone identifies the caller.
func (s *AuthService) establish(ctx context.Context, account models.Account, source string) (*models.Session, error) {
	err := runMutation(ctx, s.writer, s.metrics, "set_session", func(ctx context.Context) error {
		return s.sessions.Set(ctx, account)
	})
	if err != nil {
		s.logger.Warn("failed to store session pointer", zap.String("account_id", account.ID), zap.Error(err))
	}

	issuedAt := s.now().UTC()
	token, err := s.generateToken(account, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}
	s.metrics.RecordSession(string(account.Role), source)

	return &models.Session{
		AccessToken:  token,
		ExpiresIn:    int64(s.config.TokenExpiry.Seconds()),
		Account:      account,
		Capabilities: s.Capabilities(account),
		IssuedAt:     issuedAt,
	}, nil
}

func (s *AuthService) generateToken(account models.Account, issuedAt time.Time) (string, error) {
	claims := &models.SessionClaims{
		AccountID:  account.ID,
		Role:       account.Role,
		Email:      account.Email,
		Name:       account.Name,
		StudentID:  account.StudentID,
		Department: account.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.TokenSecret))
}
