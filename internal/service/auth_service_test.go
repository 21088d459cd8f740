package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
)

func TestBootstrapSeedsSuperAdminOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.Bootstrap(ctx))
	require.NoError(t, f.auth.Bootstrap(ctx))

	accounts, err := f.accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, models.SuperAdminID, accounts[0].ID)
	assert.Equal(t, models.RoleAdmin, accounts[0].Role)
	assert.Equal(t, "superadmin@college.edu", accounts[0].Email)
	assert.Equal(t, "Super Administrator", accounts[0].Name)
	assert.Equal(t, models.DepartmentInfrastructure, accounts[0].Department)
}

func TestBootstrapSkipsPopulatedAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.accounts.ReplaceAll(ctx, []models.Account{{ID: "x", Email: "x@college.edu", Role: models.RoleStudent}}))

	require.NoError(t, f.auth.Bootstrap(ctx))

	accounts, err := f.accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "x", accounts[0].ID)
}

func TestBootstrapStoreFailure(t *testing.T) {
	f := newFixtureWithStore(t, failingStore{err: errStoreDown})
	err := f.auth.Bootstrap(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.auth.Bootstrap(context.Background()))

	_, err := f.auth.Login(context.Background(), models.LoginRequest{Email: "ghost@college.edu"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAccountNotFound)
	assert.Equal(t, "User not found. Please register first.", appErrors.FromError(err).Message)

	current, err := f.auth.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLoginSuperAdminSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.auth.Bootstrap(ctx))

	session, err := f.auth.Login(ctx, models.LoginRequest{Email: " superadmin@college.edu "})
	require.NoError(t, err)
	assert.Equal(t, models.SuperAdminID, session.Account.ID)
	assert.Equal(t, []string{"view_all", "triage", "create_admin"}, session.Capabilities)
	assert.Equal(t, int64(3600), session.ExpiresIn)

	current, err := f.auth.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, models.SuperAdminID, current.ID)

	claims, err := f.auth.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.Account, claims.Account())
	assert.Equal(t, "complaint-desk-test", claims.Issuer)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)
	other.auth.config.TokenSecret = "another-secret"
	require.NoError(t, other.auth.Bootstrap(context.Background()))
	session, err := other.auth.Login(context.Background(), models.LoginRequest{Email: "superadmin@college.edu"})
	require.NoError(t, err)

	_, err = f.auth.ValidateToken(session.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = f.auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestRegisterStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.auth.Register(ctx, models.RegisterRequest{Name: " Asha Rao ", Email: "asha@college.edu", StudentID: "S-101"})
	require.NoError(t, err)

	assert.NotEmpty(t, session.Account.ID)
	assert.Equal(t, "Asha Rao", session.Account.Name)
	assert.Equal(t, models.RoleStudent, session.Account.Role)
	assert.Equal(t, "S-101", session.Account.StudentID)
	assert.Equal(t, []string{"submit", "view_own"}, session.Capabilities)

	current, err := f.auth.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Account, *current)

	accounts, err := f.accounts.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Account{session.Account}, accounts)
}

func TestRegisterStudentRequiresStudentID(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), models.RegisterRequest{Name: "Asha", Email: "asha@college.edu"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRegisterRejectsUnknownDepartment(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), models.RegisterRequest{Name: "Asha", Email: "asha@college.edu", StudentID: "S-1", Department: "Astrology"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRegisterDuplicateEmailLoginResolvesFirst(t *testing.T) {
	f := newFixture(t)
	first := f.student(t, "First", "dup@college.edu", "S-1")
	f.student(t, "Second", "dup@college.edu", "S-2")

	session, err := f.auth.Login(context.Background(), models.LoginRequest{Email: "dup@college.edu"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, session.Account.ID)
}

func TestRegisterAdminAccessCode(t *testing.T) {
	f := newFixture(t)
	req := models.RegisterRequest{Name: "Warden Iyer", Email: "iyer@college.edu", Role: models.RoleAdmin, Department: models.DepartmentHostel, StudentID: "ignored"}

	req.AdminCode = "guess"
	_, err := f.auth.Register(context.Background(), req)
	require.ErrorIs(t, err, appErrors.ErrInvalidAccessCode)
	assert.Equal(t, "Invalid admin access code. Please contact system administrator.", appErrors.FromError(err).Message)

	req.AdminCode = "SECE_ADMIN_2025"
	session, err := f.auth.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.Account.Role)
	assert.Empty(t, session.Account.StudentID)
	assert.Equal(t, []string{"view_all", "triage"}, session.Capabilities)
}

func TestRegisterAdminDisabledWithoutCode(t *testing.T) {
	f := newFixture(t)
	f.auth.config.AdminAccessCodeHash = ""

	_, err := f.auth.Register(context.Background(), models.RegisterRequest{Name: "X", Email: "x@college.edu", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.auth.Register(context.Background(), models.RegisterRequest{Name: "X", Email: "x@college.edu", Role: models.RoleAdmin, AdminCode: "SECE_ADMIN_2025"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestRegisterAdminComparesAgainstHash(t *testing.T) {
	f := newFixture(t)
	hash := f.auth.config.AdminAccessCodeHash
	require.NotEqual(t, "SECE_ADMIN_2025", hash)

	_, err := f.auth.Register(context.Background(), models.RegisterRequest{Name: "Dean", Email: "dean@college.edu", Role: models.RoleAdmin, AdminCode: hash})
	assert.ErrorIs(t, err, appErrors.ErrInvalidAccessCode)

	_, err = f.auth.Register(context.Background(), models.RegisterRequest{Name: "Dean", Email: "dean@college.edu", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrInvalidAccessCode)
}

func TestResolveAccessCodeHash(t *testing.T) {
	configured := testAccessCodeHash(t, "from-env")

	hash, err := ResolveAccessCodeHash(configured, "ignored")
	require.NoError(t, err)
	assert.Equal(t, configured, hash)

	_, err = ResolveAccessCodeHash("not-a-bcrypt-hash", "")
	assert.Error(t, err)

	hash, err = ResolveAccessCodeHash("", "SECE_ADMIN_2025")
	require.NoError(t, err)
	assert.NotEqual(t, "SECE_ADMIN_2025", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("SECE_ADMIN_2025")))

	hash, err = ResolveAccessCodeHash("", "")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	super := f.superAdmin(t)

	admin, err := f.auth.CreateAdmin(ctx, super, models.CreateAdminRequest{Name: "Chef Rao", Email: "chef@college.edu", Department: models.DepartmentFoodCanteen})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, models.DepartmentFoodCanteen, admin.Department)

	session, err := f.auth.Login(ctx, models.LoginRequest{Email: "chef@college.edu"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, session.Account.ID)
	assert.NotContains(t, session.Capabilities, "create_admin")

	_, err = f.auth.CreateAdmin(ctx, session.Account, models.CreateAdminRequest{Name: "Y", Email: "y@college.edu", Department: models.DepartmentAcademic})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.auth.CreateAdmin(ctx, super, models.CreateAdminRequest{Name: "Z", Email: "z@college.edu", Department: "Parking"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.student(t, "Asha", "asha@college.edu", "S-1")

	require.NoError(t, f.auth.Logout(ctx))
	current, err := f.auth.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}
