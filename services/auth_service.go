package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TimmyIsANerd/chamswap/database"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/TimmyIsANerd/chamswap/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	SetupTokenTTL     = 24 * time.Hour
	MinPasswordLength = 8
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error
}

type AuthService struct {
	DB          *gorm.DB
	Tokens      *TokenService
	Mailer      Mailer
	FrontendURL string
	Timeout     time.Duration
	Now         func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *TokenService, mailer Mailer, frontendURL string, timeout time.Duration) *AuthService {
	return &AuthService{
		DB:          db,
		Tokens:      tokens,
		Mailer:      mailer,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		Timeout:     timeout,
		Now:         time.Now,
	}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, storeError("login", err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}
	if !user.IsActive {
		return "", nil, ErrForbidden
	}

	token, err := s.Tokens.Issue(&user)
	if err != nil {
		return "", nil, err
	}

	now := s.Now()
	user.LastLogin = &now
	if err := db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	return token, &user, nil
}

// SetPassword consumes a setup token. The token is cleared in the same update
// that stores the password, so it can be used once.
func (s *AuthService) SetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	if len(password) < MinPasswordLength {
		return validationError("password must be at least %d characters", MinPasswordLength)
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.Where("password_setup_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return storeError("set password", err)
	}
	setup := user.SetupToken()
	if setup == nil || !setup.Usable(s.Now()) {
		return ErrInvalidToken
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}

	res := db.Model(&models.User{}).
		Where("id = ? AND password_setup_token = ?", user.ID, token).
		Updates(map[string]any{
			"password":                  hashed,
			"password_setup_token":      nil,
			"password_setup_expires_at": nil,
			"email_verified":            true,
		})
	if res.Error != nil {
		return storeError("set password", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvalidToken
	}
	return nil
}

func (s *AuthService) requireSuperAdmin(db *gorm.DB, requesterID uuid.UUID) error {
	var requester models.User
	if err := db.First(&requester, "id = ?", requesterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return storeError("load requester", err)
	}
	if requester.Role != models.RoleSuperAdmin {
		return ErrForbidden
	}
	return nil
}

// CreateAdmin invites an admin by email. The account can log in once the
// invitee sets a password through the mailed link.
func (s *AuthService) CreateAdmin(ctx context.Context, requesterID uuid.UUID, email, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validationError("email is required")
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	if err := s.requireSuperAdmin(db, requesterID); err != nil {
		return nil, err
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, storeError("check admin email", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("admin %w", ErrAlreadyExists)
	}

	tempPassword, err := utils.RandomHex(8)
	if err != nil {
		return nil, err
	}
	hashed, err := hashPassword(tempPassword)
	if err != nil {
		return nil, err
	}
	tokenValue, err := utils.RandomHex(32)
	if err != nil {
		return nil, err
	}
	setup := models.PasswordSetupToken{Value: tokenValue, ExpiresAt: s.Now().Add(SetupTokenTTL)}

	admin := models.User{
		Email:    &email,
		Name:     strings.TrimSpace(name),
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	admin.IssueSetupToken(setup)
	if err := db.Create(&admin).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("admin %w", ErrAlreadyExists)
		}
		return nil, storeError("create admin", err)
	}

	s.sendSetupEmail(ctx, &admin, setup)
	return &admin, nil
}

func (s *AuthService) sendSetupEmail(ctx context.Context, admin *models.User, setup models.PasswordSetupToken) {
	if s.Mailer == nil {
		log.WithField("user_id", admin.ID).Warn("Mailer not configured, skipping password setup email")
		return
	}
	link := fmt.Sprintf("%s/set-password?token=%s", s.FrontendURL, setup.Value)
	body := fmt.Sprintf(
		"<p>You have been added as an admin.</p><p>Please click the following link to set your password:</p><p><a href='%s'>%s</a></p><p>This link will expire in 24 hours.</p>",
		link, link,
	)
	if err := s.Mailer.Send(ctx, admin.Name, *admin.Email, "Admin Account Creation - Set Your Password", body); err != nil {
		log.WithError(err).WithField("user_id", admin.ID).Error("Failed to send password setup email")
	}
}

func (s *AuthService) RemoveAdmin(ctx context.Context, requesterID, adminID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	if err := s.requireSuperAdmin(db, requesterID); err != nil {
		return err
	}

	res := db.Where("id = ? AND role = ?", adminID, models.RoleAdmin).Delete(&models.User{})
	if res.Error != nil {
		return storeError("remove admin", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("admin %w", ErrNotFound)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, storeError("load profile", err)
	}
	return &user, nil
}

// ListUsers returns admins and super admins for kind "admin", traders otherwise.
func (s *AuthService) ListUsers(ctx context.Context, kind string) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	q := s.DB.WithContext(ctx).Order("created_at desc")
	if kind == "admin" {
		q = q.Where("role IN ?", []string{models.RoleAdmin, models.RoleSuperAdmin})
	} else {
		q = q.Where("role = ?", models.RoleUser)
	}

	users := []models.User{}
	if err := q.Find(&users).Error; err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}

// SeedSuperAdmin creates the first super admin when none exists yet.
func (s *AuthService) SeedSuperAdmin(ctx context.Context, email, password, name string) error {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return storeError("check super admin", err)
	}
	if count > 0 {
		log.Info("Super admin already exists.")
		return nil
	}
	if len(password) < MinPasswordLength {
		log.Warn("⚠️ SUPER_ADMIN_PASSWORD not set or too short, skipping super admin seed")
		return nil
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	email = normalizeEmail(email)
	admin := models.User{
		Email:         &email,
		Name:          name,
		Password:      hashed,
		Role:          models.RoleSuperAdmin,
		EmailVerified: true,
		IsActive:      true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return storeError("seed super admin", err)
	}
	log.Info("✅ Super admin account created")
	return nil
}

// PurgeExpiredSetupTokens clears setup tokens whose expiry has passed.
func (s *AuthService) PurgeExpiredSetupTokens(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("password_setup_token IS NOT NULL AND password_setup_expires_at < ?", s.Now()).
		Updates(map[string]any{
			"password_setup_token":      nil,
			"password_setup_expires_at": nil,
		})
	if res.Error != nil {
		return 0, storeError("purge setup tokens", res.Error)
	}
	return res.RowsAffected, nil
}
