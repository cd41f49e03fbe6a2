package service

import (
	"medqcm_backend/internal/config"
	"medqcm_backend/internal/model"
	"medqcm_backend/internal/repository"
	"medqcm_backend/internal/util"
	"medqcm_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Legacy generic activation codes handed out before per-user subscription
// codes existed; each maps to the level it unlocks.
var activationCodes = map[string]model.UserLevel{
	"Code4A":  model.Level4A,
	"Code5A":  model.Level5A,
	"Code6A":  model.Level6A,
	"CodeRES": model.LevelRES,
}

type AuthService struct {
	Users *repository.UserRepository
	Codes *repository.CodeRepository
	Cfg   *config.Store
}

func NewAuthService(users *repository.UserRepository, codes *repository.CodeRepository, cfg *config.Store) *AuthService {
	return &AuthService{Users: users, Codes: codes, Cfg: cfg}
}

type SignupReq struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

type AuthResp struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type UpdateProfileReq struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type ChangePasswordReq struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// Signup creates an inactive account with no level; the subscription code
// presented at login (or a legacy activation code) unlocks it.
func (s *AuthService) Signup(req SignupReq) (*AuthResp, error) {
	taken, err := s.Users.ExistsByEmailOrUsername(req.Email, req.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
	}
	if err := s.Users.Create(user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login verifies the password and the caller's personal subscription
// code: the code must exist, be bound to this account, and match the
// account's level.
func (s *AuthService) Login(req LoginReq) (*AuthResp, error) {
	user, err := s.Users.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, util.ErrInvalidCredentials
	}

	code, err := s.Codes.FindByCode(strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, util.ErrInvalidCode
	}
	if code.UsedBy == nil || *code.UsedBy != user.ID {
		return nil, util.ErrCodeNotBound
	}
	if user.Level != "" && code.Level != "" && user.Level != code.Level {
		return nil, util.ErrCodeLevelMismatch
	}

	if err := s.Users.UpdateLastLogin(user.ID); err != nil {
		// Non-blocking: a failed timestamp update must not fail the login.
		logger.Log.Warn("failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return s.issueToken(user)
}

// Activate applies a legacy generic code, setting the account's level and
// activating it.
func (s *AuthService) Activate(userID uint, code string) (*model.User, error) {
	level, ok := activationCodes[strings.TrimSpace(code)]
	if !ok {
		return nil, util.ErrInvalidCode
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	user.Level = level
	user.IsActive = true
	if err := s.Users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetProfile(userID uint) (*model.User, error) {
	return s.Users.FindByID(userID)
}

func (s *AuthService) UpdateProfile(userID uint, req UpdateProfileReq) (*model.User, error) {
	taken, err := s.Users.ExistsByEmailOrUsername(req.Email, req.Username, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateUser
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	user.Username = req.Username
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if err := s.Users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(userID uint, req ChangePasswordReq) error {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return util.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	return s.Users.Update(user)
}

func (s *AuthService) issueToken(user *model.User) (*AuthResp, error) {
	jwtCfg := s.Cfg.Load().JWT
	token, err := util.GenerateJWT(user, jwtCfg.Secret, jwtCfg.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResp{Token: token, User: user}, nil
}
