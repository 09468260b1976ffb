package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"expensio/backend/internal/dto"
	"expensio/backend/internal/model"
	"expensio/backend/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrInvalidRole     = errors.New("角色取值无效")
	ErrManagerNotFound = errors.New("指定的经理不存在或不属于本公司")
)

// UserService 用户管理业务接口（管理员专用）
type UserService interface {
	Create(ctx context.Context, companyID string, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	List(ctx context.Context, companyID string, page, pageSize int) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, companyID, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, companyID string, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if req.ManagerID != nil {
		if err := s.checkManager(ctx, companyID, *req.ManagerID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		CompanyID:    companyID,
		ManagerID:    req.ManagerID,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := s.toUserResponse(user)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, companyID string, page, pageSize int) ([]dto.UserResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := s.repo.User.ListByCompany(ctx, companyID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, s.toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

// Update 调整角色或直属经理；仅允许操作本公司用户
func (s *userService) Update(ctx context.Context, companyID, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if user.CompanyID != companyID {
		return nil, ErrUserNotFound
	}

	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return nil, ErrInvalidRole
		}
		user.Role = *req.Role
	}
	if req.ManagerID != nil {
		if err := s.checkManager(ctx, companyID, *req.ManagerID); err != nil {
			return nil, err
		}
		user.ManagerID = req.ManagerID
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := s.toUserResponse(user)
	return &resp, nil
}

// ── 内部辅助方法 ──

func (s *userService) checkManager(ctx context.Context, companyID, managerID string) error {
	manager, err := s.repo.User.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrManagerNotFound
		}
		s.logger.Error("查询经理失败", zap.String("manager_id", managerID), zap.Error(err))
		return err
	}
	if manager.CompanyID != companyID {
		return ErrManagerNotFound
	}
	return nil
}

func (s *userService) toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		ManagerID: user.ManagerID,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
