package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
)

type RegisterInput struct {
	Username    string
	Password    string
	FullName    string
	Designation string
	Location    string
	DateOfBirth *time.Time
}

// EmployeeUpdate is a partial profile change; Password, when set, is re-hashed.
type EmployeeUpdate struct {
	FullName    *string
	Designation *string
	Location    *string
	DateOfBirth *time.Time
	Password    *string
}

func (s *Service) RegisterEmployee(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, models.Errorf(models.ErrInvalidInput, "username and password are required")
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, models.UserCreateInput{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         models.RoleEmployee,
		FullName:     in.FullName,
		Designation:  in.Designation,
		Location:     in.Location,
		DateOfBirth:  in.DateOfBirth,
	})
}

func (s *Service) ListEmployees(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsersByRole(ctx, models.RoleEmployee)
}

func (s *Service) UpdateEmployee(ctx context.Context, id uint64, upd EmployeeUpdate) (*models.User, error) {
	if _, err := s.employee(ctx, id); err != nil {
		return nil, err
	}
	change := models.UserUpdate{
		FullName:    upd.FullName,
		Designation: upd.Designation,
		Location:    upd.Location,
		DateOfBirth: upd.DateOfBirth,
	}
	if upd.Password != nil && *upd.Password != "" {
		hash, err := s.hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		change.PasswordHash = &hash
	}
	return s.repo.UpdateUser(ctx, id, change)
}

// DeleteEmployee removes the account; its sessions go with it.
func (s *Service) DeleteEmployee(ctx context.Context, id uint64) error {
	if _, err := s.employee(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}

func (s *Service) OnlineEmployees(ctx context.Context) ([]*models.OnlineEmployee, error) {
	return s.repo.ListOnlineEmployees(ctx)
}

func (s *Service) OfflineEmployees(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListOfflineEmployees(ctx)
}

// employee loads a user and hides admins behind NotFound.
func (s *Service) employee(ctx context.Context, id uint64) (*models.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleEmployee {
		return nil, models.Errorf(models.ErrNotFound, "User not found")
	}
	return u, nil
}
