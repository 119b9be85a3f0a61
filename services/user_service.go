package services

import (
	"sort"

	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/repositories"

	"github.com/samber/lo"
)

type IUserService interface {
	ListOthers(callerID string) ([]domain.PublicUser, error)
}

type UserService struct {
	users repositories.IUserRepository
}

func NewUserService(users repositories.IUserRepository) *UserService {
	return &UserService{users: users}
}

// ListOthers returns every account except the caller's own, sorted by
// username, the shape the contact list expects.
func (s *UserService) ListOthers(callerID string) ([]domain.PublicUser, error) {
	all, err := s.users.ListUsers()
	if err != nil {
		return nil, err
	}

	others := lo.FilterMap(all, func(u repositories.User, _ int) (domain.PublicUser, bool) {
		if u.ID == callerID {
			return domain.PublicUser{}, false
		}
		return domain.PublicUser{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
		}, true
	})
	sort.Slice(others, func(i, j int) bool { return others[i].Username < others[j].Username })
	return others, nil
}
