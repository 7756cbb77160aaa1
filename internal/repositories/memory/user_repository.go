package memory

import (
	"context"
	"sync"

	"sahayak/internal/models"
	"sahayak/internal/repositories/interfaces"
	"sahayak/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository is exported so local setups and tests can seed accounts
// with Save.
type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

var _ interfaces.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[primitive.ObjectID]*models.User),
	}
}

// Save inserts or replaces a user, assigning an ID when missing.
func (r *UserRepository) Save(user *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = cloneUser(user)
	return user
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if user, ok := r.users[id]; ok {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

func (r *UserRepository) FindInBounds(ctx context.Context, bounds utils.Bounds) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*models.User
	for _, user := range r.users {
		if user.Location == nil {
			continue
		}
		if bounds.Contains(utils.Point{Lat: user.Location.Lat, Lng: user.Location.Lng}) {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	return &c
}
