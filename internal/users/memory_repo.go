package users

import (
	"context"
	"sync"
)

// MemoryRepo keeps user documents in process. Values are copied on the way in
// and out, so callers never share slices with the store.
type MemoryRepo struct {
	mutex sync.RWMutex
	users map[string]User
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users: make(map[string]User),
	}
}

func (r *MemoryRepo) List(_ context.Context) ([]User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	users := make([]User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.users[id].Clone())
	}
	return users, nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user = user.Clone()
	return &user, nil
}

func (r *MemoryRepo) Add(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		r.order = append(r.order, user.ID)
	}
	r.users[user.ID] = user.Clone()
	added := user.Clone()
	return &added, nil
}

func (r *MemoryRepo) Update(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return nil, ErrUserNotFound
	}
	r.users[user.ID] = user.Clone()
	updated := user.Clone()
	return &updated, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	for i, orderedID := range r.order {
		if orderedID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepo) AppendWorkout(_ context.Context, id string, workout Workout) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user = user.Clone()
	user.Progress.Workouts = append(user.Progress.Workouts, workout)
	r.users[id] = user
	updated := user.Clone()
	return &updated, nil
}

func (r *MemoryRepo) AppendMeal(_ context.Context, id string, meal Meal) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user = user.Clone()
	user.Progress.Meals = append(user.Progress.Meals, meal)
	r.users[id] = user
	updated := user.Clone()
	return &updated, nil
}

func (r *MemoryRepo) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.users)
}
