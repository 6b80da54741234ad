package memory

import (
	"sync"

	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/domain/user"
)

// DB is the shared in-process backing store. Users and tasks live behind one
// lock so employee deletion can cascade to tasks atomically.
type DB struct {
	mu    sync.RWMutex
	users map[string]user.User
	tasks map[string]task.Task
}

func NewDB() *DB {
	return &DB{
		users: make(map[string]user.User),
		tasks: make(map[string]task.Task),
	}
}
