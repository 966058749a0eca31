package unitofwork

import "context"

// RepositoryFactory hands out units of work bound to one shared *gorm.DB.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
