package specification

import "gorm.io/gorm"

// Specification narrows a gorm query. Repositories apply them in order, so
// filters compose and ordering specs should come last.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
