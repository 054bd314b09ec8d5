package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PostgresStore implements Store on top of gorm
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wraps an open gorm connection. The connection must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern that matches search literally
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
