package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/alchemorsel-search/internal/cache"
)

// NameTable is an id/name table such as ingredients or units.
type NameTable struct {
	db    *gorm.DB
	table string
}

// IngredientNames returns the loader for the ingredients table.
func IngredientNames(db *gorm.DB) *NameTable {
	return &NameTable{db: db, table: "ingredients"}
}

// UnitNames returns the loader for the units table.
func UnitNames(db *gorm.DB) *NameTable {
	return &NameTable{db: db, table: "units"}
}

// LoadAfter implements cache.NameLoader.
func (t *NameTable) LoadAfter(ctx context.Context, afterID int64) ([]cache.Entry, error) {
	var rows []cache.Entry
	err := t.db.WithContext(ctx).Table(t.table).
		Select("id", "name").
		Where("id > ?", afterID).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t.table, err)
	}
	return rows, nil
}

// LoadByID implements cache.NameLoader.
func (t *NameTable) LoadByID(ctx context.Context, id int64) (cache.Entry, bool, error) {
	var rows []cache.Entry
	err := t.db.WithContext(ctx).Table(t.table).
		Select("id", "name").
		Where("id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("load %s %d: %w", t.table, id, err)
	}
	if len(rows) == 0 {
		return cache.Entry{}, false, nil
	}
	return rows[0], true, nil
}

// Insert implements cache.NameLoader. Concurrent inserts of the same name
// resolve to the existing row.
func (t *NameTable) Insert(ctx context.Context, name string) (int64, error) {
	db := t.db.WithContext(ctx)
	err := db.Table(t.table).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(map[string]interface{}{"name": name}).Error
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", t.table, err)
	}
	var id int64
	if err := db.Table(t.table).Select("id").Where("name = ?", name).Scan(&id).Error; err != nil {
		return 0, fmt.Errorf("lookup %s id: %w", t.table, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("insert into %s: no id for %q", t.table, name)
	}
	return id, nil
}
