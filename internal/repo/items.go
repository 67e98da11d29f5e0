package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
)

// ItemFilter narrows a listing. Query is free text matched against name, category and description.
type ItemFilter struct {
	Query    string
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// ItemPatch carries only the fields a caller supplied; nil means leave the column alone.
type ItemPatch struct {
	Name        *string
	Price       *float64
	Category    *string
	Description *string
	ImageURL    *string
	Stock       *int64
}

func (p ItemPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	if p.Stock != nil {
		cols["stock"] = *p.Stock
	}
	return cols
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func applyFilter(q *gorm.DB, f ItemFilter) *gorm.DB {
	if f.Query != "" {
		p := containsPattern(f.Query)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p, p)
	}
	if f.Name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(f.Name))
	}
	if f.Category != "" {
		q = q.Where(`LOWER(category) LIKE ? ESCAPE '\'`, containsPattern(f.Category))
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	return q
}

func (r *GormRepo) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *GormRepo) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *GormRepo) ListItems(ctx context.Context, f ItemFilter, offset, limit int) (int64, []models.Item, error) {
	var total int64
	if err := applyFilter(r.DB.WithContext(ctx).Model(&models.Item{}), f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Item, 0, limit)
	if err := applyFilter(r.DB.WithContext(ctx).Model(&models.Item{}), f).
		Order("name ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// UpdateItem writes only the patched columns so that a concurrent purchase is never
// overwritten by a stale stock value.
func (r *GormRepo) UpdateItem(ctx context.Context, id uuid.UUID, patch ItemPatch) (*models.Item, error) {
	var item models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&item).Error; err != nil {
			return notFound(err)
		}
		cols := patch.columns()
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&models.Item{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) RestockItem(ctx context.Context, id uuid.UUID, quantity int64) (*models.Item, error) {
	var item models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Item{}).
			Where("id = ?", id).
			Update("stock", gorm.Expr("stock + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// PurchaseItem removes quantity units in one transaction: the row is locked, checked and
// decremented with a guarded UPDATE. On any error no units are removed.
func (r *GormRepo) PurchaseItem(ctx context.Context, id uuid.UUID, quantity int64) (*models.Item, error) {
	var item models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&item).Error; err != nil {
			return notFound(err)
		}
		if item.Stock < quantity {
			return ErrOutOfStock
		}

		if err := takeStock(tx, id, quantity); err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// takeStock decrements stock only while it covers quantity. It is the final guard of a
// purchase: when the row changed after it was read, no row matches and nothing is removed.
func takeStock(tx *gorm.DB, id uuid.UUID, quantity int64) error {
	res := tx.Model(&models.Item{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}
