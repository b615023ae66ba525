package domain

import (
	"database/sql/driver"
	"fmt"
)

// Category is the label assigned to a listing image. The zero value is not a
// valid category; an unlabeled image carries a nil *Category instead.
type Category string

const (
	CategoryInterior  Category = "Interior"
	CategoryExterior  Category = "Exterior"
	CategoryGarden    Category = "Garden"
	CategoryLand      Category = "Land"
	CategoryMap       Category = "Map"
	CategoryFloorPlan Category = "FloorPlan"
	CategoryView      Category = "View"
	CategoryOther     Category = "Other"
)

var categories = []Category{
	CategoryInterior,
	CategoryExterior,
	CategoryGarden,
	CategoryLand,
	CategoryMap,
	CategoryFloorPlan,
	CategoryView,
	CategoryOther,
}

// Categories returns the taxonomy in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a raw submitted value onto the taxonomy. Matching is
// exact, so padded input is rejected like any value outside the taxonomy.
func ParseCategory(raw string) (Category, bool) {
	for _, c := range categories {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

func (c Category) Valid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Value refuses to write anything outside the taxonomy.
func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %q", string(c))
	}
	return string(c), nil
}

// Scan refuses to read anything outside the taxonomy. NULL columns never reach
// Scan when the destination is a **Category; database/sql leaves the pointer nil.
func (c *Category) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("category is NULL")
	default:
		return fmt.Errorf("unsupported category type %T", src)
	}

	if !Category(raw).Valid() {
		return fmt.Errorf("invalid category %q", raw)
	}
	*c = Category(raw)
	return nil
}
