package inventory

import (
	"strings"

	"github.com/georgemunganga/sweetshop/internal/modules/catalog"
)

// MinNameLength is the shortest accepted sweet name after trimming.
const MinNameLength = 2

func checkName(op Op, id, name string) *Error {
	if len([]rune(strings.TrimSpace(name))) < MinNameLength {
		return validation(op, id, "name must be at least 2 characters")
	}
	return nil
}

func checkCategory(op Op, id, category string) *Error {
	if strings.TrimSpace(category) == "" {
		return validation(op, id, "category is required")
	}
	return nil
}

func checkPrice(op Op, id string, price float64) *Error {
	if !(price > 0) {
		return validation(op, id, "price must be greater than 0")
	}
	return nil
}

func checkQuantity(op Op, id string, qty int) *Error {
	if qty < 0 {
		return validation(op, id, "quantity cannot be negative")
	}
	return nil
}

func normaliseDraft(d catalog.Draft) (catalog.Draft, *Error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	if e := checkName(OpCreate, "", d.Name); e != nil {
		return d, e
	}
	if e := checkCategory(OpCreate, "", d.Category); e != nil {
		return d, e
	}
	if e := checkPrice(OpCreate, "", d.Price); e != nil {
		return d, e
	}
	if e := checkQuantity(OpCreate, "", d.Quantity); e != nil {
		return d, e
	}
	return d, nil
}

func normalisePatch(id string, p catalog.Patch) (catalog.Patch, *Error) {
	if p.Empty() {
		return p, validation(OpUpdate, id, "nothing to update")
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if e := checkName(OpUpdate, id, name); e != nil {
			return p, e
		}
		p.Name = &name
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if e := checkCategory(OpUpdate, id, category); e != nil {
			return p, e
		}
		p.Category = &category
	}
	if p.Price != nil {
		if e := checkPrice(OpUpdate, id, *p.Price); e != nil {
			return p, e
		}
	}
	if p.Quantity != nil {
		if e := checkQuantity(OpUpdate, id, *p.Quantity); e != nil {
			return p, e
		}
	}
	return p, nil
}

// draftKey is the single-flight key for a create, which has no id yet.
func draftKey(name string) string {
	return "new:" + strings.ToLower(strings.TrimSpace(name))
}
