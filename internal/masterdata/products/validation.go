package products

import (
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: sku", shared.ErrRequiredField)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if p.CostPrice.IsNegative() {
		return fmt.Errorf("%w: cost_price must not be negative", shared.ErrValidation)
	}
	if p.SellingPrice.IsNegative() {
		return fmt.Errorf("%w: selling_price must not be negative", shared.ErrValidation)
	}
	if p.ReorderLevel < 0 {
		return fmt.Errorf("%w: reorder_level must not be negative", shared.ErrValidation)
	}
	return nil
}
