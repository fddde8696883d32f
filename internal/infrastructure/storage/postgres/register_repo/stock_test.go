package register_repo

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// Columns the product catalog actually persists; matches the insert list in
// catalog_repo. The scanner joins cat_products, so every p.<col> it names
// must come from this set or the query fails at runtime.
var productCatalogColumns = map[string]bool{
	"id":          true,
	"code":        true,
	"description": true,
	"kind":        true,
	"unit":        true,
	"min_stock":   true,
	"base_price":  true,
	"created_at":  true,
	"updated_at":  true,
}

func TestLowStockQueryReferencesExistingProductColumns(t *testing.T) {
	refs := regexp.MustCompile(`\bp\.([a-z_]+)`).FindAllStringSubmatch(lowStockQuery, -1)
	require.NotEmpty(t, refs)

	for _, ref := range refs {
		require.Truef(t, productCatalogColumns[ref[1]],
			"low-stock query references cat_products column %q, which the catalog never writes", ref[1])
	}
}
