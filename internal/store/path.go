package store

import (
	"strings"

	"github.com/drxagencia/dashboards/internal/entity"
)

const companiesRoot = "empresas"

// Join builds a store path from keys, dropping empty segments.
func Join(keys ...string) string {
	segs := make([]string, 0, len(keys))
	for _, k := range keys {
		segs = append(segs, splitPath(k)...)
	}
	return strings.Join(segs, "/")
}

// CompaniesPath is the top-level companies collection.
func CompaniesPath() string {
	return companiesRoot
}

// CompanyPath is the root of one company.
func CompanyPath(companyID string) string {
	return Join(companiesRoot, companyID)
}

// OrdersPath is a company's order collection.
func OrdersPath(companyID string) string {
	return Join(companiesRoot, companyID, "pedidos")
}

// OrderPath addresses a single order.
func OrderPath(companyID, orderID string) string {
	return Join(companiesRoot, companyID, "pedidos", orderID)
}

// MenuPath is a company's menu root.
func MenuPath(companyID string) string {
	return Join(companiesRoot, companyID, "cardapio")
}

// StockCategoryPath is one menu collection.
func StockCategoryPath(companyID string, category entity.StockCategory) string {
	return Join(companiesRoot, companyID, "cardapio", string(category))
}

// StockItemPath addresses a menu item by key or array index.
func StockItemPath(companyID string, category entity.StockCategory, itemID string) string {
	return Join(companiesRoot, companyID, "cardapio", string(category), itemID)
}

// ConfigPath is a company's config record.
func ConfigPath(companyID string) string {
	return Join(companiesRoot, companyID, "config")
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// within reports whether path equals root or lies below it.
func within(root, path string) bool {
	if root == "" || root == path {
		return true
	}
	return strings.HasPrefix(path, root+"/")
}

// related reports whether a change at one path can affect a view of the other.
func related(a, b string) bool {
	return within(a, b) || within(b, a)
}
