package role

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tendant/simple-rbac/pkg/config"
)

// Sort orders accepted by GetRoles. Empty means ascending.
const (
	SortAscending  = "ASC"
	SortDescending = "DESC"
)

// ListRolesParams is the input of the pagination engine. Offset counts rows
// to skip over the filtered result set; 0 starts from the beginning. A limit
// that is non-positive or exceeds the configured maximum is clamped to the
// configured default.
type ListRolesParams struct {
	Limit        int
	Offset       int
	Filter       string
	SortOrder    string
	TenantDomain string
}

// filterExpr is a parsed role name filter, e.g. "name co admin".
type filterExpr struct {
	attribute string
	operator  string
	value     string
}

// parseFilter parses a filter expression of the form "<attribute> <op>
// <value>" where op is one of eq, co, sw, ew. An empty filter returns nil.
func parseFilter(filter string) (*filterExpr, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}

	parts := strings.SplitN(filter, " ", 3)
	if len(parts) != 3 {
		return nil, ErrInvalidPage{Reason: fmt.Sprintf("malformed filter %q", filter)}
	}

	attribute := strings.ToLower(parts[0])
	if attribute != "name" && attribute != "audienceid" {
		return nil, ErrInvalidPage{Reason: fmt.Sprintf("unsupported filter attribute %q", parts[0])}
	}

	operator := strings.ToLower(parts[1])
	switch operator {
	case "eq", "co", "sw", "ew":
	default:
		return nil, ErrInvalidPage{Reason: fmt.Sprintf("unsupported filter operator %q", parts[1])}
	}

	return &filterExpr{attribute: attribute, operator: operator, value: parts[2]}, nil
}

func (f *filterExpr) matches(role Role, displayName string) bool {
	if f == nil {
		return true
	}

	var subject string
	switch f.attribute {
	case "name":
		subject = displayName
	case "audienceid":
		subject = role.AudienceID
	}

	switch f.operator {
	case "eq":
		return subject == f.value
	case "co":
		return strings.Contains(subject, f.value)
	case "sw":
		return strings.HasPrefix(subject, f.value)
	case "ew":
		return strings.HasSuffix(subject, f.value)
	}
	return false
}

func normalizeSortOrder(order string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "", SortAscending:
		return SortAscending, nil
	case SortDescending:
		return SortDescending, nil
	default:
		return "", ErrInvalidPage{Reason: fmt.Sprintf("unsupported sort order %q", order)}
	}
}

// clampLimit applies the configured bounds to a requested page size.
func clampLimit(limit int, cfg config.RoleListConfig) int {
	if limit <= 0 || limit > cfg.MaximumItemsPerPage {
		return cfg.DefaultItemsPerPage
	}
	return limit
}

// sortRoles orders by name with audience ID as tiebreak so pagination stays
// deterministic when identical names exist in different audiences.
func sortRoles(roles []Role, order string) {
	sort.SliceStable(roles, func(i, j int) bool {
		a, b := roles[i], roles[j]
		if order == SortDescending {
			a, b = b, a
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.AudienceID < b.AudienceID
	})
}

// page slices the filtered, sorted result set.
func page(roles []Role, limit, offset int) []Role {
	if offset >= len(roles) {
		return nil
	}
	end := offset + limit
	if end > len(roles) {
		end = len(roles)
	}
	return roles[offset:end]
}
