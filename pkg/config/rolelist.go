package config

// RoleListConfig bounds paginated role listings. A requested limit that is
// non-positive or exceeds MaximumItemsPerPage is clamped to
// DefaultItemsPerPage.
type RoleListConfig struct {
	DefaultItemsPerPage int `env:"RBAC_DEFAULT_ITEMS_PER_PAGE" env-default:"100"`
	MaximumItemsPerPage int `env:"RBAC_MAX_ITEMS_PER_PAGE" env-default:"100"`
}

// NewRoleListConfigFromEnv creates a RoleListConfig from environment variables
func NewRoleListConfigFromEnv() RoleListConfig {
	return RoleListConfig{
		DefaultItemsPerPage: GetEnvInt("RBAC_DEFAULT_ITEMS_PER_PAGE", 100),
		MaximumItemsPerPage: GetEnvInt("RBAC_MAX_ITEMS_PER_PAGE", 100),
	}
}
