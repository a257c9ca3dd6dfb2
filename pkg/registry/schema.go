// pkg/registry/schema.go
package registry

// FieldOrderRegistry is the on-disk document listing the feature orders
// models may be trained against.
type FieldOrderRegistry struct {
	Version     string            `yaml:"version"`
	LastUpdated string            `yaml:"lastUpdated"`
	Default     string            `yaml:"default"`
	Entries     []FieldOrderEntry `yaml:"fieldOrders"`
}

type FieldOrderEntry struct {
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Fields      []string `yaml:"fields"`
	Deprecated  bool     `yaml:"deprecated"`
}
