// pkg/registry/registry.go
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"loan-eligibility/internal/eligibility"
)

func LoadRegistry(path string) (*FieldOrderRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a registry document. Unknown keys are rejected and an empty
// document yields an empty registry.
func Parse(data []byte) (*FieldOrderRegistry, error) {
	var reg FieldOrderRegistry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&reg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse field order registry: %w", err)
	}
	return &reg, nil
}

// FieldOrders returns the built-in orders overlaid with every entry of the
// document. An entry may not redefine a built-in version with different fields.
func (r *FieldOrderRegistry) FieldOrders() (eligibility.FieldOrders, error) {
	orders := eligibility.BuiltinFieldOrders()
	for _, entry := range r.Entries {
		fields := make([]eligibility.Field, len(entry.Fields))
		for i, f := range entry.Fields {
			fields[i] = eligibility.Field(f)
		}
		order, err := eligibility.NewFieldOrder(entry.Version, fields)
		if err != nil {
			return nil, err
		}
		if existing, ok := orders[entry.Version]; ok && !sameFields(existing, order) {
			return nil, fmt.Errorf("%w: %s conflicts with the built-in order", eligibility.ErrInvalidFieldOrder, entry.Version)
		}
		orders[entry.Version] = order
	}
	if r.Default != "" {
		if _, err := orders.Get(r.Default); err != nil {
			return nil, fmt.Errorf("registry default: %w", err)
		}
	}
	return orders, nil
}

// DefaultVersion is the order used when a request names none: the document's
// default, else the built-in v1.
func (r *FieldOrderRegistry) DefaultVersion() string {
	if r.Default != "" {
		return r.Default
	}
	return eligibility.FieldOrderV1.Version()
}

func sameFields(a, b eligibility.FieldOrder) bool {
	af, bf := a.Fields(), b.Fields()
	if len(af) != len(bf) {
		return false
	}
	for i := range af {
		if af[i] != bf[i] {
			return false
		}
	}
	return true
}

// Add appends entry after checking the registry still resolves with it.
func (r *FieldOrderRegistry) Add(entry FieldOrderEntry) error {
	for _, existing := range r.Entries {
		if existing.Version == entry.Version {
			return fmt.Errorf("field order %s already exists", entry.Version)
		}
	}
	r.Entries = append(r.Entries, entry)
	if _, err := r.FieldOrders(); err != nil {
		r.Entries = r.Entries[:len(r.Entries)-1]
		return err
	}
	r.touch()
	return nil
}

// Deprecate flags a document entry. Deprecated orders still resolve so
// models trained on them keep working.
func (r *FieldOrderRegistry) Deprecate(version string) error {
	if version == r.Default {
		return fmt.Errorf("cannot deprecate the default field order %s", version)
	}
	for i := range r.Entries {
		if r.Entries[i].Version == version {
			r.Entries[i].Deprecated = true
			r.touch()
			return nil
		}
	}
	return fmt.Errorf("field order %s not found in registry", version)
}

// Save writes the registry as YAML, creating the parent directory.
func (r *FieldOrderRegistry) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *FieldOrderRegistry) touch() {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}
