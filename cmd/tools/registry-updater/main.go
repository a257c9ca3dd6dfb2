// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"loan-eligibility/pkg/registry"
)

const defaultPath = "configs/field_orders.yaml"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	deprecateCmd := flag.NewFlagSet("deprecate", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	addPath := addCmd.String("path", defaultPath, "Path to registry file")
	version := addCmd.String("version", "", "Field order version (e.g., v4)")
	description := addCmd.String("description", "", "Description")
	fields := addCmd.String("fields", "", "Comma separated model fields in feature order")
	makeDefault := addCmd.Bool("default", false, "Make this the default order")

	deprecatePath := deprecateCmd.String("path", defaultPath, "Path to registry file")
	deprecateVersion := deprecateCmd.String("version", "", "Field order version to deprecate")

	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")
	listPath := listCmd.String("path", defaultPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		_ = addCmd.Parse(os.Args[2:])
		if *version == "" || *fields == "" {
			fmt.Println("Error: version and fields are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		err = add(*addPath, registry.FieldOrderEntry{
			Version:     *version,
			Description: *description,
			Fields:      splitFields(*fields),
		}, *makeDefault)
		if err == nil {
			fmt.Printf("Added field order: %s\n", *version)
		}

	case "deprecate":
		_ = deprecateCmd.Parse(os.Args[2:])
		if *deprecateVersion == "" {
			fmt.Println("Error: version is required for deprecate.")
			deprecateCmd.Usage()
			os.Exit(1)
		}
		err = deprecate(*deprecatePath, *deprecateVersion)
		if err == nil {
			fmt.Printf("Deprecated field order: %s\n", *deprecateVersion)
		}

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		err = validate(*validatePath)

	case "list":
		_ = listCmd.Parse(os.Args[2:])
		err = list(*listPath)

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// load returns an empty registry when path does not exist yet.
func load(path string) (*registry.FieldOrderRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if os.IsNotExist(err) {
		return &registry.FieldOrderRegistry{Version: "1"}, nil
	}
	return reg, err
}

func add(path string, entry registry.FieldOrderEntry, makeDefault bool) error {
	reg, err := load(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Add(entry); err != nil {
		return err
	}
	if makeDefault {
		reg.Default = entry.Version
	}
	return reg.Save(path)
}

func deprecate(path, version string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Deprecate(version); err != nil {
		return err
	}
	return reg.Save(path)
}

func validate(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	orders, err := reg.FieldOrders()
	if err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry validation passed. Found %d field orders.\n", len(orders))
	return nil
}

func list(path string) error {
	reg, err := load(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	orders, err := reg.FieldOrders()
	if err != nil {
		return err
	}

	deprecated := make(map[string]bool, len(reg.Entries))
	for _, e := range reg.Entries {
		deprecated[e.Version] = e.Deprecated
	}
	for _, v := range orders.Versions() {
		order := orders[v]
		marker := ""
		if v == reg.Default {
			marker = " (default)"
		}
		if deprecated[v] {
			marker += " (deprecated)"
		}
		fmt.Printf("%s%s: %d features\n", v, marker, order.Len())
		for i, f := range order.Fields() {
			fmt.Printf("  %2d %s\n", i, f)
		}
	}
	return nil
}

func splitFields(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  add        Add a field order to the registry
  deprecate  Mark a field order deprecated
  validate   Check the registry resolves against the built-in orders
  list       Print every resolvable field order
  help       Show this help message

Examples:
  registry-updater add -version v4 -fields gender,maritalStatus,loanAmount -description "Reduced form"
  registry-updater deprecate -version v3
  registry-updater validate -path configs/field_orders.yaml

Use 'registry-updater <command> -h' for more information about a command.`)
}
