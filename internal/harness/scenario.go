package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/varmatrix/internal/matrix"
)

// Scenario defines an editor test scenario.
// Scenarios drive an Editor through a list of steps and assert on the
// resulting matrix, error map, history and stored state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides engine knobs. Missing knobs take their defaults;
	// ParseScenario always sets it.
	Config *matrix.Config `yaml:"config,omitempty"`

	// Prefix is the SKU prefix used by generate steps that do not set one.
	Prefix string `yaml:"prefix,omitempty"`

	// Products are other products seeded into the store before the run,
	// so SKU uniqueness checks have something to collide with.
	Products []ProductFixture `yaml:"products,omitempty"`

	// Steps are executed in order against a single editor.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// ProductFixture is a pre-existing product holding one variant per SKU.
type ProductFixture struct {
	ID   string   `yaml:"id"`
	Name string   `yaml:"name"`
	SKUs []string `yaml:"skus"`
}

// Step is one editor operation. Which fields apply depends on Op.
type Step struct {
	// Op is the operation name; see the Op* constants.
	Op string `yaml:"op"`

	// Attribute references an attribute by name.
	Attribute string `yaml:"attribute,omitempty"`

	// Value references a value by text, or is the text of a new value.
	Value string `yaml:"value,omitempty"`

	// Name is the new name of an attribute or value.
	Name string `yaml:"name,omitempty"`

	// Values are added to a new attribute (add_attribute only).
	Values []string `yaml:"values,omitempty"`

	// From and To are positions for move steps.
	From *int `yaml:"from,omitempty"`
	To   *int `yaml:"to,omitempty"`

	// Preset is a built-in preset id.
	Preset string `yaml:"preset,omitempty"`

	// Prefix overrides the scenario SKU prefix for generate.
	Prefix *string `yaml:"prefix,omitempty"`

	// Match selects variants whose options contain every pair of any entry.
	Match []map[string]string `yaml:"match,omitempty"`

	// Variant identifies one variant by its full option tuple.
	Variant map[string]string `yaml:"variant,omitempty"`

	// Set is the field edit of an update step.
	Set *VariantFields `yaml:"set,omitempty"`

	// Bulk is the action of a bulk step.
	Bulk *BulkStep `yaml:"bulk,omitempty"`

	// SKU is the code checked by a check_sku step. Defaults to the
	// variant's current SKU.
	SKU *string `yaml:"sku,omitempty"`

	// ExpectError is an error code (e.g. CAPACITY_EXCEEDED) or a message
	// substring the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// VariantFields is a per-field variant edit. Money and weight are decimal
// strings.
type VariantFields struct {
	SKU               *string `yaml:"sku,omitempty"`
	Price             *string `yaml:"price,omitempty"`
	CompareAtPrice    *string `yaml:"compare_at_price,omitempty"`
	Stock             *int64  `yaml:"stock,omitempty"`
	IsAvailable       *bool   `yaml:"is_available,omitempty"`
	Weight            *string `yaml:"weight,omitempty"`
	MediaID           *string `yaml:"media_id,omitempty"`
	LowStockThreshold *int64  `yaml:"low_stock_threshold,omitempty"`
	ClearPrice        bool    `yaml:"clear_price,omitempty"`
	ClearStock        bool    `yaml:"clear_stock,omitempty"`
}

// BulkStep describes a bulk action.
type BulkStep struct {
	// Action is a bulk action kind, e.g. set_price or adjust_stock.
	Action string `yaml:"action"`

	// Value is the operand: a decimal, an integer or true/false.
	Value string `yaml:"value,omitempty"`

	// Mode is add, subtract or percentage for adjust actions.
	Mode string `yaml:"mode,omitempty"`

	// Prefix is the SKU prefix for generate_skus.
	Prefix string `yaml:"prefix,omitempty"`
}

// Step operations.
const (
	OpAddAttribute    = "add_attribute"
	OpRemoveAttribute = "remove_attribute"
	OpRenameAttribute = "rename_attribute"
	OpAddValue        = "add_value"
	OpRemoveValue     = "remove_value"
	OpRenameValue     = "rename_value"
	OpMoveAttribute   = "move_attribute"
	OpMoveValue       = "move_value"
	OpPreset          = "preset"
	OpGenerate        = "generate"
	OpSelect          = "select"
	OpDeselect        = "deselect"
	OpSelectAll       = "select_all"
	OpClearSelection  = "clear_selection"
	OpBulk            = "bulk"
	OpUpdate          = "update"
	OpUndo            = "undo"
	OpRedo            = "redo"
	OpValidate        = "validate"
	OpSave            = "save"
	OpCheckSKU        = "check_sku"
)

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type; see the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (variant_count, selection_count,
	// stored_variant_count).
	Count *int `yaml:"count,omitempty"`

	// Options identifies a variant by its full option tuple (variant, error).
	Options map[string]string `yaml:"options,omitempty"`

	// Expect contains expected field values (variant, summary).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Key is a raw error-map key, e.g. "global" (error).
	Key string `yaml:"key,omitempty"`

	// Message is a substring the error message must contain (error).
	Message string `yaml:"message,omitempty"`

	// Absent asserts that the variant or error does not exist.
	Absent bool `yaml:"absent,omitempty"`

	// Value is the expected flag (can_undo, can_redo).
	Value *bool `yaml:"value,omitempty"`

	// Names is the expected attribute order (attributes).
	Names []string `yaml:"names,omitempty"`

	// Attribute and Values check one attribute's value order (attributes).
	Attribute string   `yaml:"attribute,omitempty"`
	Values    []string `yaml:"values,omitempty"`
}

// Assertion type constants.
const (
	AssertVariantCount       = "variant_count"
	AssertVariant            = "variant"
	AssertSummary            = "summary"
	AssertError              = "error"
	AssertNoErrors           = "no_errors"
	AssertCanUndo            = "can_undo"
	AssertCanRedo            = "can_redo"
	AssertAttributes         = "attributes"
	AssertSelectionCount     = "selection_count"
	AssertStoredVariantCount = "stored_variant_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	// Config decodes over the defaults so an explicit zero is kept.
	scenario := Scenario{Config: new(matrix.Config)}
	*scenario.Config = matrix.DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("scan scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, p := range s.Products {
		if p.ID == "" || p.Name == "" {
			return fmt.Errorf("products[%d]: id and name are required", i)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields each op needs.
func validateStep(index int, st *Step) error {
	need := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("steps[%d]: %s is required for %s", index, what, st.Op)
		}
		return nil
	}

	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpAddAttribute, OpSelectAll, OpClearSelection, OpUndo, OpRedo,
		OpValidate, OpSave, OpGenerate:
		return nil
	case OpRemoveAttribute:
		return need(st.Attribute != "", "attribute")
	case OpRenameAttribute:
		if err := need(st.Attribute != "", "attribute"); err != nil {
			return err
		}
		return need(st.Name != "", "name")
	case OpAddValue, OpRemoveValue:
		if err := need(st.Attribute != "", "attribute"); err != nil {
			return err
		}
		return need(st.Value != "", "value")
	case OpRenameValue:
		if err := need(st.Attribute != "" && st.Value != "", "attribute and value"); err != nil {
			return err
		}
		return need(st.Name != "", "name")
	case OpMoveAttribute:
		return need(st.From != nil && st.To != nil, "from and to")
	case OpMoveValue:
		if err := need(st.Attribute != "", "attribute"); err != nil {
			return err
		}
		return need(st.From != nil && st.To != nil, "from and to")
	case OpPreset:
		return need(st.Preset != "", "preset")
	case OpSelect, OpDeselect:
		return need(len(st.Match) > 0, "match")
	case OpBulk:
		return need(st.Bulk != nil && st.Bulk.Action != "", "bulk.action")
	case OpUpdate:
		if err := need(len(st.Variant) > 0, "variant"); err != nil {
			return err
		}
		return need(st.Set != nil, "set")
	case OpCheckSKU:
		return need(len(st.Variant) > 0, "variant")
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertVariantCount, AssertSelectionCount, AssertStoredVariantCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertVariant:
		if len(a.Options) == 0 {
			return fmt.Errorf("assertions[%d]: options is required for variant", index)
		}
		if !a.Absent && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect or absent is required for variant", index)
		}
	case AssertSummary:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for summary", index)
		}
	case AssertError:
		if a.Key == "" && len(a.Options) == 0 {
			return fmt.Errorf("assertions[%d]: key or options is required for error", index)
		}
	case AssertCanUndo, AssertCanRedo:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertAttributes:
		if len(a.Names) == 0 && a.Attribute == "" {
			return fmt.Errorf("assertions[%d]: names or attribute is required for attributes", index)
		}
	case AssertNoErrors:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
