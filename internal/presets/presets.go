package presets

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/varmatrix/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

//go:embed catalog.cue
var catalogCUE string

// Catalog is an ordered, read-only set of presets.
type Catalog struct {
	presets []ir.Preset
	index   map[string]int
}

func newCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// add appends p, or replaces the preset with the same id in place.
func (c *Catalog) add(p ir.Preset) {
	if i, ok := c.index[p.ID]; ok {
		c.presets[i] = p
		return
	}
	c.index[p.ID] = len(c.presets)
	c.presets = append(c.presets, p)
}

// Get returns the preset with the given id.
func (c *Catalog) Get(id string) (ir.Preset, bool) {
	i, ok := c.index[id]
	if !ok {
		return ir.Preset{}, false
	}
	return c.presets[i], true
}

// List returns the presets in catalog order.
func (c *Catalog) List() []ir.Preset {
	out := make([]ir.Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Len returns the number of presets.
func (c *Catalog) Len() int {
	return len(c.presets)
}

// Merge returns a catalog holding c's presets followed by other's. A preset
// in other with an id already in c replaces it at c's position.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := newCatalog()
	for _, p := range c.presets {
		out.add(p)
	}
	for _, p := range other.presets {
		out.add(p)
	}
	return out
}

var builtin = sync.OnceValues(func() (*Catalog, error) {
	return CompileString(catalogCUE, "catalog.cue")
})

// Builtin returns the embedded catalog. It is compiled once.
func Builtin() (*Catalog, error) {
	return builtin()
}

// CompileString compiles CUE source into a catalog. filename is used in
// error positions.
func CompileString(src, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v)
}

// Compile reads presets from a CUE value after unifying it with the schema.
// The value's context is used to compile the schema.
func Compile(v cue.Value) (*Catalog, error) {
	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile preset schema: %w", err)
	}

	v = v.Unify(schema)
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	catalog := newCatalog()
	presetsVal := v.LookupPath(cue.ParsePath("preset"))
	if !presetsVal.Exists() {
		return catalog, nil
	}

	iter, err := presetsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		p, err := compilePreset(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		catalog.add(p)
	}
	return catalog, nil
}

// LoadDir compiles every .cue file in dir as one catalog.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("presets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("presets directory: not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}

	ctx := cuecontext.New()
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v)
}

func compilePreset(id string, v cue.Value) (ir.Preset, error) {
	field := "preset." + id
	p := ir.Preset{ID: id}

	name, err := requiredString(v, "name", field)
	if err != nil {
		return ir.Preset{}, err
	}
	p.Name = name

	if desc := v.LookupPath(cue.ParsePath("description")); desc.Exists() && desc.IsConcrete() {
		if p.Description, err = desc.String(); err != nil {
			return ir.Preset{}, formatCUEError(err)
		}
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	attrIter, err := attrsVal.List()
	if err != nil {
		return ir.Preset{}, formatCUEError(err)
	}
	for i := 0; attrIter.Next(); i++ {
		attr, err := compileAttribute(attrIter.Value(), fmt.Sprintf("%s.attributes[%d]", field, i))
		if err != nil {
			return ir.Preset{}, err
		}
		p.Attributes = append(p.Attributes, attr)
	}
	if len(p.Attributes) == 0 {
		return ir.Preset{}, &CompileError{
			Field:   field + ".attributes",
			Message: "at least one attribute is required",
			Pos:     v.Pos(),
		}
	}
	return p, nil
}

func compileAttribute(v cue.Value, field string) (ir.PresetAttribute, error) {
	name, err := requiredString(v, "name", field)
	if err != nil {
		return ir.PresetAttribute{}, err
	}
	attr := ir.PresetAttribute{Name: name}

	valIter, err := v.LookupPath(cue.ParsePath("values")).List()
	if err != nil {
		return ir.PresetAttribute{}, formatCUEError(err)
	}
	for valIter.Next() {
		s, err := valIter.Value().String()
		if err != nil {
			return ir.PresetAttribute{}, formatCUEError(err)
		}
		if strings.TrimSpace(s) == "" {
			return ir.PresetAttribute{}, &CompileError{
				Field:   field + ".values",
				Message: "values must not be empty",
				Pos:     valIter.Value().Pos(),
			}
		}
		attr.Values = append(attr.Values, s)
	}
	if len(attr.Values) == 0 {
		return ir.PresetAttribute{}, &CompileError{
			Field:   field + ".values",
			Message: "at least one value is required",
			Pos:     v.Pos(),
		}
	}
	return attr, nil
}

// requiredString reads a concrete, non-blank string field.
func requiredString(v cue.Value, name, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() || !f.IsConcrete() {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if strings.TrimSpace(s) == "" {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " must not be empty",
			Pos:     f.Pos(),
		}
	}
	return s, nil
}

// CompileError is a catalog error with the CUE position it came from.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
