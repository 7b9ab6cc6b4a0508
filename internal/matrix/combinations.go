package matrix

import "github.com/roach88/varmatrix/internal/ir"

// CombinationCount returns the number of variants the attributes expand to.
//
// Each attribute contributes max(1, len(values)), so an attribute without
// values does not zero the product. An empty attribute list yields 0.
func CombinationCount(attrs []ir.Attribute) int {
	if len(attrs) == 0 {
		return 0
	}
	count := 1
	for _, a := range attrs {
		count *= max(1, len(a.Values))
	}
	return count
}

// Expand returns the Cartesian product of the attributes that have values.
//
// Order is attribute-outer, value-inner: for {Size:[S,M]}, {Color:[Red,Blue]}
// the result is S/Red, S/Blue, M/Red, M/Blue. This order determines default
// SKU numbering and display order.
//
// If the combination count exceeds limit, Expand returns a capacity error
// before allocating any tuple. A limit <= 0 disables the check.
func Expand(attrs []ir.Attribute, limit int) ([]ir.Options, error) {
	active := activeAttributes(attrs)
	if len(active) == 0 {
		return nil, nil
	}

	count := CombinationCount(active)
	if limit > 0 && count > limit {
		return nil, NewCapacityError(count, limit)
	}

	combos := []ir.Options{{}}
	for _, a := range active {
		next := make([]ir.Options, 0, len(combos)*len(a.Values))
		for _, partial := range combos {
			for _, v := range a.Values {
				tuple := make(ir.Options, len(partial)+1)
				for k, pv := range partial {
					tuple[k] = pv
				}
				tuple[a.Name] = v.Value
				next = append(next, tuple)
			}
		}
		combos = next
	}
	return combos, nil
}

// activeAttributes filters out attributes with no values.
func activeAttributes(attrs []ir.Attribute) []ir.Attribute {
	active := make([]ir.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.HasValues() {
			active = append(active, a)
		}
	}
	return active
}

// CapacityLevel classifies a combination count against the configured limits.
type CapacityLevel int

const (
	// CapacityOK means the count is at or below the soft limit.
	CapacityOK CapacityLevel = iota
	// CapacityWarning means the count exceeds the soft limit only.
	CapacityWarning
	// CapacityExceeded means the count exceeds the hard ceiling.
	CapacityExceeded
)

// String returns the level name.
func (l CapacityLevel) String() string {
	switch l {
	case CapacityWarning:
		return "warning"
	case CapacityExceeded:
		return "exceeded"
	default:
		return "ok"
	}
}

// Capacity reports a combination count and how it compares to the limits.
type Capacity struct {
	Count     int           `json:"count"`
	SoftLimit int           `json:"soft_limit"`
	HardLimit int           `json:"hard_limit"`
	Level     CapacityLevel `json:"-"`
}

// Warning reports whether the soft threshold is exceeded (advisory only).
func (c Capacity) Warning() bool {
	return c.Level >= CapacityWarning
}

// Exceeded reports whether generation would be refused.
func (c Capacity) Exceeded() bool {
	return c.Level == CapacityExceeded
}

// CheckCapacity classifies count against cfg's soft and hard limits.
func CheckCapacity(count int, cfg Config) Capacity {
	c := Capacity{Count: count, SoftLimit: cfg.SoftLimit, HardLimit: cfg.HardLimit}
	switch {
	case count > cfg.HardLimit:
		c.Level = CapacityExceeded
	case count > cfg.SoftLimit:
		c.Level = CapacityWarning
	}
	return c
}
