package matrix

import (
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/testutil"
)

// attr builds an attribute whose value ids are "<id>-<value>".
func attr(id, name string, values ...string) ir.Attribute {
	a := ir.Attribute{ID: id, Name: name, Values: make([]ir.AttributeValue, 0, len(values))}
	for _, v := range values {
		a.Values = append(a.Values, ir.AttributeValue{ID: id + "-" + v, Value: v})
	}
	return a
}

// attrN builds an attribute with n numbered values.
func attrN(id, name string, n int) ir.Attribute {
	values := make([]string, n)
	for i := range values {
		values[i] = "v" + strconv.Itoa(i)
	}
	return attr(id, name, values...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	base := []Option{
		WithIDGenerator(testutil.NewSequentialIDs("id")),
		WithLogger(quietLogger()),
		WithClock(testutil.NewStepClock().Now),
	}
	return NewEditor(nil, nil, append(base, opts...)...)
}

// variantFor returns the variant carrying options.
func variantFor(t *testing.T, variants []ir.Variant, options ir.Options) ir.Variant {
	t.Helper()
	key := ir.TupleKey(options)
	for _, v := range variants {
		if ir.TupleKey(v.Options) == key {
			return v
		}
	}
	require.Failf(t, "variant not found", "no variant with options %v", options)
	return ir.Variant{}
}

func tuples(variants []ir.Variant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = ir.TupleKey(v.Options)
	}
	return out
}
