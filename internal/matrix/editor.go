package matrix

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/varmatrix/internal/ir"
)

// Persister saves a whole matrix. It is all-or-nothing: on error nothing
// may have been written. Implemented by store.ProductMatrix.
type Persister interface {
	SaveMatrix(ctx context.Context, attrs []ir.Attribute, variants []ir.Variant) error
}

// Phase is the generation state of the editor.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
)

// ErrNoPersister is returned by Save when no Persister was configured.
var ErrNoPersister = errors.New("no persister configured")

// Editor is the in-process editing session over one product's matrix.
//
// Every structural operation computes the next state with the pure functions
// of this package, records the previous state in the history and swaps the
// new state in. Operations that change nothing (duplicate values, unknown
// indices, unchanged regeneration) leave the history alone.
//
// Thread-safety model:
//   - Editor has exactly one logical writer and is not safe for concurrent use
//   - Slices returned by accessors are shared with the editor and must not be modified
//   - SKUValidator verdicts may be produced on other goroutines but must be
//     handed back through ApplySKUVerdict on the writer's goroutine
type Editor struct {
	cfg       Config
	ids       IDGenerator
	history   *History
	persister Persister
	logger    *slog.Logger
	now       func() time.Time

	attrs     []ir.Attribute
	variants  []ir.Variant
	selection map[string]bool
	errors    map[string]string
	remote    map[string]SKUVerdict
	phase     Phase
}

// Option configures an Editor.
type Option func(*Editor)

// WithConfig sets the engine knobs. Zero-valued knobs that must be positive
// take their defaults; a zero LowStockThreshold or SKUDebounce is kept.
func WithConfig(cfg Config) Option {
	return func(e *Editor) {
		e.cfg = cfg.withDefaults()
	}
}

// WithIDGenerator sets the id source for attributes, values and variants.
//
// Default: UUIDv7Generator. Tests use testutil.SequentialIDs.
func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Editor) {
		e.ids = ids
	}
}

// WithPersister sets the collaborator Save hands the matrix to.
func WithPersister(p Persister) Option {
	return func(e *Editor) {
		e.persister = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithClock sets the wall clock used to timestamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		e.now = now
	}
}

// NewEditor creates an editor over an initial matrix, typically one loaded
// from the persistence collaborator. The input slices are copied.
func NewEditor(attrs []ir.Attribute, variants []ir.Variant, opts ...Option) *Editor {
	e := &Editor{
		cfg:       DefaultConfig(),
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
		now:       time.Now,
		attrs:     append([]ir.Attribute{}, attrs...),
		variants:  append([]ir.Variant{}, variants...),
		selection: make(map[string]bool),
		errors:    make(map[string]string),
		remote:    make(map[string]SKUVerdict),
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history = NewHistory(e.cfg.HistoryLimit, e.now)
	return e
}

// Config returns the effective configuration.
func (e *Editor) Config() Config { return e.cfg }

// Attributes returns the current attribute list.
func (e *Editor) Attributes() []ir.Attribute { return e.attrs }

// Variants returns the current variant list in display order.
func (e *Editor) Variants() []ir.Variant { return e.variants }

// Phase returns the generation state.
func (e *Editor) Phase() Phase { return e.phase }

// CanUndo reports whether Undo would change state.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would change state.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Variant returns the variant with id.
func (e *Editor) Variant(id string) (ir.Variant, bool) {
	if i := e.variantIndex(id); i >= 0 {
		return e.variants[i], true
	}
	return ir.Variant{}, false
}

// Errors returns a copy of the error map, keyed by variant id or
// ir.GlobalErrorKey.
func (e *Editor) Errors() map[string]string {
	out := make(map[string]string, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// Error returns the message recorded for key, if any.
func (e *Editor) Error(key string) (string, bool) {
	msg, ok := e.errors[key]
	return msg, ok
}

// commit records the current state and installs the next one.
func (e *Editor) commit(op string, attrs []ir.Attribute, variants []ir.Variant) {
	e.history.Record(e.attrs, e.variants)
	e.attrs = attrs
	e.variants = variants
	e.logger.Debug("matrix changed",
		"op", op,
		"attributes", len(attrs),
		"variants", len(variants),
		"undo_depth", e.history.UndoDepth(),
	)
}

// AddAttribute appends an attribute with no values and returns its id.
// An empty name is replaced with the next free "Option N".
func (e *Editor) AddAttribute(name string) (string, error) {
	id := e.ids.Generate()
	out, err := AddAttribute(e.attrs, id, name, e.cfg.MaxAttributes)
	if err != nil {
		return "", err
	}
	e.commit("add_attribute", out, e.variants)
	return id, nil
}

// RemoveAttribute removes an attribute. Variants keep their option keys
// until the next Generate.
func (e *Editor) RemoveAttribute(id string) error {
	out, ok := RemoveAttribute(e.attrs, id)
	if !ok {
		return notFound("attribute", id)
	}
	e.commit("remove_attribute", out, e.variants)
	return nil
}

// RenameAttribute renames an attribute.
func (e *Editor) RenameAttribute(id, name string) error {
	if IndexOfAttribute(e.attrs, id) < 0 {
		return notFound("attribute", id)
	}
	if out, ok := RenameAttribute(e.attrs, id, name); ok {
		e.commit("rename_attribute", out, e.variants)
	}
	return nil
}

// AddValue appends a value to an attribute and returns the new value id.
// A duplicate or blank value is ignored and yields an empty id.
func (e *Editor) AddValue(attrID, value string) (string, error) {
	if IndexOfAttribute(e.attrs, attrID) < 0 {
		return "", notFound("attribute", attrID)
	}
	id := e.ids.Generate()
	out, ok := AddValue(e.attrs, attrID, id, value)
	if !ok {
		return "", nil
	}
	e.commit("add_value", out, e.variants)
	return id, nil
}

// RemoveValue removes a value from an attribute.
func (e *Editor) RemoveValue(attrID, valueID string) error {
	out, ok := RemoveValue(e.attrs, attrID, valueID)
	if !ok {
		return e.valueNotFound(attrID, valueID)
	}
	e.commit("remove_value", out, e.variants)
	return nil
}

// RenameValue changes a value's text. Renaming onto an existing value of the
// same attribute is ignored.
func (e *Editor) RenameValue(attrID, valueID, value string) error {
	if err := e.valueNotFound(attrID, valueID); err != nil {
		return err
	}
	if out, ok := RenameValue(e.attrs, attrID, valueID, value); ok {
		e.commit("rename_value", out, e.variants)
	}
	return nil
}

// MoveAttribute reorders attributes. Out-of-range indices are ignored.
func (e *Editor) MoveAttribute(from, to int) {
	if out, ok := MoveAttribute(e.attrs, from, to); ok {
		e.commit("move_attribute", out, e.variants)
	}
}

// MoveValue reorders the values of one attribute. Out-of-range indices are
// ignored.
func (e *Editor) MoveValue(attrID string, from, to int) error {
	if IndexOfAttribute(e.attrs, attrID) < 0 {
		return notFound("attribute", attrID)
	}
	if out, ok := MoveValue(e.attrs, attrID, from, to); ok {
		e.commit("move_value", out, e.variants)
	}
	return nil
}

// ApplyPreset appends the preset's attribute groups, or none of them when
// they would not fit under the attribute maximum.
func (e *Editor) ApplyPreset(p ir.Preset) error {
	if len(p.Attributes) == 0 {
		return nil
	}
	out, err := ApplyPreset(e.attrs, p, e.ids, e.cfg.MaxAttributes)
	if err != nil {
		return err
	}
	e.commit("apply_preset", out, e.variants)
	return nil
}

func (e *Editor) valueNotFound(attrID, valueID string) error {
	idx := IndexOfAttribute(e.attrs, attrID)
	if idx < 0 {
		return notFound("attribute", attrID)
	}
	if e.attrs[idx].ValueIndex(valueID) < 0 {
		return notFound("value", valueID)
	}
	return nil
}

// PreviewGeneration reports what Generate would do without changing state.
func (e *Editor) PreviewGeneration() (GenerateResult, error) {
	return PreviewGeneration(e.attrs, e.variants, e.cfg)
}

// Generate rebuilds the variant list from the attributes, reusing every
// variant whose option tuple survives. Callers should confirm with the
// operator first when PreviewGeneration reports dropped variants.
//
// On a capacity error the variant list is left untouched and the message is
// recorded under the global error key. A run that reproduces the current
// list exactly is not recorded in the history.
func (e *Editor) Generate(prefix string) (GenerateResult, error) {
	e.phase = PhaseGenerating
	defer func() { e.phase = PhaseIdle }()

	res, err := Regenerate(e.attrs, e.variants, prefix, e.ids, e.cfg)
	if err != nil {
		e.errors[ir.GlobalErrorKey] = errorMessage(err)
		e.logger.Warn("generation refused", "error", err)
		return res, err
	}
	delete(e.errors, ir.GlobalErrorKey)

	if res.Capacity.Warning() {
		e.logger.Info("combination count above soft limit",
			"count", res.Capacity.Count,
			"soft_limit", res.Capacity.SoftLimit,
		)
	}

	if sameIDs(e.variants, res.Variants) {
		return res, nil
	}
	e.commit("generate", e.attrs, res.Variants)
	e.prune()
	e.logger.Info("variants generated",
		"reused", res.Reused,
		"created", res.Created,
		"dropped", res.Dropped,
	)
	return res, nil
}

// VariantPatch is a per-field edit of one variant. Nil fields are left
// alone; the Clear flags unset a field.
type VariantPatch struct {
	SKU               *string
	Price             *decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	Stock             *int64
	IsAvailable       *bool
	Weight            *decimal.Decimal
	MediaID           *string
	LowStockThreshold *int64

	ClearPrice bool
	ClearStock bool
}

// UpdateVariant applies a field edit. Field edits are merged into the live
// state without a history entry. Invalid values are stored and flagged in
// the error map; they block Save, not editing.
func (e *Editor) UpdateVariant(id string, patch VariantPatch) error {
	i := e.variantIndex(id)
	if i < 0 {
		return notFound("variant", id)
	}

	v := e.variants[i]
	if patch.SKU != nil {
		v.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.Price != nil {
		v.Price = ir.Dec(*patch.Price)
	}
	if patch.ClearPrice {
		v.Price = nil
	}
	if patch.CompareAtPrice != nil {
		v.CompareAtPrice = ir.Dec(*patch.CompareAtPrice)
	}
	if patch.Stock != nil {
		v.Stock = ir.Int(*patch.Stock)
	}
	if patch.ClearStock {
		v.Stock = nil
	}
	if patch.IsAvailable != nil {
		v.IsAvailable = *patch.IsAvailable
	}
	if patch.Weight != nil {
		v.Weight = ir.Dec(*patch.Weight)
	}
	if patch.MediaID != nil {
		v.MediaID = *patch.MediaID
	}
	if patch.LowStockThreshold != nil {
		v.LowStockThreshold = ir.Int(*patch.LowStockThreshold)
	}

	// Snapshots share the slice, so write into a copy.
	out := make([]ir.Variant, len(e.variants))
	copy(out, e.variants)
	out[i] = v
	e.variants = out

	if patch.SKU != nil {
		delete(e.remote, id)
	}
	e.refreshErrors(id)
	return nil
}

// Select adds the given variant ids to the selection. Unknown ids are
// ignored. Returns the selection size.
func (e *Editor) Select(ids ...string) int {
	for _, id := range ids {
		if e.variantIndex(id) >= 0 {
			e.selection[id] = true
		}
	}
	return len(e.selection)
}

// Deselect removes ids from the selection.
func (e *Editor) Deselect(ids ...string) int {
	for _, id := range ids {
		delete(e.selection, id)
	}
	return len(e.selection)
}

// SelectAll selects every variant.
func (e *Editor) SelectAll() int {
	for _, v := range e.variants {
		e.selection[v.ID] = true
	}
	return len(e.selection)
}

// ClearSelection empties the selection.
func (e *Editor) ClearSelection() {
	clear(e.selection)
}

// IsSelected reports whether id is selected.
func (e *Editor) IsSelected(id string) bool { return e.selection[id] }

// Selection returns the selected ids in variant order.
func (e *Editor) Selection() []string {
	out := make([]string, 0, len(e.selection))
	for _, v := range e.variants {
		if e.selection[v.ID] {
			out = append(out, v.ID)
		}
	}
	return out
}

// ApplyBulk applies action to every selected variant as a single history
// entry. Returns ErrEmptySelection when nothing is selected.
func (e *Editor) ApplyBulk(action BulkAction) (BulkResult, error) {
	res, err := ApplyBulk(e.variants, e.attrs, e.selection, action)
	if err != nil {
		return res, err
	}
	if res.Changed == 0 {
		return BulkResult{Variants: e.variants}, nil
	}
	e.commit("bulk_"+action.Kind(), e.attrs, res.Variants)
	if _, ok := action.(GenerateSKUs); ok {
		for id := range e.selection {
			delete(e.remote, id)
		}
	}
	e.refreshErrors(e.Selection()...)
	return res, nil
}

// Undo restores the state before the latest structural change. Returns
// false when there is nothing to undo.
func (e *Editor) Undo() bool {
	snap, ok := e.history.Undo(e.attrs, e.variants)
	if !ok {
		return false
	}
	e.restore(snap)
	e.logger.Debug("undo", "seq", snap.Seq, "undo_depth", e.history.UndoDepth())
	return true
}

// Redo re-applies the latest undone change. Returns false when there is
// nothing to redo.
func (e *Editor) Redo() bool {
	snap, ok := e.history.Redo(e.attrs, e.variants)
	if !ok {
		return false
	}
	e.restore(snap)
	e.logger.Debug("redo", "seq", snap.Seq, "redo_depth", e.history.RedoDepth())
	return true
}

func (e *Editor) restore(snap ir.Snapshot) {
	e.attrs = snap.Attributes
	e.variants = snap.Variants
	e.prune()
	e.refreshErrors()
}

// Validate runs the synchronous checks over every variant, replaces the
// per-variant errors with the result and reports whether the matrix passed.
func (e *Editor) Validate() (map[string]string, bool) {
	failures := ValidateAll(e.variants)
	e.setVariantErrors(failures)
	return failures, len(failures) == 0
}

// Save validates the matrix and hands it to the persister. A failing
// validation never reaches the persister. A persister failure is recorded
// under the global error key; state and history are left as they were so
// the operator can retry.
func (e *Editor) Save(ctx context.Context) error {
	failures, ok := e.Validate()
	if !ok {
		e.logger.Info("save rejected by validation", "failures", len(failures))
		return NewValidationError(failures)
	}

	if e.persister == nil {
		err := NewPersistError(ErrNoPersister)
		e.errors[ir.GlobalErrorKey] = errorMessage(err)
		return err
	}

	if err := e.persister.SaveMatrix(ctx, e.attrs, e.variants); err != nil {
		perr := NewPersistError(err)
		e.errors[ir.GlobalErrorKey] = errorMessage(perr)
		e.logger.Error("save failed", "error", err)
		return perr
	}

	delete(e.errors, ir.GlobalErrorKey)
	e.logger.Info("matrix saved",
		"attributes", len(e.attrs),
		"variants", len(e.variants),
	)
	return nil
}

// ApplySKUVerdict folds an asynchronous SKU verdict into the error map.
// A verdict for a variant that no longer exists, or no longer carries the
// checked SKU, is stale and ignored; the return value reports whether the
// verdict was applied.
func (e *Editor) ApplySKUVerdict(v SKUVerdict) bool {
	current, ok := e.Variant(v.VariantID)
	if !ok || strings.TrimSpace(current.SKU) != strings.TrimSpace(v.SKU) {
		e.logger.Debug("stale sku verdict dropped", "variant_id", v.VariantID, "sku", v.SKU)
		return false
	}
	if v.Valid {
		delete(e.remote, v.VariantID)
	} else {
		e.remote[v.VariantID] = v
	}
	e.refreshErrors(v.VariantID)
	return true
}

// Summary derives the stock and price statistics of the current variants.
func (e *Editor) Summary() Summary {
	return Summarize(e.variants, e.cfg.LowStockThreshold)
}

// Capacity reports the combination count of the current attributes against
// the configured limits.
func (e *Editor) Capacity() Capacity {
	return CheckCapacity(CombinationCount(activeAttributes(e.attrs)), e.cfg)
}

// PageCount returns the number of display pages.
func (e *Editor) PageCount() int {
	return (len(e.variants) + e.cfg.PageSize - 1) / e.cfg.PageSize
}

// Page returns the variants on 1-based page n, or nil when out of range.
func (e *Editor) Page(n int) []ir.Variant {
	start := (n - 1) * e.cfg.PageSize
	if n < 1 || start >= len(e.variants) {
		return nil
	}
	end := min(start+e.cfg.PageSize, len(e.variants))
	return append([]ir.Variant(nil), e.variants[start:end]...)
}

// variantIndex returns the position of the variant with id, or -1.
func (e *Editor) variantIndex(id string) int {
	for i, v := range e.variants {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// prune drops selection, error and verdict entries of variants that no
// longer exist.
func (e *Editor) prune() {
	live := make(map[string]bool, len(e.variants))
	for _, v := range e.variants {
		live[v.ID] = true
	}
	for id := range e.selection {
		if !live[id] {
			delete(e.selection, id)
		}
	}
	for id := range e.errors {
		if id != ir.GlobalErrorKey && !live[id] {
			delete(e.errors, id)
		}
	}
	for id := range e.remote {
		if !live[id] {
			delete(e.remote, id)
		}
	}
}

// refreshErrors re-checks every variant that currently has an error, ids,
// and every variant sharing a SKU with one of ids. Local rules win over a
// remote SKU verdict, which only stands while the variant still carries the
// SKU it was issued for.
func (e *Editor) refreshErrors(ids ...string) {
	check := make(map[string]bool, len(e.errors)+len(ids))
	for id := range e.errors {
		if id != ir.GlobalErrorKey {
			check[id] = true
		}
	}
	skuKeys := make(map[string]bool, len(ids))
	for _, id := range ids {
		check[id] = true
		if v, ok := e.Variant(id); ok {
			if key := SKUKey(v.SKU); key != "" {
				skuKeys[key] = true
			}
		}
	}
	if len(skuKeys) > 0 {
		for _, v := range e.variants {
			if skuKeys[SKUKey(v.SKU)] {
				check[v.ID] = true
			}
		}
	}
	if len(check) == 0 {
		return
	}

	local := ValidateAll(e.variants)
	for id := range check {
		if msg, ok := local[id]; ok {
			e.errors[id] = msg
			continue
		}
		if verdict, ok := e.remote[id]; ok {
			if cur, found := e.Variant(id); found && strings.TrimSpace(cur.SKU) == strings.TrimSpace(verdict.SKU) {
				e.errors[id] = verdict.Message
				continue
			}
			delete(e.remote, id)
		}
		delete(e.errors, id)
	}
}

// setVariantErrors replaces all per-variant errors with failures, keeping
// the global entry and any standing remote verdicts.
func (e *Editor) setVariantErrors(failures map[string]string) {
	for id := range e.errors {
		if id != ir.GlobalErrorKey {
			delete(e.errors, id)
		}
	}
	for id, msg := range failures {
		e.errors[id] = msg
	}
	for id, verdict := range e.remote {
		if _, ok := e.errors[id]; ok {
			continue
		}
		if cur, found := e.Variant(id); found && strings.TrimSpace(cur.SKU) == strings.TrimSpace(verdict.SKU) {
			e.errors[id] = verdict.Message
			continue
		}
		delete(e.remote, id)
	}
}

// sameIDs reports whether a and b list the same variant ids in order.
func sameIDs(a, b []ir.Variant) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// errorMessage extracts the operator-facing message of err.
func errorMessage(err error) string {
	var me *MatrixError
	if errors.As(err, &me) {
		return me.Message
	}
	return err.Error()
}
