package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/varmatrix/internal/ir"
)

// SKUCheck is the answer of the external uniqueness lookup.
type SKUCheck struct {
	IsValid              bool   `json:"is_valid"`
	IsDuplicate          bool   `json:"is_duplicate"`
	ConflictingOwnerID   string `json:"conflicting_owner_id,omitempty"`
	ConflictingOwnerName string `json:"conflicting_owner_name,omitempty"`
}

// UniquenessChecker looks a SKU up across every owner (product) in the
// backing store, ignoring the variant excludingVariantID itself.
// Implemented by store.Store.
type UniquenessChecker interface {
	CheckSKUUnique(ctx context.Context, ownerID, sku, excludingVariantID string) (SKUCheck, error)
}

// VerdictSource tells which stage decided a verdict.
type VerdictSource string

const (
	// SourceLocal means the in-matrix duplicate check decided.
	SourceLocal VerdictSource = "local"
	// SourceRemote means the uniqueness collaborator decided.
	SourceRemote VerdictSource = "remote"
	// SourceSkipped means no owner id or checker was configured.
	SourceSkipped VerdictSource = "skipped"
	// SourceFailOpen means the collaborator failed and the SKU was accepted.
	SourceFailOpen VerdictSource = "fail_open"
)

// SKUVerdict is the settled result of one asynchronous SKU check.
type SKUVerdict struct {
	VariantID            string
	SKU                  string
	Valid                bool
	Message              string
	Source               VerdictSource
	ConflictingOwnerID   string
	ConflictingOwnerName string
}

// pendingCheck is the cancellation handle of the latest check per variant.
type pendingCheck struct {
	token  uint64
	cancel context.CancelFunc
}

// SKUValidator runs debounced, cancelable SKU uniqueness checks.
//
// Each variant id has at most one live check. Issuing a new check for the
// same id cancels the pending one; a superseded check closes its channel
// without delivering a verdict, so results cannot arrive out of order.
//
// Thread-safety: SKUValidator is safe for concurrent use.
type SKUValidator struct {
	checker  UniquenessChecker
	ownerID  string
	debounce time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	pending   map[string]*pendingCheck
	nextToken uint64
}

// SKUValidatorOption configures an SKUValidator.
type SKUValidatorOption func(*SKUValidator)

// WithDebounce sets the per-variant debounce window.
func WithDebounce(d time.Duration) SKUValidatorOption {
	return func(v *SKUValidator) {
		v.debounce = d
	}
}

// WithValidatorLogger sets the logger used for fail-open warnings.
func WithValidatorLogger(l *slog.Logger) SKUValidatorOption {
	return func(v *SKUValidator) {
		v.logger = l
	}
}

// NewSKUValidator creates a validator. checker may be nil and ownerID may be
// empty; either disables the remote lookup and leaves only the local check.
func NewSKUValidator(checker UniquenessChecker, ownerID string, opts ...SKUValidatorOption) *SKUValidator {
	v := &SKUValidator{
		checker:  checker,
		ownerID:  ownerID,
		debounce: DefaultSKUDebounce,
		logger:   slog.Default(),
		pending:  make(map[string]*pendingCheck),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateSKU schedules a check of sku for variantID against variants (the
// caller's current matrix) and, after the debounce window, the uniqueness
// collaborator. The returned channel yields exactly one verdict and closes,
// or closes without a verdict if the check is superseded or ctx ends.
//
// variants must not be modified after the call; matrix slices never are.
func (v *SKUValidator) ValidateSKU(ctx context.Context, sku, variantID string, variants []ir.Variant) <-chan SKUVerdict {
	out := make(chan SKUVerdict, 1)
	ctx, cancel := context.WithCancel(ctx)

	v.mu.Lock()
	if prev, ok := v.pending[variantID]; ok {
		prev.cancel()
	}
	v.nextToken++
	token := v.nextToken
	v.pending[variantID] = &pendingCheck{token: token, cancel: cancel}
	v.mu.Unlock()

	go func() {
		defer close(out)
		defer cancel()

		timer := time.NewTimer(v.debounce)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			v.release(variantID, token)
			return
		case <-timer.C:
		}

		verdict := v.check(ctx, sku, variantID, variants)

		v.mu.Lock()
		defer v.mu.Unlock()
		current, ok := v.pending[variantID]
		if !ok || current.token != token {
			return
		}
		delete(v.pending, variantID)
		if ctx.Err() != nil {
			return
		}
		out <- verdict
	}()

	return out
}

// release drops the pending entry if it still belongs to token.
func (v *SKUValidator) release(variantID string, token uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if current, ok := v.pending[variantID]; ok && current.token == token {
		delete(v.pending, variantID)
	}
}

// Cancel aborts the pending check for variantID, if any.
func (v *SKUValidator) Cancel(variantID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.pending[variantID]; ok {
		p.cancel()
		delete(v.pending, variantID)
	}
}

// CancelAll aborts every pending check.
func (v *SKUValidator) CancelAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, p := range v.pending {
		p.cancel()
		delete(v.pending, id)
	}
}

// Pending returns the number of checks not yet settled.
func (v *SKUValidator) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

// check runs the local duplicate scan, then the remote lookup.
func (v *SKUValidator) check(ctx context.Context, sku, variantID string, variants []ir.Variant) SKUVerdict {
	verdict := SKUVerdict{VariantID: variantID, SKU: sku, Valid: true, Source: SourceLocal}

	if strings.TrimSpace(sku) == "" {
		return verdict
	}
	if _, dup := FindDuplicateSKU(variants, sku, variantID); dup {
		verdict.Valid = false
		verdict.Message = fmt.Sprintf(msgDuplicateSKU, strings.TrimSpace(sku))
		return verdict
	}
	if v.checker == nil || v.ownerID == "" {
		verdict.Source = SourceSkipped
		return verdict
	}

	res, err := v.checker.CheckSKUUnique(ctx, v.ownerID, strings.TrimSpace(sku), variantID)
	if err != nil {
		if ctx.Err() == nil {
			v.logger.Warn("sku uniqueness lookup failed, accepting sku",
				"variant_id", variantID,
				"sku", sku,
				"error", err,
			)
		}
		verdict.Source = SourceFailOpen
		return verdict
	}

	verdict.Source = SourceRemote
	if res.IsDuplicate || !res.IsValid {
		verdict.Valid = false
		verdict.ConflictingOwnerID = res.ConflictingOwnerID
		verdict.ConflictingOwnerName = res.ConflictingOwnerName
		owner := res.ConflictingOwnerName
		if owner == "" {
			owner = "another product"
		}
		verdict.Message = fmt.Sprintf("SKU %q is already used by %s", strings.TrimSpace(sku), owner)
	}
	return verdict
}
