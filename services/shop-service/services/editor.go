package services

import (
	"context"
	"errors"

	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
)

type EditorMode int

const (
	EditorClosed EditorMode = iota
	EditorOpenCreate
	EditorOpenEdit
)

var ErrEditorClosed = errors.New("editor is not open")

// EditorBinding connects an Editor to one collection.
type EditorBinding[F any, R any] interface {
	Namespace() string
	// SingleImage bindings keep at most one image; staging a file replaces it.
	SingleImage() bool
	// Check runs reference validation that needs remote data, e.g. that a team exists.
	Check(ctx context.Context, form F) (map[string]string, error)
	Create(ctx context.Context, form F, images []string) error
	Update(ctx context.Context, id string, form F, images []string) error
	List(ctx context.Context) ([]R, error)
}

// Editor is the create/edit state machine behind the admin forms:
// Closed, OpenCreate, or OpenEdit(id). A failed Submit leaves it open with
// the submitted form so the caller can correct and resubmit.
type Editor[F any, R any] struct {
	binding    EditorBinding[F, R]
	reconciler *Reconciler
	validator  *Validator
	defaults   F

	mode     EditorMode
	editID   string
	form     F
	existing []string
	removed  []string
	files    []FileBlob
}

func NewEditor[F any, R any](binding EditorBinding[F, R], reconciler *Reconciler, validator *Validator, defaults F) *Editor[F, R] {
	return &Editor[F, R]{
		binding:    binding,
		reconciler: reconciler,
		validator:  validator,
		defaults:   defaults,
		form:       defaults,
	}
}

func (e *Editor[F, R]) Mode() EditorMode  { return e.mode }
func (e *Editor[F, R]) EditingID() string { return e.editID }
func (e *Editor[F, R]) Form() F           { return e.form }

// Images is the image list a submit would start from, minus staged removals.
func (e *Editor[F, R]) Images() []string {
	removed := make(map[string]struct{}, len(e.removed))
	for _, r := range e.removed {
		removed[r] = struct{}{}
	}
	out := make([]string, 0, len(e.existing))
	for _, ref := range e.existing {
		if _, ok := removed[ref]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

func (e *Editor[F, R]) reset() {
	e.editID = ""
	e.form = e.defaults
	e.existing = nil
	e.removed = nil
	e.files = nil
}

func (e *Editor[F, R]) OpenCreate() {
	e.reset()
	e.mode = EditorOpenCreate
}

func (e *Editor[F, R]) OpenEdit(id string, form F, images []string) {
	e.reset()
	e.mode = EditorOpenEdit
	e.editID = id
	e.form = form
	e.existing = append([]string(nil), images...)
}

// Cancel discards the form and staged changes. Nothing remote is touched.
func (e *Editor[F, R]) Cancel() {
	e.reset()
	e.mode = EditorClosed
}

func (e *Editor[F, R]) StageFiles(files ...FileBlob) error {
	if e.mode == EditorClosed {
		return ErrEditorClosed
	}
	if len(files) == 0 {
		return nil
	}
	if e.binding.SingleImage() {
		e.files = []FileBlob{files[len(files)-1]}
		e.removed = append([]string(nil), e.existing...)
		return nil
	}
	e.files = append(e.files, files...)
	return nil
}

func (e *Editor[F, R]) StageRemoval(refs ...string) error {
	if e.mode == EditorClosed {
		return ErrEditorClosed
	}
	for _, ref := range refs {
		if ref != "" {
			e.removed = append(e.removed, ref)
		}
	}
	return nil
}

// Submit validates form, reconciles images, writes the record and returns the
// re-listed collection. Validation failures never reach the object store or
// the gateway's write path.
func (e *Editor[F, R]) Submit(ctx context.Context, form F) ([]R, error) {
	if e.mode == EditorClosed {
		return nil, ErrEditorClosed
	}
	e.form = form

	if err := e.validator.Struct(ctx, form); err != nil {
		return nil, err
	}
	fields, err := e.binding.Check(ctx, form)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError(fields)
	}

	images, err := e.reconciler.Reconcile(ctx, e.binding.Namespace(), e.existing, e.removed, e.files)
	if err != nil {
		return nil, err
	}

	if e.mode == EditorOpenEdit {
		err = e.binding.Update(ctx, e.editID, form, images)
	} else {
		err = e.binding.Create(ctx, form, images)
	}
	if err != nil {
		// uploaded refs become the baseline for a resubmit
		e.existing, e.removed, e.files = images, nil, nil
		return nil, err
	}

	e.Cancel()
	return e.binding.List(ctx)
}
