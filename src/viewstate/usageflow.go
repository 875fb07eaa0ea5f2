package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"feature-dashboard/src/models"
)

// FlowState is the state of a usage table's edit/delete flow
type FlowState string

const (
	FlowIdle           FlowState = "idle"
	FlowEditingRow     FlowState = "editing-row"
	FlowConfirmPending FlowState = "confirm-pending"
	FlowError          FlowState = "error"
)

// Dialog texts and button labels
const (
	BlockingMessage = "Du arbeitest gerade an etwas... Bitte beende das, bevor du etwas anderes machst."

	LabelCancel  = "Abbrechen"
	LabelSave    = "Speichern"
	LabelDelete  = "Löschen"
	LabelOkay    = "Okay"
	verbActivate = "aktivieren"
	verbDisable  = "deaktivieren"
	verbDelete   = "löschen"
)

// ErrInvalidTransition is returned when an action does not apply to the current state
var ErrInvalidTransition = errors.New("action not allowed in current state")

// UsageMutator performs the writes confirmed in a usage flow
type UsageMutator interface {
	UpdateUsage(ctx context.Context, target models.UsageTarget, usage models.Usage) error
	DeleteUsage(ctx context.Context, target models.UsageTarget) error
}

type editRow struct {
	row     models.UsageRow
	working bool
}

// UsageFlow drives the edit/delete confirmation of one usage table (level).
// Delete and status edit share one dialog; an open edit row selects the edit path.
type UsageFlow struct {
	mu sync.Mutex

	level     models.TableView
	edit      *editRow
	unsaved   bool
	dialog    bool
	blocking  bool
	pending   *models.UsageToModifyOrDelete
	err       string
	onRefetch func()
}

// NewUsageFlow creates an idle flow for level. onRefetch runs after every confirmed write.
func NewUsageFlow(level models.TableView, onRefetch func()) *UsageFlow {
	return &UsageFlow{level: level, onRefetch: onRefetch}
}

// State returns the current flow state
func (f *UsageFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state()
}

func (f *UsageFlow) state() FlowState {
	switch {
	case f.err != "":
		return FlowError
	case f.dialog && !f.blocking:
		return FlowConfirmPending
	case f.edit != nil:
		return FlowEditingRow
	}
	return FlowIdle
}

// Edit selects row for status editing. Editing the open row again closes it;
// with an unsaved change the blocking dialog opens instead.
func (f *UsageFlow) Edit(row models.UsageRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state() {
	case FlowConfirmPending, FlowError:
		return ErrInvalidTransition
	}

	switch {
	case f.unsaved:
		f.dialog = true
		f.blocking = true
	case f.edit != nil && f.edit.row.RowID == row.RowID:
		f.close()
	default:
		f.edit = &editRow{row: row, working: row.Active}
	}
	return nil
}

// Toggle flips the working active flag of the edit row
func (f *UsageFlow) Toggle() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state() != FlowEditingRow || f.dialog {
		return ErrInvalidTransition
	}
	f.edit.working = !f.edit.working
	f.unsaved = f.edit.working != f.edit.row.Active
	return nil
}

// RequestSave opens the confirmation dialog for the edit row. It needs an unsaved change.
func (f *UsageFlow) RequestSave() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state() != FlowEditingRow || f.dialog || !f.unsaved {
		return ErrInvalidTransition
	}

	usage := f.edit.row.Usage
	usage.Active = f.edit.working
	f.pending = f.subject(f.edit.row, usage, verbFor(f.edit.working))
	f.dialog = true
	return nil
}

// RequestDelete opens the confirmation dialog for deleting row. While an
// unsaved change exists the blocking dialog opens instead; a clean edit row is left.
func (f *UsageFlow) RequestDelete(row models.UsageRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state() {
	case FlowConfirmPending, FlowError:
		return ErrInvalidTransition
	}

	if f.unsaved {
		f.dialog = true
		f.blocking = true
		return nil
	}

	f.edit = nil
	f.pending = f.subject(row, row.Usage, verbDelete)
	f.dialog = true
	return nil
}

// Confirm performs the pending write. On the blocking dialog it only closes the dialog.
func (f *UsageFlow) Confirm(ctx context.Context, mutator UsageMutator) error {
	f.mu.Lock()
	if f.blocking {
		f.dialog = false
		f.blocking = false
		f.mu.Unlock()
		return nil
	}
	if f.state() != FlowConfirmPending {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	pending := *f.pending
	isEdit := f.edit != nil
	f.mu.Unlock()

	var err error
	if isEdit {
		err = mutator.UpdateUsage(ctx, pending.UsageTarget, pending.Usage)
	} else {
		err = mutator.DeleteUsage(ctx, pending.UsageTarget)
	}

	f.mu.Lock()
	if err != nil {
		f.dialog = false
		f.err = errorMessage(err)
		f.mu.Unlock()
		return err
	}
	f.reset()
	refetch := f.onRefetch
	f.mu.Unlock()

	if refetch != nil {
		refetch()
	}
	return nil
}

// Cancel closes the dialog. Without an unsaved change the flow returns to idle,
// otherwise the edit row stays open.
func (f *UsageFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.close()
}

// Dismiss leaves the error state, discarding the failed action
func (f *UsageFlow) Dismiss() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err == "" {
		return ErrInvalidTransition
	}
	f.reset()
	return nil
}

// View returns the flow state for rendering
func (f *UsageFlow) View() models.UsageFlowView {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := models.UsageFlowView{
		State:         string(f.state()),
		UnsavedChange: f.unsaved,
		DialogOpen:    f.dialog,
		Error:         f.err,
	}
	if f.edit != nil {
		working := f.edit.working
		v.EditRow = f.edit.row.RowID
		v.WorkingActive = &working
	}
	switch {
	case f.blocking:
		v.DialogText = BlockingMessage
		v.ConfirmLabel = LabelOkay
	case f.dialog && f.pending != nil:
		pending := *f.pending
		v.Pending = &pending
		v.DialogText = pending.DescriptionText
		v.ConfirmLabel = LabelDelete
		if f.edit != nil {
			v.ConfirmLabel = LabelSave
		}
	}
	return v
}

func (f *UsageFlow) close() {
	f.dialog = false
	f.blocking = false
	f.pending = nil
	if !f.unsaved {
		f.edit = nil
	}
}

func (f *UsageFlow) reset() {
	f.edit = nil
	f.unsaved = false
	f.dialog = false
	f.blocking = false
	f.pending = nil
	f.err = ""
}

func (f *UsageFlow) subject(row models.UsageRow, usage models.Usage, verb string) *models.UsageToModifyOrDelete {
	return &models.UsageToModifyOrDelete{
		UsageTarget: models.UsageTarget{
			Level:           f.level,
			ID:              row.ID.LevelID(f.level),
			ConfigurationID: row.ID.ConfigurationID,
			DescriptionText: DescriptionText(f.level, row, verb),
		},
		Usage: usage,
	}
}

// DescriptionText is the confirmation question for a row on level
func DescriptionText(level models.TableView, row models.UsageRow, verb string) string {
	switch level {
	case models.TableViewCategory:
		return fmt.Sprintf("Willst du die Konfiguration auf der Kategorie %s wirklich %s?", row.CategoryName, verb)
	case models.TableViewTag:
		return fmt.Sprintf("Willst du die Konfiguration auf dem Tag %s wirklich %s?", row.TagName, verb)
	default:
		return fmt.Sprintf("Willst du die Konfiguration auf dem gesamten Mandanten wirklich %s?", verb)
	}
}

func verbFor(active bool) string {
	if active {
		return verbActivate
	}
	return verbDisable
}

// userMessage is implemented by errors carrying a message for the user
type userMessage interface {
	UserMessage() string
}

func errorMessage(err error) string {
	var um userMessage
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
