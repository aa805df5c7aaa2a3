package board

import (
	"context"
	"strings"

	"lexboard/internal/errors"
)

// Remote is the slice of the board service the dispatcher drives. The concrete
// client lives elsewhere; the dispatcher only needs the mutation calls.
type Remote interface {
	CreateColumn(ctx context.Context, title string) (Created, error)
	RenameColumn(ctx context.Context, id, title string) error
	DeleteColumn(ctx context.Context, id string) error
	CreateCard(ctx context.Context, columnID string, draft CardDraft) (Created, error)
	UpdateCard(ctx context.Context, id string, patch CardPatch) error
	MoveCard(ctx context.Context, id, targetColumnID string, rank int) error
	DeleteCard(ctx context.Context, id string) error
}

// Created is the server's answer to a create call.
type Created struct {
	ID   string
	Rank int
}

// CardDraft carries the fields for a new card.
type CardDraft struct {
	Title  string
	Number string
	Body   string
}

// CardPatch carries the changed fields for an update; nil means untouched.
type CardPatch struct {
	Title  *string
	Number *string
	Body   *string
}

// Operation kinds, used for logging and for resolving create results.
const (
	OpMoveCard     = "move_card"
	OpCreateColumn = "create_column"
	OpRenameColumn = "rename_column"
	OpDeleteColumn = "delete_column"
	OpCreateCard   = "create_card"
	OpUpdateCard   = "update_card"
	OpDeleteCard   = "delete_card"
)

// Op is one in-flight remote mutation. The event loop runs Do off the update
// path and feeds the outcome back through Dispatcher.Resolve.
type Op struct {
	Kind     string
	EntityID string // identity whose pending marker this op holds
	Seq      uint64
	run      func(context.Context) (Created, error)
}

// Do issues the remote call.
func (o Op) Do(ctx context.Context) (Created, error) {
	return o.run(ctx)
}

// Dispatcher turns structural board mutations into remote calls. Each
// operation applies the optimistic local mutation first (the move already
// happened during the drag), registers a pending marker so racing polls keep
// their hands off the identity, and hands back an Op for the event loop to
// run. Nothing here blocks.
type Dispatcher struct {
	remote  Remote
	pending *Tracker
}

// NewDispatcher wires a dispatcher to a remote and a shared pending tracker.
func NewDispatcher(remote Remote, pending *Tracker) *Dispatcher {
	return &Dispatcher{remote: remote, pending: pending}
}

// MoveCard dispatches the remote call for a drop the drag controller already
// applied to the model. The requested rank is the card's post-move rank, so
// the server lands siblings exactly where the user sees them.
func (d *Dispatcher) MoveCard(b *Board, cardID string) (Op, bool) {
	ci, xi, ok := b.FindCard(cardID)
	if !ok {
		return Op{}, false
	}
	columnID := b.Columns[ci].ID
	rank := xi + 1

	seq := d.pending.Mark(cardID)
	return Op{
		Kind:     OpMoveCard,
		EntityID: cardID,
		Seq:      seq,
		run: func(ctx context.Context) (Created, error) {
			return Created{}, d.remote.MoveCard(ctx, cardID, columnID, rank)
		},
	}, true
}

// CreateColumn appends an optimistic placeholder column and dispatches the
// create. The placeholder carries a local identity until Resolve swaps in the
// server's.
func (d *Dispatcher) CreateColumn(b *Board, title string) (Op, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Op{}, false
	}

	localID := NewLocalID()
	b.AppendColumn(Column{ID: localID, Title: title})

	seq := d.pending.Mark(localID)
	return Op{
		Kind:     OpCreateColumn,
		EntityID: localID,
		Seq:      seq,
		run: func(ctx context.Context) (Created, error) {
			return d.remote.CreateColumn(ctx, title)
		},
	}, true
}

// RenameColumn applies the title locally and dispatches the rename.
func (d *Dispatcher) RenameColumn(b *Board, columnID, title string) (Op, bool) {
	title = strings.TrimSpace(title)
	if title == "" || !b.RenameColumn(columnID, title) {
		return Op{}, false
	}

	seq := d.pending.Mark(columnID)
	return Op{
		Kind:     OpRenameColumn,
		EntityID: columnID,
		Seq:      seq,
		run: func(ctx context.Context) (Created, error) {
			return Created{}, d.remote.RenameColumn(ctx, columnID, title)
		},
	}, true
}

// DeleteColumn removes the column (and its cards) locally and dispatches the
// delete. The pending marker shields the absence: a racing snapshot cannot
// resurrect the column this cycle.
func (d *Dispatcher) DeleteColumn(b *Board, columnID string) (Op, bool) {
	if !b.RemoveColumn(columnID) {
		return Op{}, false
	}

	seq := d.pending.Mark(columnID)
	return Op{
		Kind:     OpDeleteColumn,
		EntityID: columnID,
		Seq:      seq,
		run: func(ctx context.Context) (Created, error) {
			return Created{}, d.remote.DeleteColumn(ctx, columnID)
		},
	}, true
}

// CreateCard appends an optimistic placeholder card at the end of the column
// and dispatches the create.
func (d *Dispatcher) CreateCard(b *Board, columnID string, draft CardDraft) (Op, bool) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return Op{}, false
	}

	localID := NewLocalID()
	if !b.AppendCard(columnID, Card{
		ID:     localID,
		Title:  draft.Title,
		Number: draft.Number,
		Body:   draft.Body,
	}) {
		return Op{}, false
	}

	seq := d.pending.Mark(localID)
	return Op{
		Kind:     OpCreateCard,
		EntityID: localID,
		Seq:      seq,
		run: func(ctx context.Context) (Created, error) {
			return d.remote.CreateCard(ctx, columnID, draft)
		},
	}, true
}

// UpdateCard applies the patch locally and dispatches the update. An empty
// patch is a no-op and emits nothing.
func (d *Dispatcher) UpdateCard(b *Board, cardID string, patch CardPatch) (Op, bool) {
	if patch.Title == nil && patch.Number == nil && patch.Body == nil {
		return Op{}, false
	}
	if !b.UpdateCard(cardID, patch.Title, patch.Number, patch.Body) {
		return Op{}, false
	}

	seq := d.pending.Mark(cardID)
	return Op{
		Kind:     OpUpdateCard,
		EntityID: cardID,
		Seq:      seq,
		run: func(ctx context.Context) (Created, error) {
			return Created{}, d.remote.UpdateCard(ctx, cardID, patch)
		},
	}, true
}

// DeleteCard removes the card locally and dispatches the delete.
func (d *Dispatcher) DeleteCard(b *Board, cardID string) (Op, bool) {
	if !b.RemoveCard(cardID) {
		return Op{}, false
	}

	seq := d.pending.Mark(cardID)
	return Op{
		Kind:     OpDeleteCard,
		EntityID: cardID,
		Seq:      seq,
		run: func(ctx context.Context) (Created, error) {
			return Created{}, d.remote.DeleteCard(ctx, cardID)
		},
	}, true
}

// Resolve feeds a completed op's outcome back into the model and tracker.
//
// Success clears the pending marker, but only if this op still holds the
// identity's newest sequence; a superseded call's result is discarded. Create
// successes also swap the placeholder identity for the server's.
//
// Failure keeps the marker (the next polls self-heal via abandonment), except
// a uniqueness conflict: the server definitively rejected that intent, so the
// marker is released and the next snapshot clears the optimistic insert.
// The returned error is the caller's to surface; the optimistic mutation is
// never rolled back here.
func (d *Dispatcher) Resolve(b *Board, op Op, created Created, err error) error {
	if err != nil {
		if errors.IsConflict(err) {
			d.pending.Ack(op.EntityID, op.Seq)
		}
		return err
	}

	switch op.Kind {
	case OpCreateCard:
		if created.ID != "" {
			b.AdoptCardID(op.EntityID, created.ID)
		}
	case OpCreateColumn:
		if created.ID != "" {
			b.AdoptColumnID(op.EntityID, created.ID)
		}
	}

	d.pending.Ack(op.EntityID, op.Seq)
	return nil
}
