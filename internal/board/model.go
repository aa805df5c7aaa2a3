package board

import (
	"strings"

	"github.com/google/uuid"
)

// Card is one work item on the board. Display fields live on the card value
// itself so a repaint never needs a server round trip.
type Card struct {
	ID       string
	Title    string
	Number   string // optional display number, e.g. "MAT-1042"
	Body     string // free-form notes
	ColumnID string
	Rank     int
}

// Column is an ordered run of cards and the unit of drop target for a move.
type Column struct {
	ID    string
	Title string
	Rank  int
	Cards []Card
}

// Board is the full kanban structure for one work context. It is owned by a
// single event loop; none of its methods are safe for concurrent use.
type Board struct {
	Key     string
	Columns []Column
}

// New returns an empty board for the given key. The first applied snapshot
// populates it.
func New(key string) *Board {
	return &Board{Key: key}
}

// localIDPrefix marks identities minted client-side for optimistic inserts
// that the server has not confirmed yet.
const localIDPrefix = "local-"

// NewLocalID mints a placeholder identity for an optimistic insert.
func NewLocalID() string {
	return localIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was minted client-side and is still awaiting
// its server identity.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// Column returns the column with the given id, or nil.
func (b *Board) Column(id string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// FindCard locates a card by id. Card identities are unique board-wide, so the
// first hit is the only hit.
func (b *Board) FindCard(id string) (colIdx, cardIdx int, ok bool) {
	for ci := range b.Columns {
		for xi := range b.Columns[ci].Cards {
			if b.Columns[ci].Cards[xi].ID == id {
				return ci, xi, true
			}
		}
	}
	return 0, 0, false
}

// Card returns the card with the given id, or nil.
func (b *Board) Card(id string) *Card {
	ci, xi, ok := b.FindCard(id)
	if !ok {
		return nil
	}
	return &b.Columns[ci].Cards[xi]
}

// CardCount returns the number of cards across all columns.
func (b *Board) CardCount() int {
	n := 0
	for i := range b.Columns {
		n += len(b.Columns[i].Cards)
	}
	return n
}

// MoveCard performs the atomic local move: remove the card from its source
// column, insert it into the target column at targetIndex (the final resting
// index, counted with the card already removed), and renumber ranks in every
// touched column. Both columns renumber on a cross-column move because the
// source's downstream siblings shift too.
//
// A missing card or target column is a no-op, as is a drop back onto the
// card's own position. Returns whether the board changed.
func (b *Board) MoveCard(cardID, targetColumnID string, targetIndex int) bool {
	srcIdx, cardIdx, ok := b.FindCard(cardID)
	if !ok {
		return false
	}
	target := b.Column(targetColumnID)
	if target == nil {
		return false
	}
	src := &b.Columns[srcIdx]

	if src.ID == target.ID {
		max := len(src.Cards) - 1
		if targetIndex < 0 {
			targetIndex = 0
		}
		if targetIndex > max {
			targetIndex = max
		}
		if targetIndex == cardIdx {
			return false
		}
	} else {
		if targetIndex < 0 {
			targetIndex = 0
		}
		if targetIndex > len(target.Cards) {
			targetIndex = len(target.Cards)
		}
	}

	// remove-then-insert: the card is never in two columns at once
	card := src.Cards[cardIdx]
	src.Cards = append(src.Cards[:cardIdx], src.Cards[cardIdx+1:]...)

	target.Cards = append(target.Cards, Card{})
	copy(target.Cards[targetIndex+1:], target.Cards[targetIndex:])
	target.Cards[targetIndex] = card

	src.renumber()
	if src.ID != target.ID {
		target.renumber()
	}
	return true
}

// AppendCard adds a card to the end of a column, assigning the next rank.
// Used for optimistic creates. Returns false if the column does not exist.
func (b *Board) AppendCard(columnID string, card Card) bool {
	col := b.Column(columnID)
	if col == nil {
		return false
	}
	col.Cards = append(col.Cards, card)
	col.renumber()
	return true
}

// RemoveCard deletes a card and renumbers its column. Returns false if the
// card does not exist.
func (b *Board) RemoveCard(cardID string) bool {
	ci, xi, ok := b.FindCard(cardID)
	if !ok {
		return false
	}
	col := &b.Columns[ci]
	col.Cards = append(col.Cards[:xi], col.Cards[xi+1:]...)
	col.renumber()
	return true
}

// UpdateCard applies non-nil fields to a card in place. Returns false if the
// card does not exist.
func (b *Board) UpdateCard(cardID string, title, number, body *string) bool {
	card := b.Card(cardID)
	if card == nil {
		return false
	}
	if title != nil {
		card.Title = *title
	}
	if number != nil {
		card.Number = *number
	}
	if body != nil {
		card.Body = *body
	}
	return true
}

// AppendColumn adds a column at the end of the board, assigning the next rank.
func (b *Board) AppendColumn(col Column) {
	b.Columns = append(b.Columns, col)
	b.renumberColumns()
	b.Columns[len(b.Columns)-1].renumber()
}

// RemoveColumn deletes a column and all of its cards, then renumbers the rest.
func (b *Board) RemoveColumn(id string) bool {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			b.Columns = append(b.Columns[:i], b.Columns[i+1:]...)
			b.renumberColumns()
			return true
		}
	}
	return false
}

// RenameColumn sets a column's title. Returns false if the column does not
// exist.
func (b *Board) RenameColumn(id, title string) bool {
	col := b.Column(id)
	if col == nil {
		return false
	}
	col.Title = title
	return true
}

// AdoptCardID rewrites a placeholder card's identity once the server confirms
// the create. If the confirmed identity already arrived via a poll the
// placeholder is simply dropped so the card never shows twice.
func (b *Board) AdoptCardID(localID, serverID string) {
	if _, _, exists := b.FindCard(serverID); exists {
		b.RemoveCard(localID)
		return
	}
	if card := b.Card(localID); card != nil {
		card.ID = serverID
	}
}

// AdoptColumnID rewrites a placeholder column's identity once the server
// confirms the create, re-homing its cards' owning identity.
func (b *Board) AdoptColumnID(localID, serverID string) {
	if existing := b.Column(serverID); existing != nil {
		b.RemoveColumn(localID)
		return
	}
	col := b.Column(localID)
	if col == nil {
		return
	}
	col.ID = serverID
	col.renumber()
}

// Clone returns a deep copy. The renderer and tests can hold one without
// aliasing live state.
func (b *Board) Clone() *Board {
	out := &Board{Key: b.Key, Columns: make([]Column, len(b.Columns))}
	for i := range b.Columns {
		src := b.Columns[i]
		col := src
		col.Cards = make([]Card, len(src.Cards))
		copy(col.Cards, src.Cards)
		out.Columns[i] = col
	}
	return out
}

// renumber restores the 1..N contiguous rank invariant within the column and
// keeps every card's owning-column identity honest.
func (c *Column) renumber() {
	for i := range c.Cards {
		c.Cards[i].Rank = i + 1
		c.Cards[i].ColumnID = c.ID
	}
}

// renumberColumns restores contiguous column ranks in display order.
func (b *Board) renumberColumns() {
	for i := range b.Columns {
		b.Columns[i].Rank = i + 1
	}
}
