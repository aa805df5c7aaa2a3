package board

import "sort"

// Reconcile merges a freshly fetched snapshot into the local board and returns
// the new authoritative model. The snapshot wins for every identity except the
// ones carrying a pending marker:
//
//   - no marker: the snapshot's version replaces the local one outright. This
//     is the common case and is how other users' edits and implicit deletes
//     (absence from the snapshot) propagate in.
//   - marker on an identity present locally: the local optimistic value is
//     kept for this cycle and the snapshot's version is discarded, so an
//     in-flight move cannot rubber-band back to its pre-move position.
//   - marker on an identity absent locally: a pending delete. The snapshot's
//     version is discarded too; the entity stays gone this cycle.
//
// Ranks travel verbatim with whichever version won, then columns and cards are
// re-sorted by rank and renumbered 1..N so the result is one consistent board.
// Ties favor the local value: a card the user just dropped at rank 1 sorts
// ahead of the snapshot card still claiming rank 1.
//
// Callers sweep the tracker first so abandoned markers no longer shield stale
// values. Neither input is mutated.
func Reconcile(local, snapshot *Board, pending *Tracker) *Board {
	out := &Board{Key: local.Key}
	if out.Key == "" {
		out.Key = snapshot.Key
	}

	type rankedColumn struct {
		col      Column
		fromPend bool
	}
	var cols []rankedColumn

	for _, sc := range snapshot.Columns {
		if pending.Pending(sc.ID) {
			continue
		}
		col := sc
		col.Cards = nil
		cols = append(cols, rankedColumn{col: col})
	}
	for _, lc := range local.Columns {
		if !pending.Pending(lc.ID) {
			continue
		}
		col := lc
		col.Cards = nil
		cols = append(cols, rankedColumn{col: col, fromPend: true})
	}

	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].col.Rank != cols[j].col.Rank {
			return cols[i].col.Rank < cols[j].col.Rank
		}
		return cols[i].fromPend && !cols[j].fromPend
	})

	out.Columns = make([]Column, 0, len(cols))
	colIdx := make(map[string]int, len(cols))
	for _, rc := range cols {
		colIdx[rc.col.ID] = len(out.Columns)
		out.Columns = append(out.Columns, rc.col)
	}

	type rankedCard struct {
		card     Card
		fromPend bool
	}
	byColumn := make(map[string][]rankedCard, len(cols))

	// Pending cards first so a rank tie resolves in the user's favor.
	for _, lc := range local.Columns {
		for _, card := range lc.Cards {
			if !pending.Pending(card.ID) {
				continue
			}
			c := card
			c.ColumnID = lc.ID
			byColumn[lc.ID] = append(byColumn[lc.ID], rankedCard{card: c, fromPend: true})
		}
	}
	for _, sc := range snapshot.Columns {
		for _, card := range sc.Cards {
			if pending.Pending(card.ID) {
				continue
			}
			c := card
			c.ColumnID = sc.ID
			byColumn[sc.ID] = append(byColumn[sc.ID], rankedCard{card: c})
		}
	}

	for id, cards := range byColumn {
		idx, ok := colIdx[id]
		if !ok {
			// The owning column did not survive the merge; deleting a column
			// removes its cards, so these go with it.
			continue
		}
		sort.SliceStable(cards, func(i, j int) bool {
			if cards[i].card.Rank != cards[j].card.Rank {
				return cards[i].card.Rank < cards[j].card.Rank
			}
			return cards[i].fromPend && !cards[j].fromPend
		})
		col := &out.Columns[idx]
		col.Cards = make([]Card, len(cards))
		for i, rc := range cards {
			col.Cards[i] = rc.card
		}
	}

	out.renumberColumns()
	for i := range out.Columns {
		out.Columns[i].renumber()
	}
	return out
}

// Equal reports whether two boards hold the same value: same key, same
// columns in the same order, same cards with the same fields and ranks.
func Equal(a, b *Board) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Key != b.Key || len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		ca, cb := a.Columns[i], b.Columns[i]
		if ca.ID != cb.ID || ca.Title != cb.Title || ca.Rank != cb.Rank || len(ca.Cards) != len(cb.Cards) {
			return false
		}
		for j := range ca.Cards {
			if ca.Cards[j] != cb.Cards[j] {
				return false
			}
		}
	}
	return true
}
