package boardapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lexboard/internal/board"
	apperrors "lexboard/internal/errors"
	"lexboard/internal/httputil"
	"lexboard/internal/logger"
)

// ErrInvalidSnapshot marks a board payload that failed boundary validation.
// The poll cycle that hit it keeps the previous model.
var ErrInvalidSnapshot = errors.New("invalid board snapshot")

// Client talks to the lexboard server's REST API. Reads go through the
// retrying client; mutations use a zero-retry client because a replayed POST
// that already landed server-side would apply twice. Client implements
// board.Remote.
type Client struct {
	baseURL  string
	email    string
	token    string
	boardKey string
	reads    *httputil.RetryableClient
	writes   *httputil.RetryableClient
}

// NewClient returns a client bound to one board. serverURL may carry a
// trailing slash. boardKey may be empty for account-level calls only
// (ListBoards), as during setup.
func NewClient(serverURL, email, token, boardKey string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(serverURL, "/"),
		email:    email,
		token:    token,
		boardKey: boardKey,
		reads:    httputil.NewDefaultClient(),
		writes:   httputil.NewMutationClient(),
	}
}

func (c *Client) url(format string, args ...interface{}) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// authorize attaches the bearer token and account email headers every
// endpoint expects.
func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Account-Email", c.email)
}

// BoardInfo is one entry of the server's board listing.
type BoardInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ListBoards fetches the boards visible to the account. Used by the setup
// wizard both as a connectivity check and to let the user pick a board.
func (c *Client) ListBoards(ctx context.Context) ([]BoardInfo, error) {
	req, err := httputil.NewJSONRequest("GET", c.url("/api/v1/boards"), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var resp struct {
		Boards []BoardInfo `json:"boards"`
	}
	if err := c.reads.DoJSON(ctx, req, &resp); err != nil {
		return nil, apperrors.WrapWithContext(err, "board_list")
	}
	return resp.Boards, nil
}

// Wire shapes for the snapshot endpoint.
type snapshotPayload struct {
	Columns []columnPayload `json:"columns"`
}

type columnPayload struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Rank  int           `json:"rank"`
	Cards []cardPayload `json:"cards"`
}

type cardPayload struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Number string `json:"number"`
	Body   string `json:"body"`
	Rank   int    `json:"rank"`
}

// FetchBoard retrieves and validates a full snapshot of the bound board.
// Validation failures return ErrInvalidSnapshot (wrapped); the caller treats
// that as a failed poll cycle and keeps its current model. Ranks are passed
// through as received; reconciliation renumbers them.
func (c *Client) FetchBoard(ctx context.Context) (*board.Board, error) {
	req, err := httputil.NewJSONRequest("GET", c.url("/api/v1/boards/%s", c.boardKey), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var payload snapshotPayload
	if err := c.reads.DoJSON(ctx, req, &payload); err != nil {
		return nil, apperrors.WrapWithContext(err, "board_fetch")
	}

	snapshot, err := buildSnapshot(c.boardKey, payload)
	if err != nil {
		logger.Sync("Rejected snapshot for %s: %v", c.boardKey, err)
		return nil, err
	}
	return snapshot, nil
}

// buildSnapshot converts the wire payload into a Board, enforcing the
// boundary rules: columns must be present, every identity non-empty and
// unique within its kind. Anything off invalidates the whole snapshot.
func buildSnapshot(key string, payload snapshotPayload) (*board.Board, error) {
	if payload.Columns == nil {
		return nil, fmt.Errorf("%w: missing columns", ErrInvalidSnapshot)
	}

	b := board.New(key)
	colIDs := make(map[string]bool, len(payload.Columns))
	cardIDs := make(map[string]bool)
	for _, col := range payload.Columns {
		if col.ID == "" {
			return nil, fmt.Errorf("%w: column with empty id", ErrInvalidSnapshot)
		}
		if colIDs[col.ID] {
			return nil, fmt.Errorf("%w: duplicate column id %q", ErrInvalidSnapshot, col.ID)
		}
		colIDs[col.ID] = true

		column := board.Column{ID: col.ID, Title: col.Title, Rank: col.Rank}
		for _, card := range col.Cards {
			if card.ID == "" {
				return nil, fmt.Errorf("%w: card with empty id in column %q", ErrInvalidSnapshot, col.ID)
			}
			if cardIDs[card.ID] {
				return nil, fmt.Errorf("%w: duplicate card id %q", ErrInvalidSnapshot, card.ID)
			}
			cardIDs[card.ID] = true
			column.Cards = append(column.Cards, board.Card{
				ID:       card.ID,
				Title:    card.Title,
				Number:   card.Number,
				Body:     card.Body,
				ColumnID: col.ID,
				Rank:     card.Rank,
			})
		}
		b.Columns = append(b.Columns, column)
	}
	return b, nil
}

// CreateColumn implements board.Remote. Columns are created at the end of
// the bound board; the server assigns the rank.
func (c *Client) CreateColumn(ctx context.Context, title string) (board.Created, error) {
	req, err := httputil.NewJSONRequest("POST", c.url("/api/v1/boards/%s/columns", c.boardKey), map[string]string{"title": title})
	if err != nil {
		return board.Created{}, err
	}
	c.authorize(req)

	var resp struct {
		ID   string `json:"id"`
		Rank int    `json:"rank"`
	}
	if err := c.writes.DoJSON(ctx, req, &resp); err != nil {
		return board.Created{}, err
	}
	return board.Created{ID: resp.ID, Rank: resp.Rank}, nil
}

// RenameColumn implements board.Remote.
func (c *Client) RenameColumn(ctx context.Context, id, title string) error {
	req, err := httputil.NewJSONRequest("PATCH", c.url("/api/v1/columns/%s", id), map[string]string{"title": title})
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.writes.DoJSON(ctx, req, nil)
}

// DeleteColumn implements board.Remote. The server drops the column's cards
// with it.
func (c *Client) DeleteColumn(ctx context.Context, id string) error {
	req, err := httputil.NewJSONRequest("DELETE", c.url("/api/v1/columns/%s", id), nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.writes.DoJSON(ctx, req, nil)
}

// CreateCard implements board.Remote. A duplicate title or number within the
// board comes back as a ConflictError.
func (c *Client) CreateCard(ctx context.Context, columnID string, draft board.CardDraft) (board.Created, error) {
	payload := map[string]string{"title": draft.Title}
	if draft.Number != "" {
		payload["number"] = draft.Number
	}
	if draft.Body != "" {
		payload["body"] = draft.Body
	}
	req, err := httputil.NewJSONRequest("POST", c.url("/api/v1/columns/%s/cards", columnID), payload)
	if err != nil {
		return board.Created{}, err
	}
	c.authorize(req)

	var resp struct {
		ID   string `json:"id"`
		Rank int    `json:"rank"`
	}
	if err := c.writes.DoJSON(ctx, req, &resp); err != nil {
		return board.Created{}, err
	}
	return board.Created{ID: resp.ID, Rank: resp.Rank}, nil
}

// UpdateCard implements board.Remote.
func (c *Client) UpdateCard(ctx context.Context, id string, patch board.CardPatch) error {
	payload := map[string]string{}
	if patch.Title != nil {
		payload["title"] = *patch.Title
	}
	if patch.Number != nil {
		payload["number"] = *patch.Number
	}
	if patch.Body != nil {
		payload["body"] = *patch.Body
	}
	req, err := httputil.NewJSONRequest("PATCH", c.url("/api/v1/cards/%s", id), payload)
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.writes.DoJSON(ctx, req, nil)
}

// MoveCard implements board.Remote. The server recomputes sibling ranks; the
// next snapshot carries the authoritative order.
func (c *Client) MoveCard(ctx context.Context, id, targetColumnID string, rank int) error {
	payload := map[string]interface{}{"column_id": targetColumnID, "rank": rank}
	req, err := httputil.NewJSONRequest("POST", c.url("/api/v1/cards/%s/move", id), payload)
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.writes.DoJSON(ctx, req, nil)
}

// DeleteCard implements board.Remote.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	req, err := httputil.NewJSONRequest("DELETE", c.url("/api/v1/cards/%s", id), nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.writes.DoJSON(ctx, req, nil)
}
