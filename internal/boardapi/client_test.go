package boardapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lexboard/internal/board"
	apperrors "lexboard/internal/errors"
)

func TestClient_FetchBoard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/boards/LEX" {
			t.Errorf("Expected path /api/v1/boards/LEX, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Expected bearer auth header, got %q", got)
		}
		if got := r.Header.Get("X-Account-Email"); got != "lawyer@firm.example" {
			t.Errorf("Expected account email header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"columns": [
				{"id": "col-1", "title": "Intake", "rank": 1, "cards": [
					{"id": "card-1", "title": "Draft engagement letter", "number": "MAT-1", "body": "", "rank": 1},
					{"id": "card-2", "title": "Conflict check", "number": "MAT-2", "body": "notes", "rank": 2}
				]},
				{"id": "col-2", "title": "Done", "rank": 2, "cards": []}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "lawyer@firm.example", "secret-token", "LEX")
	b, err := client.FetchBoard(context.Background())
	if err != nil {
		t.Fatalf("FetchBoard failed: %v", err)
	}

	if b.Key != "LEX" {
		t.Errorf("Expected board key LEX, got %q", b.Key)
	}
	if len(b.Columns) != 2 {
		t.Fatalf("Expected 2 columns, got %d", len(b.Columns))
	}
	if b.Columns[0].Title != "Intake" || len(b.Columns[0].Cards) != 2 {
		t.Errorf("Unexpected first column: %+v", b.Columns[0])
	}
	if got := b.Columns[0].Cards[1]; got.ID != "card-2" || got.Number != "MAT-2" || got.ColumnID != "col-1" {
		t.Errorf("Unexpected second card: %+v", got)
	}
}

func TestClient_FetchBoard_RejectsInvalidSnapshots(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing columns", `{}`},
		{"null columns", `{"columns": null}`},
		{"empty column id", `{"columns": [{"id": "", "title": "Intake", "rank": 1, "cards": []}]}`},
		{"duplicate column id", `{"columns": [{"id": "c1", "title": "A", "rank": 1, "cards": []}, {"id": "c1", "title": "B", "rank": 2, "cards": []}]}`},
		{"empty card id", `{"columns": [{"id": "c1", "title": "A", "rank": 1, "cards": [{"id": "", "title": "x", "rank": 1}]}]}`},
		{"duplicate card id across columns", `{"columns": [
			{"id": "c1", "title": "A", "rank": 1, "cards": [{"id": "k1", "title": "x", "rank": 1}]},
			{"id": "c2", "title": "B", "rank": 2, "cards": [{"id": "k1", "title": "y", "rank": 1}]}
		]}`},
		{"columns not an array", `{"columns": {"id": "c1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "a@b.c", "t", "LEX")
			_, err := client.FetchBoard(context.Background())
			if err == nil {
				t.Fatal("Expected snapshot to be rejected, got none")
			}
			// Shape errors surface as decode failures, content errors as
			// ErrInvalidSnapshot. Both fail the cycle; content errors must
			// carry the sentinel.
			if tt.name != "columns not an array" && !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("Expected ErrInvalidSnapshot, got: %v", err)
			}
		})
	}
}

func TestClient_CreateCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/v1/columns/col-1/cards" {
			t.Errorf("Expected POST /api/v1/columns/col-1/cards, got %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		if payload["title"] != "File motion" || payload["number"] != "MAT-9" {
			t.Errorf("Unexpected payload: %v", payload)
		}
		if _, ok := payload["body"]; ok {
			t.Error("Expected empty body to be omitted from payload")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "card-77", "rank": 3}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "a@b.c", "t", "LEX")
	created, err := client.CreateCard(context.Background(), "col-1", board.CardDraft{Title: "File motion", Number: "MAT-9"})
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if created.ID != "card-77" || created.Rank != 3 {
		t.Errorf("Unexpected created result: %+v", created)
	}
}

func TestClient_CreateCard_Conflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "duplicate", "field": "number", "detail": "MAT-9 already exists"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "a@b.c", "t", "LEX")
	_, err := client.CreateCard(context.Background(), "col-1", board.CardDraft{Title: "File motion", Number: "MAT-9"})
	if err == nil {
		t.Fatal("Expected conflict error, got none")
	}
	if !apperrors.IsConflict(err) {
		t.Errorf("Expected IsConflict for 409, got: %v", err)
	}
}

func TestClient_MoveCard(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/v1/cards/card-1/move" {
			t.Errorf("Expected POST /api/v1/cards/card-1/move, got %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "a@b.c", "t", "LEX")
	if err := client.MoveCard(context.Background(), "card-1", "col-2", 1); err != nil {
		t.Fatalf("MoveCard failed: %v", err)
	}
	if gotPayload["column_id"] != "col-2" {
		t.Errorf("Expected column_id col-2, got %v", gotPayload["column_id"])
	}
	if rank, ok := gotPayload["rank"].(float64); !ok || rank != 1 {
		t.Errorf("Expected rank 1, got %v", gotPayload["rank"])
	}
}

func TestClient_ColumnMutations(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.Method == "POST" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": "col-9", "rank": 4}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "a@b.c", "t", "LEX")
	ctx := context.Background()

	created, err := client.CreateColumn(ctx, "Awaiting Signature")
	if err != nil {
		t.Fatalf("CreateColumn failed: %v", err)
	}
	if created.ID != "col-9" || created.Rank != 4 {
		t.Errorf("Unexpected created column: %+v", created)
	}
	if gotPath != "/api/v1/boards/LEX/columns" {
		t.Errorf("Expected board-scoped create path, got %s", gotPath)
	}

	if err := client.RenameColumn(ctx, "col-9", "Signed"); err != nil {
		t.Fatalf("RenameColumn failed: %v", err)
	}
	if gotMethod != "PATCH" || gotPath != "/api/v1/columns/col-9" {
		t.Errorf("Expected PATCH /api/v1/columns/col-9, got %s %s", gotMethod, gotPath)
	}

	if err := client.DeleteColumn(ctx, "col-9"); err != nil {
		t.Fatalf("DeleteColumn failed: %v", err)
	}
	if gotMethod != "DELETE" || gotPath != "/api/v1/columns/col-9" {
		t.Errorf("Expected DELETE /api/v1/columns/col-9, got %s %s", gotMethod, gotPath)
	}
}

func TestClient_ListBoards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/boards" {
			t.Errorf("Expected path /api/v1/boards, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"boards": [{"key": "LEX", "name": "Litigation"}, {"key": "IP", "name": "IP Filings"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "a@b.c", "t", "")
	boards, err := client.ListBoards(context.Background())
	if err != nil {
		t.Fatalf("ListBoards failed: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("Expected 2 boards, got %d", len(boards))
	}
	if boards[0].Key != "LEX" || boards[1].Name != "IP Filings" {
		t.Errorf("Unexpected boards: %+v", boards)
	}
}
