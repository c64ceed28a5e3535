package s2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/matsen/clustergraph/internal/corpus"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(WithBaseURL(srv.URL), WithAPIKey("secret"), WithRateLimit(1000))
}

func TestSearchBulk_FollowsToken(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/paper/search/bulk" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("x-api-key = %q", got)
		}
		if q := r.URL.Query().Get("query"); q != "bioterrorism" {
			t.Errorf("query = %q", q)
		}
		switch r.URL.Query().Get("token") {
		case "":
			w.Write([]byte(`{"total":3,"token":"t1","data":[{"paperId":"A","title":"a"},{"paperId":"B","title":"b"}]}`))
		case "t1":
			w.Write([]byte(`{"total":3,"token":null,"data":[{"paperId":"C","title":"c","journal":{"name":"Nature"}}]}`))
		default:
			t.Errorf("unexpected token %q", r.URL.Query().Get("token"))
		}
	}))
	defer srv.Close()

	var ids []string
	for p, err := range newTestClient(srv).SearchBulk(context.Background(), "bioterrorism") {
		if err != nil {
			t.Fatalf("SearchBulk() error = %v", err)
		}
		ids = append(ids, p.PaperID)
		if p.PaperID == "C" && (p.Journal == nil || p.Journal.Name != "Nature") {
			t.Errorf("paper C journal = %+v", p.Journal)
		}
	}
	if len(ids) != 3 || ids[0] != "A" || ids[2] != "C" {
		t.Errorf("ids = %v, want [A B C]", ids)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSearchBulk_EarlyBreak(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"token":"more","data":[{"paperId":"A","title":"a"},{"paperId":"B","title":"b"}]}`))
	}))
	defer srv.Close()

	for range newTestClient(srv).SearchBulk(context.Background(), "q") {
		break
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 after break", calls)
	}
}

func TestReferences_Pagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/P1/references" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if f := r.URL.Query().Get("fields"); f != ReferenceFields {
			t.Errorf("fields = %q", f)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		page := referencesPage{Offset: offset}
		id := "R" + strconv.Itoa(offset)
		page.Data = []corpus.RawCitation{{CitedPaper: corpus.PaperRef{PaperID: &id}, IsInfluential: offset == 0}}
		if offset == 0 {
			next := 1
			page.Next = &next
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	var got []corpus.RawCitation
	for r, err := range newTestClient(srv).References(context.Background(), "P1") {
		if err != nil {
			t.Fatalf("References() error = %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 2 {
		t.Fatalf("got %d references, want 2", len(got))
	}
	if *got[0].CitedPaper.PaperID != "R0" || !got[0].IsInfluential || *got[1].CitedPaper.PaperID != "R1" {
		t.Errorf("references = %+v", got)
	}
}

func TestReferences_NullPaperID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"offset":0,"data":[{"citedPaper":{"paperId":null},"intents":[],"isInfluential":false}]}`))
	}))
	defer srv.Close()

	for r, err := range newTestClient(srv).References(context.Background(), "P1") {
		if err != nil {
			t.Fatalf("References() error = %v", err)
		}
		if r.CitedPaper.PaperID != nil {
			t.Errorf("PaperID = %v, want nil", *r.CitedPaper.PaperID)
		}
		if c := r.Citation("P1"); c.Target != "" {
			t.Errorf("Citation().Target = %q, want empty", c.Target)
		}
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusNotFound, IsNotFound, "not found"},
		{http.StatusTooManyRequests, IsRateLimited, "rate limited"},
		{http.StatusForbidden, func(err error) bool { return errors.Is(err, ErrAuthError) }, "auth"},
		{http.StatusInternalServerError, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500 && apiErr.PaperID == "P1"
		}, "server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			var gotErr error
			for _, err := range newTestClient(srv).References(context.Background(), "P1") {
				gotErr = err
			}
			if gotErr == nil || !tt.check(gotErr) {
				t.Errorf("error = %v", gotErr)
			}
		})
	}
}

func TestInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	for _, err := range newTestClient(srv).SearchBulk(context.Background(), "q") {
		if !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("error = %v, want ErrInvalidResponse", err)
		}
	}
}

func TestContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, err := range newTestClient(srv).SearchBulk(ctx, "q") {
		if err == nil {
			t.Error("expected error for canceled context")
		}
	}
}
