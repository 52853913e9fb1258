package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/schoolblog/blogctl/internal/errors"
)

// staticTokens is a TokenSource with a fixed token
type staticTokens struct {
	token string
}

func (s staticTokens) Token() string { return s.token }

func TestClient_BearerHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Post{})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "T1"})
	if _, err := client.ListPosts(context.Background()); err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}

	if gotAuth != "Bearer T1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer T1")
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		json.NewEncoder(w).Encode([]Post{})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{})
	if _, err := client.ListPosts(context.Background()); err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}

	if hasAuth {
		t.Errorf("unauthenticated request carried Authorization header %q", gotAuth)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind errors.Kind
		wantMsg  string
	}{
		{
			name:     "401 maps to unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":"token expired"}`,
			wantKind: errors.KindUnauthorized,
			wantMsg:  "token expired",
		},
		{
			name:     "404 maps to not found",
			status:   http.StatusNotFound,
			body:     `{"error":"post not found"}`,
			wantKind: errors.KindNotFound,
			wantMsg:  "post not found",
		},
		{
			name:     "400 maps to validation with verbatim message",
			status:   http.StatusBadRequest,
			body:     `{"error":"title is required"}`,
			wantKind: errors.KindValidation,
			wantMsg:  "title is required",
		},
		{
			name:     "422 maps to validation",
			status:   http.StatusUnprocessableEntity,
			body:     `{"message":"summary too long"}`,
			wantKind: errors.KindValidation,
			wantMsg:  "summary too long",
		},
		{
			name:     "500 maps to unknown",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			wantKind: errors.KindUnknown,
			wantMsg:  "request failed with status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, staticTokens{token: "T1"})
			_, err := client.GetPost(context.Background(), "p1")
			if err == nil {
				t.Fatal("GetPost() expected error")
			}

			if got := errors.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %v, want %v", got, tt.wantKind)
			}
			if got := errors.UserMessage(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestClient_NetworkUnavailable(t *testing.T) {
	// A server that is already closed refuses connections.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, staticTokens{})
	_, err := client.ListPosts(context.Background())
	if err == nil {
		t.Fatal("ListPosts() expected error")
	}

	if !errors.IsNetwork(err) {
		t.Errorf("kind = %v, want network_unavailable", errors.KindOf(err))
	}
}

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Email != "a@x.com" || req.Password != "pw" {
			t.Errorf("unexpected credentials: %+v", req)
		}
		json.NewEncoder(w).Encode(tokenResponse{Token: "T1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{})
	tok, err := client.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tok != "T1" {
		t.Errorf("token = %q, want T1", tok)
	}
}

func TestClient_CreatePostMultipart(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(imagePath, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("request is not multipart: %v", err)
		}
		if got := r.FormValue("title"); got != "Hello" {
			t.Errorf("title = %q, want Hello", got)
		}
		if got := r.FormValue("summary"); got != "First post" {
			t.Errorf("summary = %q, want First post", got)
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image part missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "cover.png" {
			t.Errorf("image filename = %q, want cover.png", header.Filename)
		}

		json.NewEncoder(w).Encode(Post{ID: "p99", Title: "Hello"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "T1"})
	post, err := client.CreatePost(context.Background(), PostDraft{
		Title:     "Hello",
		Summary:   "First post",
		Content:   "body",
		ImagePath: imagePath,
	})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if post.ID != "p99" {
		t.Errorf("post id = %q, want p99", post.ID)
	}
}

func TestClient_CreatePostWithoutImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("request is not multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err == nil {
			t.Error("unexpected image part on imageless draft")
		}
		json.NewEncoder(w).Encode(Post{ID: "p1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "T1"})
	if _, err := client.CreatePost(context.Background(), PostDraft{Title: "t"}); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
}
