package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/shared/config"
)

type recordingCompleter struct {
	mu      sync.Mutex
	prompts []string
}

func (r *recordingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return "The midterm is on March 3rd.", nil
}

func (r *recordingCompleter) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:              "local",
		JWTSecret:        "integration-secret",
		JWTAlgorithm:     "HS256",
		JWTTTL:           time.Hour,
		ObjectStoreType:  "local",
		LocalStoreDir:    t.TempDir(),
		MaxUploadBytes:   1 << 20,
		LLMProvider:      "none",
		LLMTimeout:       time.Second,
		AskRatePerSecond: 100,
		AskBurst:         100,
	}
}

type harness struct {
	t      *testing.T
	router *gin.Engine
}

func newHarness(t *testing.T, cfg config.Config, llm *recordingCompleter) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := BuildWith(context.Background(), cfg, Overrides{Completer: llm})
	if err != nil {
		t.Fatalf("BuildWith: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return &harness{t: t, router: app.Router}
}

func (h *harness) do(req *http.Request, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

func (h *harness) register(name, role string) string {
	h.t.Helper()
	body, _ := json.Marshal(map[string]string{
		"name":     name,
		"email":    name + "@school.test",
		"password": "correct-horse",
		"role":     role,
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := h.do(req, "")
	if resp.Code != http.StatusCreated {
		h.t.Fatalf("register %s: %d %s", name, resp.Code, resp.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil || out.Token == "" {
		h.t.Fatalf("register %s: missing token: %v", name, err)
	}
	return out.Token
}

func (h *harness) upload(token, name string, content []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		h.t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req, token)
}

func (h *harness) uploadOK(token, name string, content []byte) string {
	h.t.Helper()
	resp := h.upload(token, name, content)
	if resp.Code != http.StatusCreated {
		h.t.Fatalf("upload %s: %d %s", name, resp.Code, resp.Body.String())
	}
	var doc struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		HasText bool   `json:"hasText"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		h.t.Fatalf("decode upload: %v", err)
	}
	if doc.ID == "" || doc.Name != name {
		h.t.Fatalf("unexpected upload response %s", resp.Body.String())
	}
	return doc.ID
}

func (h *harness) ask(token, question string) (int, string, []string) {
	h.t.Helper()
	body, _ := json.Marshal(map[string]string{"question": question})
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := h.do(req, token)
	var out struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}
	if resp.Code == http.StatusOK {
		if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
			h.t.Fatalf("decode ask: %v", err)
		}
	}
	return resp.Code, out.Answer, out.Sources
}

func (h *harness) get(path, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (h *harness) delete(path, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(httptest.NewRequest(http.MethodDelete, path, nil), token)
}

func TestSyllabusQuestionIsAnsweredFromNotes(t *testing.T) {
	llm := &recordingCompleter{}
	h := newHarness(t, testConfig(t), llm)
	teacher := h.register("teacher", "teacher")
	student := h.register("student", "student")

	h.uploadOK(teacher, "syllabus.txt", []byte("Midterm is on March 3rd"))

	code, answer, sources := h.ask(student, "When is the midterm?")
	if code != http.StatusOK {
		t.Fatalf("ask: %d", code)
	}
	if answer != "The midterm is on March 3rd." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if len(sources) != 1 || sources[0] != "syllabus.txt" {
		t.Fatalf("unexpected sources %v", sources)
	}
	if llm.calls() != 1 || !strings.Contains(llm.prompts[0], "Midterm is on March 3rd") {
		t.Fatalf("prompt must carry the notes, got %v", llm.prompts)
	}
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	h := newHarness(t, testConfig(t), &recordingCompleter{})
	teacher := h.register("teacher", "teacher")
	student := h.register("student", "student")

	content := []byte("Lecture 1: vectors\nLecture 2: matrices\n")
	id := h.uploadOK(teacher, "linear-algebra.md", content)

	resp := h.get("/documents/"+id+"/download", student)
	if resp.Code != http.StatusOK {
		t.Fatalf("download: %d %s", resp.Code, resp.Body.String())
	}
	if !bytes.Equal(resp.Body.Bytes(), content) {
		t.Fatalf("downloaded bytes differ: %q", resp.Body.String())
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "linear-algebra.md") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}

	resp = h.get("/documents", student)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), id) {
		t.Fatalf("student list should include the document: %d %s", resp.Code, resp.Body.String())
	}
}

func TestDeletedDocumentIsGone(t *testing.T) {
	llm := &recordingCompleter{}
	h := newHarness(t, testConfig(t), llm)
	teacher := h.register("teacher", "teacher")

	id := h.uploadOK(teacher, "syllabus.txt", []byte("Midterm is on March 3rd"))
	if resp := h.delete("/documents/"+id, teacher); resp.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", resp.Code, resp.Body.String())
	}
	if resp := h.get("/documents/"+id+"/download", teacher); resp.Code != http.StatusNotFound {
		t.Fatalf("download after delete: %d", resp.Code)
	}
	if resp := h.delete("/documents/"+id, teacher); resp.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", resp.Code)
	}
	if _, answer, _ := h.ask(teacher, "midterm"); answer == "The midterm is on March 3rd." {
		t.Fatalf("deleted notes must not be used")
	}
	if llm.calls() != 0 {
		t.Fatalf("no completion expected after delete, got %d", llm.calls())
	}
}

func TestStudentCannotMutateNotes(t *testing.T) {
	h := newHarness(t, testConfig(t), &recordingCompleter{})
	teacher := h.register("teacher", "teacher")
	student := h.register("student", "student")

	id := h.uploadOK(teacher, "syllabus.txt", []byte("Midterm is on March 3rd"))

	if resp := h.delete("/documents/"+id, student); resp.Code != http.StatusForbidden {
		t.Fatalf("student delete: %d %s", resp.Code, resp.Body.String())
	}
	if resp := h.upload(student, "cheat.txt", []byte("answers")); resp.Code != http.StatusForbidden {
		t.Fatalf("student upload: %d %s", resp.Code, resp.Body.String())
	}
	if resp := h.get("/documents/"+id+"/download", student); resp.Code != http.StatusOK {
		t.Fatalf("document should survive a rejected delete: %d", resp.Code)
	}
}

func TestTeachersOnlySeeTheirOwnNotes(t *testing.T) {
	llm := &recordingCompleter{}
	h := newHarness(t, testConfig(t), llm)
	alice := h.register("alice", "teacher")
	bob := h.register("bob", "teacher")

	id := h.uploadOK(alice, "syllabus.txt", []byte("Midterm is on March 3rd"))

	resp := h.get("/documents", bob)
	if resp.Code != http.StatusOK || strings.Contains(resp.Body.String(), id) {
		t.Fatalf("bob must not list alice's notes: %s", resp.Body.String())
	}
	if resp := h.get("/documents/"+id+"/download", bob); resp.Code != http.StatusNotFound {
		t.Fatalf("bob download: %d", resp.Code)
	}
	if resp := h.delete("/documents/"+id, bob); resp.Code != http.StatusNotFound {
		t.Fatalf("bob delete: %d", resp.Code)
	}
	if resp := h.get("/documents/search?q=midterm", bob); resp.Code != http.StatusOK || strings.Contains(resp.Body.String(), id) {
		t.Fatalf("bob search leaked: %s", resp.Body.String())
	}
	if _, _, sources := h.ask(bob, "midterm"); len(sources) != 0 {
		t.Fatalf("bob ask leaked sources %v", sources)
	}
	if llm.calls() != 0 {
		t.Fatalf("no completion expected, got %d", llm.calls())
	}

	resp = h.get("/documents/search?q=midterm", alice)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), id) {
		t.Fatalf("alice search: %d %s", resp.Code, resp.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t, testConfig(t), &recordingCompleter{})

	for _, path := range []string{"/documents", "/documents/search?q=x", "/auth/me"} {
		if resp := h.get(path, ""); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: %d", path, resp.Code)
		}
		if resp := h.get(path, "not-a-token"); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s with garbage token: %d", path, resp.Code)
		}
	}
	if code, _, _ := h.ask("", "midterm"); code != http.StatusUnauthorized {
		t.Fatalf("ask without token: %d", code)
	}
	if resp := h.get("/health", ""); resp.Code != http.StatusOK {
		t.Fatalf("health: %d", resp.Code)
	}
}

func TestSQLiteBackedRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "test"
	cfg.DatabaseURL = "sqlite:" + filepath.Join(t.TempDir(), "notes.db")

	llm := &recordingCompleter{}
	h := newHarness(t, cfg, llm)
	teacher := h.register("teacher", "teacher")
	student := h.register("student", "student")

	id := h.uploadOK(teacher, "syllabus.txt", []byte("Midterm is on March 3rd"))
	if _, answer, sources := h.ask(student, "when is the midterm"); answer != "The midterm is on March 3rd." || len(sources) != 1 {
		t.Fatalf("unexpected ask result %q %v", answer, sources)
	}
	if resp := h.delete("/documents/"+id, teacher); resp.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", resp.Code, resp.Body.String())
	}
	if resp := h.get("/documents/"+id+"/download", student); resp.Code != http.StatusNotFound {
		t.Fatalf("download after delete: %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "staging"
	if _, err := BuildWith(context.Background(), cfg, Overrides{Completer: &recordingCompleter{}}); err == nil {
		t.Fatalf("expected DATABASE_URL error")
	}
}
