package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pontifex-go/internal/config"
	"pontifex-go/internal/database"
	"pontifex-go/internal/handlers"
	"pontifex-go/internal/middleware"
	"pontifex-go/internal/solitaire"

	"github.com/gin-gonic/gin"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "handlers-test-secret",
		JWTIssuer:    "pontifex",
		JWTTTL:       time.Hour,
		MaxTextChars: 4096,
		AppEnv:       "development",
	}
}

// newTestServer builds the same route tree as the server binary, minus the
// websocket endpoint and tracing middleware.
func newTestServer(t *testing.T) (*gin.Engine, *sql.DB, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	r := gin.New()
	api := r.Group("/api")
	handlers.RegisterAuthRoutes(api, db, cfg)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg))
	handlers.RegisterKeyRoutes(protected, db)
	handlers.RegisterSessionRoutes(protected, db, cfg)
	handlers.RegisterCipherRoutes(protected, db, cfg)
	return r, db, cfg
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func registerUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"password": "long enough password",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("register returned empty token")
	}
	return resp.Token
}

func TestRegisterLoginMe(t *testing.T) {
	r, _, _ := newTestServer(t)
	registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "long enough password",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)

	w = doJSON(t, r, http.MethodGet, "/api/auth/me", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", w.Code, w.Body.String())
	}
	var me struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, w, &me)
	if me.User.Username != "alice" {
		t.Errorf("me username = %q, want alice", me.User.Username)
	}

	// Cookie auth: login sets an HttpOnly cookie usable without the header.
	w2 := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "long enough password",
	})
	var cookie *http.Cookie
	for _, ck := range w2.Result().Cookies() {
		if ck.Name == "pfx_token" {
			cookie = ck
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("login did not set the auth cookie")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req)
	if w3.Code != http.StatusOK {
		t.Errorf("me via cookie: status %d", w3.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r, _, _ := newTestServer(t)
	registerUser(t, r, "bob")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "bob",
		"password": "not the password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _, _ := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/api/keys", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestKeyCreateAndOwnership(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")
	mallory := registerUser(t, r, "mallory")

	w := doJSON(t, r, http.MethodPost, "/api/keys", alice, gin.H{
		"name": "fieldwork",
		"deck": solitaire.NewSortedDeck().Ints(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create key: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Key struct {
			ID   int64 `json:"id"`
			Deck []int `json:"deck"`
		} `json:"key"`
	}
	decode(t, w, &created)
	if !reflect.DeepEqual(created.Key.Deck, solitaire.NewSortedDeck().Ints()) {
		t.Errorf("stored deck differs: %v", created.Key.Deck)
	}

	// Another user's key reads as not-found, not forbidden.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/keys/%d", created.Key.ID), mallory, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user get: status %d, want 404", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/keys/%d", created.Key.ID), mallory, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user delete: status %d, want 404", w.Code)
	}

	// A random key gets dealt server-side and must be a valid permutation.
	w = doJSON(t, r, http.MethodPost, "/api/keys", alice, gin.H{"name": "dealt", "random": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("create random key: status %d body %s", w.Code, w.Body.String())
	}
	decode(t, w, &created)
	if _, err := solitaire.NewDeck(created.Key.Deck); err != nil {
		t.Errorf("random key deck invalid: %v", err)
	}
}

func TestCreateKeyRejectsBadDeck(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/keys", alice, gin.H{
		"name": "broken",
		"deck": []int{0, 1, 2},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestSessionDrawFlow(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/sessions", alice, gin.H{
		"deck": solitaire.NewSortedDeck().Ints(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Session struct {
			ID int64 `json:"id"`
		} `json:"session"`
	}
	decode(t, w, &created)

	// Two draws of 8 must continue the stream, not restart it.
	var values []int
	for i := 0; i < 2; i++ {
		w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/keystream", created.Session.ID), alice, gin.H{"count": 8})
		if w.Code != http.StatusOK {
			t.Fatalf("draw %d: status %d body %s", i, w.Code, w.Body.String())
		}
		var draw struct {
			Values  []int `json:"values"`
			Emitted int64 `json:"emitted"`
		}
		decode(t, w, &draw)
		values = append(values, draw.Values...)
		if want := int64(8 * (i + 1)); draw.Emitted != want {
			t.Errorf("emitted after draw %d = %d, want %d", i, draw.Emitted, want)
		}
	}

	want := solitaire.NewKeystream(solitaire.NewSortedDeck()).Take(16)
	for i, c := range want {
		if values[i] != int(c) {
			t.Fatalf("value[%d] = %d, want %d", i, values[i], int(c))
		}
	}

	// Out-of-range counts are rejected.
	for _, count := range []int{0, -1, 1001} {
		w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/keystream", created.Session.ID), alice, gin.H{"count": count})
		if w.Code != http.StatusBadRequest {
			t.Errorf("count=%d: status %d, want 400", count, w.Code)
		}
	}
}

func TestSessionCipherContinuity(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	newSession := func() int64 {
		w := doJSON(t, r, http.MethodPost, "/api/sessions", alice, gin.H{
			"deck": solitaire.NewSortedDeck().Ints(),
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create session: status %d body %s", w.Code, w.Body.String())
		}
		var created struct {
			Session struct {
				ID int64 `json:"id"`
			} `json:"session"`
		}
		decode(t, w, &created)
		return created.Session.ID
	}

	encID := newSession()
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/encrypt", encID), alice, gin.H{"text": "AAAAAAAAAA"})
	if w.Code != http.StatusOK {
		t.Fatalf("encrypt: status %d body %s", w.Code, w.Body.String())
	}
	var enc struct {
		Result  string `json:"result"`
		Emitted int64  `json:"emitted"`
	}
	decode(t, w, &enc)
	if enc.Result != "EXKYIZSGEH" {
		t.Errorf("ciphertext = %q, want EXKYIZSGEH", enc.Result)
	}
	if enc.Emitted != 10 {
		t.Errorf("emitted = %d, want 10", enc.Emitted)
	}

	// Decrypting on a fresh session with the same starting deck recovers the
	// plaintext.
	decID := newSession()
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/decrypt", decID), alice, gin.H{"text": enc.Result})
	if w.Code != http.StatusOK {
		t.Fatalf("decrypt: status %d body %s", w.Code, w.Body.String())
	}
	var dec struct {
		Result string `json:"result"`
	}
	decode(t, w, &dec)
	if dec.Result != "AAAAAAAAAA" {
		t.Errorf("plaintext = %q, want AAAAAAAAAA", dec.Result)
	}

	// The encrypt session advanced; a second message does not reuse keystream.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/encrypt", encID), alice, gin.H{"text": "AAAAAAAAAA"})
	if w.Code != http.StatusOK {
		t.Fatalf("second encrypt: status %d body %s", w.Code, w.Body.String())
	}
	var enc2 struct {
		Result string `json:"result"`
	}
	decode(t, w, &enc2)
	if enc2.Result == enc.Result {
		t.Error("second message produced identical ciphertext, keystream was reused")
	}
}

func TestSessionFromStoredKey(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/keys", alice, gin.H{
		"name": "seed",
		"deck": solitaire.NewSortedDeck().Ints(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create key: status %d body %s", w.Code, w.Body.String())
	}
	var key struct {
		Key struct {
			ID int64 `json:"id"`
		} `json:"key"`
	}
	decode(t, w, &key)

	w = doJSON(t, r, http.MethodPost, "/api/sessions", alice, gin.H{"key_id": key.Key.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session from key: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Session struct {
			ID    int64  `json:"id"`
			KeyID *int64 `json:"key_id"`
		} `json:"session"`
	}
	decode(t, w, &created)
	if created.Session.KeyID == nil || *created.Session.KeyID != key.Key.ID {
		t.Errorf("session key_id = %v, want %d", created.Session.KeyID, key.Key.ID)
	}

	// Drawing from the session must not mutate the stored key's deck.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/keystream", created.Session.ID), alice, gin.H{"count": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("draw: status %d body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/keys/%d", key.Key.ID), alice, nil)
	var after struct {
		Key struct {
			Deck []int `json:"deck"`
		} `json:"key"`
	}
	decode(t, w, &after)
	if !reflect.DeepEqual(after.Key.Deck, solitaire.NewSortedDeck().Ints()) {
		t.Error("drawing from a session mutated the source key")
	}
}

func TestOneShotCipher(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/cipher/encrypt", alice, gin.H{
		"text": "AAAAAAAAAA",
		"deck": solitaire.NewSortedDeck().Ints(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("encrypt: status %d body %s", w.Code, w.Body.String())
	}
	var enc struct {
		Result string `json:"result"`
	}
	decode(t, w, &enc)
	if enc.Result != "EXKYIZSGEH" {
		t.Errorf("result = %q, want EXKYIZSGEH", enc.Result)
	}

	// One-shot never persists state: the same request gives the same answer.
	w = doJSON(t, r, http.MethodPost, "/api/cipher/encrypt", alice, gin.H{
		"text": "AAAAAAAAAA",
		"deck": solitaire.NewSortedDeck().Ints(),
	})
	var enc2 struct {
		Result string `json:"result"`
	}
	decode(t, w, &enc2)
	if enc2.Result != enc.Result {
		t.Errorf("repeated one-shot differs: %q vs %q", enc2.Result, enc.Result)
	}

	w = doJSON(t, r, http.MethodPost, "/api/cipher/decrypt", alice, gin.H{
		"text": enc.Result,
		"deck": solitaire.NewSortedDeck().Ints(),
	})
	var dec struct {
		Result string `json:"result"`
	}
	decode(t, w, &dec)
	if dec.Result != "AAAAAAAAAA" {
		t.Errorf("decrypt = %q, want AAAAAAAAAA", dec.Result)
	}
}

func TestOneShotCipherWithPad(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/cipher/decrypt", alice, gin.H{
		"text": "OSKJJJGTMW",
		"pad":  "KDWUPONOWT",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("decrypt: status %d body %s", w.Code, w.Body.String())
	}
	var dec struct {
		Result string `json:"result"`
	}
	decode(t, w, &dec)
	if dec.Result != "DONOTUSEPC" {
		t.Errorf("result = %q, want DONOTUSEPC", dec.Result)
	}

	// Pad shorter than the text is an error, not a truncation.
	w = doJSON(t, r, http.MethodPost, "/api/cipher/decrypt", alice, gin.H{
		"text": "OSKJJJGTMW",
		"pad":  "KDW",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short pad: status %d, want 400", w.Code)
	}
}

func TestOneShotCipherValidation(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"no source", gin.H{"text": "HELLO"}, http.StatusBadRequest},
		{"lowercase text", gin.H{"text": "hello", "deck": solitaire.NewSortedDeck().Ints()}, http.StatusBadRequest},
		{"bad deck", gin.H{"text": "HELLO", "deck": []int{1, 2, 3}}, http.StatusBadRequest},
		{"missing key", gin.H{"text": "HELLO", "key_id": 99999}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/cipher/encrypt", alice, tt.body)
			if w.Code != tt.want {
				t.Errorf("status %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCipherTextTooLong(t *testing.T) {
	r, _, _ := newTestServer(t)
	alice := registerUser(t, r, "alice")

	long := bytes.Repeat([]byte("A"), 4097)
	w := doJSON(t, r, http.MethodPost, "/api/cipher/encrypt", alice, gin.H{
		"text": string(long),
		"deck": solitaire.NewSortedDeck().Ints(),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}
