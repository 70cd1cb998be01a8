// Package fakeapi is an in-memory double of the gym-management REST API,
// used by the client's integration tests, examples, and consumer test
// suites. It serves the same wire contracts as the real service: form
// encoded login, JSON registration, bearer-guarded resources, and
// FastAPI-style {"detail": ...} error bodies.
//
// The double verifies the HS256 tokens it issues, but the client under
// test never does; the bearer credential stays opaque on the client side
// of the boundary.
package fakeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Identity mirrors the user object of the auth responses.
type Identity struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Class is a minimal gym class resource served by /api/classes.
type Class struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Trainer string `json:"trainer"`
}

type account struct {
	identity     Identity
	passwordHash []byte
}

// Server is the running double. Create one with [New], point the client's
// base URL at [Server.URL], and Close it when done.
type Server struct {
	hs     *httptest.Server
	secret []byte

	mu       sync.Mutex
	accounts map[string]*account
	classes  []Class
	nextID   int64

	// tokenGen is embedded in every issued token; bumping it via Revoke
	// makes all outstanding tokens invalid, simulating expiry.
	tokenGen atomic.Int64

	requests   sync.Map // path -> *atomic.Int64
	loginGate  atomic.Pointer[chan struct{}]
	authFailed atomic.Int64
}

// New starts the double on a loopback listener.
func New() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		accounts: make(map[string]*account),
		classes: []Class{
			{ID: 1, Name: "Morning Yoga", Trainer: "Dana"},
			{ID: 2, Name: "HIIT", Trainer: "Lee"},
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.Handle("/api/dashboard/{role}", s.requireAuth(http.HandlerFunc(s.handleDashboard))).Methods(http.MethodGet)
	r.Handle("/api/classes", s.requireAuth(http.HandlerFunc(s.handleClasses))).Methods(http.MethodGet)
	r.Use(s.countRequests)

	s.hs = httptest.NewServer(r)
	return s
}

// URL is the base URL to point the client at.
func (s *Server) URL() string { return s.hs.URL }

// Close shuts the double down.
func (s *Server) Close() { s.hs.Close() }

// Seed registers an account without going through the HTTP surface.
func (s *Server) Seed(email, fullName, password, role string) Identity {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: bcrypt: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := Identity{ID: s.nextID, Email: email, FullName: fullName, Role: role}
	s.accounts[email] = &account{identity: id, passwordHash: hash}
	return id
}

// Revoke invalidates every outstanding token; the next guarded request
// with an old token is rejected with 401.
func (s *Server) Revoke() {
	s.tokenGen.Add(1)
}

// Requests reports how many requests hit path.
func (s *Server) Requests(path string) int64 {
	if v, ok := s.requests.Load(path); ok {
		return v.(*atomic.Int64).Load()
	}
	return 0
}

// AuthFailures reports how many guarded requests were rejected.
func (s *Server) AuthFailures() int64 { return s.authFailed.Load() }

// HoldLogins blocks login handling until the returned release function is
// called, letting tests overlap credential exchanges deterministically.
func (s *Server) HoldLogins() (release func()) {
	ch := make(chan struct{})
	s.loginGate.Store(&ch)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.loginGate.Store(nil)
			close(ch)
		})
	}
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, _ := s.requests.LoadOrStore(r.URL.Path, new(atomic.Int64))
		v.(*atomic.Int64).Add(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if gate := s.loginGate.Load(); gate != nil {
		<-*gate
	}

	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form body")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	acct := s.accounts[email]
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	s.writeTokenResponse(w, acct.identity)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	switch req.Role {
	case "admin", "trainer", "member":
	default:
		writeDetail(w, http.StatusBadRequest, "invalid role")
		return
	}

	s.mu.Lock()
	_, exists := s.accounts[req.Email]
	s.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}

	id := s.Seed(req.Email, req.FullName, req.Password, req.Role)
	s.writeTokenResponse(w, id)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	role := mux.Vars(r)["role"]
	if claims.Role != role {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}
	writeJSON(w, map[string]any{"role": role, "stats": map[string]int{"classes": len(s.classes)}})
}

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]Class, len(s.classes))
	copy(out, s.classes)
	s.mu.Unlock()
	writeJSON(w, out)
}

/*
====================================
TOKENS
====================================
*/

type apiClaims struct {
	Role string `json:"role"`
	Gen  int64  `json:"gen"`
	jwt.RegisteredClaims
}

func (s *Server) writeTokenResponse(w http.ResponseWriter, id Identity) {
	claims := apiClaims{
		Role: id.Role,
		Gen:  s.tokenGen.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "token signing failed")
		return
	}
	writeJSON(w, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         id,
	})
}

type claimsKey struct{}

func contextWithClaims(ctx context.Context, c *apiClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func claimsFrom(r *http.Request) *apiClaims {
	c, _ := r.Context().Value(claimsKey{}).(*apiClaims)
	return c
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			s.reject(w)
			return
		}

		var claims apiClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Gen != s.tokenGen.Load() {
			s.reject(w)
			return
		}

		ctx := contextWithClaims(r.Context(), &claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) reject(w http.ResponseWriter) {
	s.authFailed.Add(1)
	writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
