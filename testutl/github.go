// Package testutl provides an in-process fake of the GitHub Actions secrets
// API for tests.
package testutl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-michi/michi"
	"github.com/mscno/ghsecrets/pkg/crypto"
)

const (
	// DefaultToken is the bearer token FakeGitHub accepts unless changed.
	DefaultToken = "ghp_testtoken"
	// DefaultRepository is the only repository FakeGitHub knows about.
	DefaultRepository = "acme/widgets"
	// DefaultKeyID is the ID of the public key FakeGitHub hands out.
	DefaultKeyID = "568250167242549743"
)

// Call kinds recorded by FakeGitHub.
const (
	KindPublicKey  = "public-key"
	KindRepoSecret = "repo-secret"
	KindEnvSecret  = "env-secret"
)

// Call is one request FakeGitHub received, in arrival order.
type Call struct {
	Kind        string
	Repository  string
	Environment string
	Name        string
	Status      int
}

// FakeGitHub serves the public key and secret endpoints of the REST API. It
// decrypts every secret it receives with its own keypair so tests can check
// the plaintext that would have been stored.
type FakeGitHub struct {
	Server  *httptest.Server
	Keypair crypto.Keypair

	mu          sync.Mutex
	token       string
	repository  string
	keyID       string
	key         string
	keyStatus   int
	failures    map[string]int
	calls       []Call
	repoSecrets map[string]string
	envSecrets  map[string]map[string]string
}

// NewFakeGitHub starts a fake server that is closed when the test ends.
func NewFakeGitHub(t testing.TB) *FakeGitHub {
	t.Helper()
	f := &FakeGitHub{
		token:       DefaultToken,
		repository:  DefaultRepository,
		keyID:       DefaultKeyID,
		failures:    map[string]int{},
		repoSecrets: map[string]string{},
		envSecrets:  map[string]map[string]string{},
	}
	if err := f.Keypair.Generate(); err != nil {
		t.Fatalf("generating keypair: %v", err)
	}
	f.key = f.Keypair.PublicString()

	r := michi.NewRouter()
	r.Handle("GET /repos/{owner}/{repo}/actions/secrets/public-key", http.HandlerFunc(f.publicKey))
	r.Handle("PUT /repos/{owner}/{repo}/actions/secrets/{name}", http.HandlerFunc(f.putRepoSecret))
	r.Handle("PUT /repos/{owner}/{repo}/environments/{env}/secrets/{name}", http.HandlerFunc(f.putEnvSecret))

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API root to point a client at.
func (f *FakeGitHub) URL() string {
	return f.Server.URL + "/"
}

// SetToken changes the accepted bearer token.
func (f *FakeGitHub) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// SetPublicKey replaces the key handed out, e.g. with an invalid one.
func (f *FakeGitHub) SetPublicKey(keyID, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyID, f.key = keyID, key
}

// FailPublicKey makes the public key endpoint answer with status.
func (f *FakeGitHub) FailPublicKey(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyStatus = status
}

// FailSecret makes writes of the named secret answer with status. An empty
// env selects the repository secret.
func (f *FakeGitHub) FailSecret(env, name string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[secretKey(env, name)] = status
}

// Calls returns the requests received so far.
func (f *FakeGitHub) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CountCalls returns how many requests of kind were received.
func (f *FakeGitHub) CountCalls(kind string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// RepoSecret returns the decrypted value of a stored repository secret.
func (f *FakeGitHub) RepoSecret(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.repoSecrets[name]
	return v, ok
}

// EnvSecret returns the decrypted value of a stored environment secret.
func (f *FakeGitHub) EnvSecret(env, name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.envSecrets[env][name]
	return v, ok
}

func (f *FakeGitHub) publicKey(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := Call{Kind: KindPublicKey, Repository: repository(r)}
	status := f.check(r)
	if status == 0 && f.keyStatus != 0 {
		status = f.keyStatus
	}
	if status != 0 {
		call.Status = status
		f.calls = append(f.calls, call)
		writeError(w, status)
		return
	}
	call.Status = http.StatusOK
	f.calls = append(f.calls, call)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"key_id": f.keyID, "key": f.key})
}

func (f *FakeGitHub) putRepoSecret(w http.ResponseWriter, r *http.Request) {
	f.putSecret(w, r, "")
}

func (f *FakeGitHub) putEnvSecret(w http.ResponseWriter, r *http.Request) {
	f.putSecret(w, r, r.PathValue("env"))
}

func (f *FakeGitHub) putSecret(w http.ResponseWriter, r *http.Request, env string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := r.PathValue("name")
	call := Call{Kind: KindRepoSecret, Repository: repository(r), Environment: env, Name: name}
	if env != "" {
		call.Kind = KindEnvSecret
	}
	defer func() { f.calls = append(f.calls, call) }()

	if call.Status = f.check(r); call.Status != 0 {
		writeError(w, call.Status)
		return
	}
	if call.Status = f.failures[secretKey(env, name)]; call.Status != 0 {
		writeError(w, call.Status)
		return
	}

	var body struct {
		KeyID          string `json:"key_id"`
		EncryptedValue string `json:"encrypted_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.KeyID != f.keyID {
		call.Status = http.StatusUnprocessableEntity
		writeError(w, call.Status)
		return
	}
	plaintext, err := f.Keypair.Open(body.EncryptedValue)
	if err != nil {
		call.Status = http.StatusUnprocessableEntity
		writeError(w, call.Status)
		return
	}

	var existed bool
	if env == "" {
		_, existed = f.repoSecrets[name]
		f.repoSecrets[name] = string(plaintext)
	} else {
		if f.envSecrets[env] == nil {
			f.envSecrets[env] = map[string]string{}
		}
		_, existed = f.envSecrets[env][name]
		f.envSecrets[env][name] = string(plaintext)
	}

	call.Status = http.StatusCreated
	if existed {
		call.Status = http.StatusNoContent
	}
	w.WriteHeader(call.Status)
}

// check returns a non-zero status when the request must be rejected.
func (f *FakeGitHub) check(r *http.Request) int {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		return http.StatusUnauthorized
	}
	if repository(r) != f.repository {
		return http.StatusNotFound
	}
	return 0
}

func repository(r *http.Request) string {
	return r.PathValue("owner") + "/" + r.PathValue("repo")
}

func secretKey(env, name string) string {
	return env + "/" + name
}

func writeError(w http.ResponseWriter, status int) {
	message := http.StatusText(status)
	switch status {
	case http.StatusUnauthorized:
		message = "Bad credentials"
	case http.StatusNotFound:
		message = "Not Found"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"message":%q,"documentation_url":"https://docs.github.com/rest"}`, strings.TrimSpace(message))
}
