package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/okian/dexboard/internal/adapters/http/api"
	repository "github.com/okian/dexboard/internal/adapters/repository"
	service "github.com/okian/dexboard/internal/app"
	"github.com/okian/dexboard/internal/domain/model"
	"github.com/okian/dexboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const requiredMsg = `Invalid data. "name" and "score" are required.`

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps records submissions in memory.
type mockDeps struct {
	mu        sync.Mutex
	submitted []model.Entry
	submitErr error
}

func (m *mockDeps) Submit(_ context.Context, e model.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, e)
	return nil
}

func (m *mockDeps) Leaderboard(_ context.Context) []model.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Entry, len(m.submitted))
	copy(out, m.submitted)
	return out
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "entries": 3}
}

func newRouter(deps api.Dependencies) *mux.Router {
	r := mux.NewRouter()
	api.NewServer(deps, mockStats{}).Register(context.Background(), r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorOf(w *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body.Error
}

func entriesOf(w *httptest.ResponseRecorder) []model.Entry {
	var entries []model.Entry
	So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
	return entries
}

func TestRoot(t *testing.T) {
	Convey("Given the API router", t, func() {
		r := newRouter(&mockDeps{})

		Convey("When requesting GET /", func() {
			w := do(r, http.MethodGet, "/", "")

			Convey("Then the welcome text is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
				So(w.Body.String(), ShouldEqual, "Welcome to the Pokédex Backend API! Gotta Code 'Em All!")
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			})
		})
	})
}

func TestPostLeaderboard_Validation(t *testing.T) {
	Convey("Given the API router with a recording backend", t, func() {
		deps := &mockDeps{}
		r := newRouter(deps)

		Convey("When required fields are missing or malformed", func() {
			bodies := []string{
				"",
				"{}",
				`{"name":"Ash"}`,
				`{"score":50}`,
				`{"name":null,"score":50}`,
				`{"name":"Ash","score":null}`,
				"null",
				"[1,2]",
				`"Ash"`,
				"{not json",
				`{"name":"Ash","score":1} this is not json`,
				`{"name":"Ash","score":1}{"name":"Misty","score":2}`,
			}

			Convey("Then each one gets 400 with the fixed message", func() {
				for _, body := range bodies {
					w := do(r, http.MethodPost, "/api/leaderboard", body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(errorOf(w), ShouldEqual, requiredMsg)
				}
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When score is not a number", func() {
			w := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":"lots"}`)

			Convey("Then 400 names the score", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorOf(w), ShouldEqual, `Invalid data. "score" must be a number.`)
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When score is a number outside double range", func() {
			w := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":1e400}`)

			Convey("Then 400 explains the range", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorOf(w), ShouldEqual, `Invalid data. "score" must fit in a double-precision float.`)
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the object is followed only by whitespace", func() {
			w := do(r, http.MethodPost, "/api/leaderboard", "{\"name\":\"Ash\",\"score\":1}\n  ")

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When name is not a string", func() {
			w := do(r, http.MethodPost, "/api/leaderboard", `{"name":7,"score":1}`)

			Convey("Then 400 names the name", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorOf(w), ShouldEqual, `Invalid data. "name" must be a string.`)
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the body is larger than the limit", func() {
			big := fmt.Sprintf(`{"name":"%s","score":1}`, strings.Repeat("a", 2<<20))
			w := do(r, http.MethodPost, "/api/leaderboard", big)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the payload is valid with extra fields", func() {
			w := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":99.5,"team":"red"}`)

			Convey("Then it is accepted with 201", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldContainSubstring, `"success":true`)
				So(w.Body.String(), ShouldContainSubstring, `"message":"Leaderboard updated."`)
				So(deps.submitted, ShouldResemble, []model.Entry{{Name: "Ash", Score: 99.5}})
			})
		})
	})
}

func TestPostLeaderboard_Failures(t *testing.T) {
	Convey("Given a backend that is busy", t, func() {
		r := newRouter(&mockDeps{submitErr: service.ErrBackpressure})
		w := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":1}`)

		Convey("Then the client is told to retry", func() {
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorOf(w), ShouldEqual, "Leaderboard is busy, try again.")
		})
	})

	Convey("Given a backend that fails to save", t, func() {
		r := newRouter(&mockDeps{submitErr: fmt.Errorf("save: %w", errors.New("disk full"))})
		w := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":1}`)

		Convey("Then a generic 500 is returned", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorOf(w), ShouldEqual, "Internal server error.")
		})
	})
}

func TestRouting(t *testing.T) {
	Convey("Given the API router", t, func() {
		r := newRouter(&mockDeps{})

		Convey("When preflighting the leaderboard", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/leaderboard", http.NoBody)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then CORS allows any origin", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
				So(w.Header().Get("Access-Control-Allow-Headers"), ShouldEqual, "Content-Type")
				So(w.Header().Get("Access-Control-Expose-Headers"), ShouldEqual, api.HeaderRequestID)
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, http.MethodPost)
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, http.MethodGet)
			})
		})

		Convey("When preflighting with custom request headers", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/leaderboard", http.NoBody)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "content-type,x-request-id")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then the requested headers are allowed", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Headers"), ShouldEqual, "content-type,x-request-id")
			})
		})

		Convey("When using an unsupported method", func() {
			w := do(r, http.MethodDelete, "/api/leaderboard", "")

			Convey("Then 405 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			})
		})

		Convey("When requesting an unknown path", func() {
			w := do(r, http.MethodGet, "/api/pokemon", "")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the client sends a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
			})
		})

		Convey("When the client sends no request id", func() {
			w := do(r, http.MethodGet, "/api/leaderboard", "")

			Convey("Then one is generated", func() {
				So(len(w.Header().Get(api.HeaderRequestID)), ShouldEqual, 36)
			})
		})

		Convey("When requesting operational routes", func() {
			health := do(r, http.MethodGet, "/healthz", "")
			stats := do(r, http.MethodGet, "/stats", "")

			Convey("Then metrics and stats are served", func() {
				So(health.Code, ShouldEqual, http.StatusOK)
				So(health.Body.String(), ShouldContainSubstring, "dexboard_leaderboard_")
				So(stats.Code, ShouldEqual, http.StatusOK)
				So(stats.Body.String(), ShouldContainSubstring, `"entries":3`)
			})
		})
	})
}

func TestLeaderboard_LegacyFile(t *testing.T) {
	Convey("Given a leaderboard file written with string scores", t, func() {
		path := filepath.Join(t.TempDir(), "leaderboard.json")
		legacy := `[{"name":"Red","score":"900"},{"name":"Blue","score":800},{"name":"Green","score":700}]`
		So(os.WriteFile(path, []byte(legacy), 0o600), ShouldBeNil)

		svc := service.New(service.WithStorePath(path))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		r := mux.NewRouter()
		api.NewServer(svc, svc).Register(context.Background(), r)

		Convey("When a new score is posted", func() {
			post := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":1}`)
			entries := entriesOf(do(r, http.MethodGet, "/api/leaderboard", ""))

			Convey("Then the earlier history survives", func() {
				So(post.Code, ShouldEqual, http.StatusCreated)
				So(entries, ShouldResemble, []model.Entry{
					{Name: "Red", Score: 900},
					{Name: "Blue", Score: 800},
					{Name: "Green", Score: 700},
					{Name: "Ash", Score: 1},
				})
				So(repository.NewFileStore(path).Count(context.Background()), ShouldEqual, 4)
			})
		})
	})

	Convey("Given a leaderboard file holding an entry that cannot be decoded", t, func() {
		path := filepath.Join(t.TempDir(), "leaderboard.json")
		content := `[{"name":"Red","score":"lots"},{"name":"Blue","score":800}]`
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		svc := service.New(service.WithStorePath(path))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		r := mux.NewRouter()
		api.NewServer(svc, svc).Register(context.Background(), r)

		Convey("When a new score is posted", func() {
			post := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":1}`)

			Convey("Then the save is refused and the file is untouched", func() {
				So(post.Code, ShouldEqual, http.StatusInternalServerError)
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, content)
			})

			Convey("And the readable entries are still served", func() {
				entries := entriesOf(do(r, http.MethodGet, "/api/leaderboard", ""))
				So(entries, ShouldResemble, []model.Entry{{Name: "Blue", Score: 800}})
			})
		})
	})
}

func TestLeaderboard_EndToEnd(t *testing.T) {
	Convey("Given the API backed by a file store", t, func() {
		path := filepath.Join(t.TempDir(), "leaderboard.json")
		svc := service.New(service.WithStorePath(path))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		r := mux.NewRouter()
		api.NewServer(svc, svc).Register(context.Background(), r)

		Convey("When nothing has been saved yet", func() {
			w := do(r, http.MethodGet, "/api/leaderboard", "")

			Convey("Then an empty JSON array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When a score is posted", func() {
			post := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":100}`)
			w := do(r, http.MethodGet, "/api/leaderboard", "")

			Convey("Then it leads the leaderboard", func() {
				So(post.Code, ShouldEqual, http.StatusCreated)
				So(entriesOf(w)[0], ShouldResemble, model.Entry{Name: "Ash", Score: 100})
			})
		})

		Convey("When eleven increasing scores are posted", func() {
			for i := 1; i <= 11; i++ {
				w := do(r, http.MethodPost, "/api/leaderboard", fmt.Sprintf(`{"name":"p%d","score":%d}`, i, i))
				So(w.Code, ShouldEqual, http.StatusCreated)
			}
			entries := entriesOf(do(r, http.MethodGet, "/api/leaderboard", ""))

			Convey("Then exactly the ten highest are returned", func() {
				So(len(entries), ShouldEqual, 10)
				So(entries[0].Score, ShouldEqual, 11)
				So(entries[9].Score, ShouldEqual, 2)
			})
		})

		Convey("When posts arrive concurrently", func() {
			const n = 30
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					do(r, http.MethodPost, "/api/leaderboard", fmt.Sprintf(`{"name":"p%d","score":%d}`, i, i))
				}(i)
			}
			wg.Wait()

			Convey("Then every entry is persisted", func() {
				So(repository.NewFileStore(path).Count(context.Background()), ShouldEqual, n)
			})
		})

		Convey("When a non-numeric score is posted", func() {
			w := do(r, http.MethodPost, "/api/leaderboard", `{"name":"Ash","score":"high"}`)

			Convey("Then the store is unchanged", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(repository.NewFileStore(path).Count(context.Background()), ShouldEqual, 0)
			})
		})
	})
}
