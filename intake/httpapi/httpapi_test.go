package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m3rciful/intakebot/core/buildinfo"
	"github.com/m3rciful/intakebot/intake/templates"
)

type staticTexts templates.Texts

func (s staticTexts) Snapshot() templates.Texts { return templates.Texts(s).Clone() }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(staticTexts{
		"ru": {"question_1": "Новый вопрос"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTextsSnapshot(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/texts")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var got templates.Texts
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["ru"]["question_1"] != "Новый вопрос" {
		t.Fatalf("texts = %+v", got)
	}
}

func TestTextsByLanguage(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/texts/ru")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/texts/de")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", resp.StatusCode)
	}
}

func TestVersion(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var info buildinfo.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version == "" || info.Commit == "" {
		t.Fatalf("info = %+v", info)
	}
}
