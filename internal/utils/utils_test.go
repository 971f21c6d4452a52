package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("absent readings encode as null", func(t *testing.T) {
		temp := 12.5
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, struct {
			Temperature *float64 `json:"temperature"`
			Windspeed   *float64 `json:"windspeed"`
		}{Temperature: &temp})

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
		if got, want := w.Body.String(), `{"temperature":12.5,"windspeed":null}`+"\n"; got != want {
			t.Errorf("body = %q; want %q", got, want)
		}
	})

	t.Run("empty forecast stays an array", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, map[string][]string{"forecast": {}})

		if got, want := w.Body.String(), `{"forecast":[]}`+"\n"; got != want {
			t.Errorf("body = %q; want %q", got, want)
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadGateway, "weather provider unavailable")

	if w.Code != http.StatusBadGateway {
		t.Errorf("Code = %d; want %d", w.Code, http.StatusBadGateway)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["error"] != "Bad Gateway" {
		t.Errorf("error = %q; want %q", got["error"], "Bad Gateway")
	}
	if got["message"] != "weather provider unavailable" {
		t.Errorf("message = %q; want %q", got["message"], "weather provider unavailable")
	}
}
