package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cragcast/internal/config"
	db "cragcast/internal/db"
	"cragcast/internal/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		SQLitePath:         filepath.Join(t.TempDir(), "cragcast.db"),
		SQLiteMaxOpenConns: 1,
		SQLiteMaxIdleConns: 1,
		OpenMeteoTimeout:   2 * time.Second,
	}
}

func TestConditions_CurrentFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/weather/53.2711/-6.1047", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temperature":18.5,"humidity":72,"precipitation":null,"windspeed":25}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := Conditions(context.Background(), testConfig(t), logging.Discard(), &out, ConditionsOptions{
		Lat:    53.2711,
		Lon:    -6.1047,
		APIURL: srv.URL,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `^Temperature \(℃\)\s+18\.5℃\s+good$`, lines[0])
	assert.Regexp(t, `^Humidity \(%\)\s+72%\s+bad$`, lines[1])
	assert.Regexp(t, `^Precipitation \(mm\)\s+N/A\s+default$`, lines[2])
	assert.Regexp(t, `^Windspeed \(km/h\)\s+25 km/h\s+mild$`, lines[3])
}

func TestConditions_ForecastFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/forecast/53.2711/-6.1047", r.URL.Path)
		_, _ = w.Write([]byte(`{"forecast":[
			{"time":"2024-05-01T09:00","temperature":12,"humidity":40,"precipitation":0,"windspeed":5},
			{"time":"2024-05-01T10:00","temperature":20,"humidity":55,"precipitation":0.4,"windspeed":35}
		]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := Conditions(context.Background(), testConfig(t), logging.Discard(), &out, ConditionsOptions{
		Lat:      53.2711,
		Lon:      -6.1047,
		Forecast: true,
		APIURL:   srv.URL,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Time"))
	assert.Contains(t, lines[0], "Windspeed (km/h)")
	assert.True(t, strings.HasPrefix(lines[1], "01/05/2024, 09:00"))
	assert.Contains(t, lines[1], "12℃ (mild)")
	assert.Contains(t, lines[1], "0 mm (good)")
	assert.True(t, strings.HasPrefix(lines[2], "01/05/2024, 10:00"))
	assert.Contains(t, lines[2], "0.4 mm (bad)")
	assert.Contains(t, lines[2], "35 km/h (bad)")
}

func TestConditions_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Bad Gateway","message":"weather provider unavailable"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := Conditions(context.Background(), testConfig(t), logging.Discard(), &out, ConditionsOptions{APIURL: srv.URL})
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestImport(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "crags.csv")
	csv := "crag_id,crag_name,country,county,latitude,longitude,rocktype,sector_name,route_name,type,difficulty_grade,safety_grade\n" +
		"1,Dalkey Quarry,Ireland,Dublin,53.2711,-6.1047,Granite,East Valley,Paradise Lost,Trad,VS,4c\n" +
		"1,Dalkey Quarry,Ireland,Dublin,53.2711,-6.1047,Granite,East Valley,Graduate,Trad,HS,4b\n" +
		"2,Ailladie,Ireland,Clare,53.0714,-9.3579,Limestone,,Ground Control,Trad,E1,5b\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	res, err := Import(context.Background(), cfg, logging.Discard(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Crags)
	assert.Equal(t, 3, res.Routes)

	conn, err := db.Open(cfg, logging.Discard())
	require.NoError(t, err)
	defer func() { _ = db.Close(conn) }()

	var routes int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM routes WHERE crag_id = 1`).Scan(&routes))
	assert.Equal(t, 2, routes)
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, Migrate(context.Background(), cfg, logging.Discard()))
	require.NoError(t, Migrate(context.Background(), cfg, logging.Discard()))

	conn, err := db.Open(cfg, logging.Discard())
	require.NoError(t, err)
	defer func() { _ = db.Close(conn) }()

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM crags`).Scan(&n))
	assert.Equal(t, 0, n)
}
