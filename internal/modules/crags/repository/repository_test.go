package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cragdb "cragcast/internal/db"
	"cragcast/internal/logging"
	"cragcast/internal/migrate"
	"cragcast/internal/modules/crags/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(cragdb.DriverName, "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = migrate.Run(context.Background(), db, logging.Discard())
	require.NoError(t, err)
	return db
}

func catalogue() []types.CragWithRoutes {
	return []types.CragWithRoutes{
		{
			Crag: types.Crag{ID: 1, Name: "Dalkey Quarry", Country: "Ireland", County: "Dublin", Latitude: 53.2711, Longitude: -6.1047, RockType: "Granite"},
			Routes: []types.Route{
				{Position: 0, Sector: "East Valley", Name: "Paradise Lost", Type: "Trad", Grade: "VS", SafetyGrade: "4c"},
				{Position: 1, Sector: "East Valley", Name: "", Type: "Trad", Grade: "HS"},
				{Position: 2, Sector: "West Valley", Name: "Ghost", Type: "Sport", Grade: "6a"},
			},
		},
		{
			Crag: types.Crag{ID: 2, Name: "Ailladie", Country: "Ireland", County: "Clare", Latitude: 53.0714, Longitude: -9.3579, RockType: "Limestone"},
			Routes: []types.Route{
				{Position: 0, Name: "Ground Control", Type: "Trad", Grade: "E1"},
			},
		},
		{
			Crag: types.Crag{ID: 3, Name: "Stanage Edge", Country: "England", County: "Derbyshire", Latitude: 53.3580, Longitude: -1.6340, RockType: "Gritstone"},
			Routes: []types.Route{
				{Position: 0, Name: "Flying Buttress", Type: "Trad", Grade: "HVD"},
				{Position: 1, Name: "Left Unconquerable", Type: "Trad", Grade: "E1"},
			},
		},
		{
			// same rounded location as Dalkey
			Crag: types.Crag{ID: 4, Name: "Dalkey 100%_Wall", Country: "Ireland", County: "Dublin", Latitude: 53.27112, Longitude: -6.10468, RockType: "Granite"},
		},
	}
}

func seeded(t *testing.T) CragRepository {
	t.Helper()
	repo := NewRepository(setupTestDB(t))
	require.NoError(t, repo.ReplaceAll(context.Background(), catalogue()))
	return repo
}

func names(crags []types.Crag) []string {
	out := make([]string, 0, len(crags))
	for _, c := range crags {
		out = append(out, c.Name)
	}
	return out
}

func TestListCrags_Filters(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter types.CragFilter
		want   []string
	}{
		{name: "no filter sorts by name", filter: types.CragFilter{}, want: []string{"Ailladie", "Dalkey 100%_Wall", "Dalkey Quarry", "Stanage Edge"}},
		{name: "search is case insensitive", filter: types.CragFilter{Search: "dALKEY"}, want: []string{"Dalkey 100%_Wall", "Dalkey Quarry"}},
		{name: "search treats % literally", filter: types.CragFilter{Search: "100%"}, want: []string{"Dalkey 100%_Wall"}},
		{name: "search treats _ literally", filter: types.CragFilter{Search: "y_q"}, want: nil},
		{name: "country", filter: types.CragFilter{Countries: []string{"England"}}, want: []string{"Stanage Edge"}},
		{name: "empty value disables filter", filter: types.CragFilter{Countries: []string{"England", ""}}, want: []string{"Ailladie", "Dalkey 100%_Wall", "Dalkey Quarry", "Stanage Edge"}},
		{name: "county multi", filter: types.CragFilter{Counties: []string{"Clare", "Derbyshire"}}, want: []string{"Ailladie", "Stanage Edge"}},
		{name: "rocktype and country", filter: types.CragFilter{Countries: []string{"Ireland"}, RockTypes: []string{"Limestone"}}, want: []string{"Ailladie"}},
		{name: "route type", filter: types.CragFilter{RouteTypes: []string{"Sport"}}, want: []string{"Dalkey Quarry"}},
		{name: "routes count desc", filter: types.CragFilter{SortBy: types.SortByRoutesCount, SortOrder: types.Desc}, want: []string{"Dalkey Quarry", "Stanage Edge", "Ailladie", "Dalkey 100%_Wall"}},
		{name: "county asc", filter: types.CragFilter{SortBy: types.SortByCounty, Countries: []string{"Ireland"}}, want: []string{"Ailladie", "Dalkey Quarry", "Dalkey 100%_Wall"}},
		{name: "limit and offset", filter: types.CragFilter{Limit: 2, Offset: 1}, want: []string{"Dalkey 100%_Wall", "Dalkey Quarry"}},
		{name: "offset past end", filter: types.CragFilter{Limit: 2, Offset: 10}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListCrags(ctx, tt.filter)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))

			n, err := repo.CountCrags(ctx, types.CragFilter{
				Search: tt.filter.Search, Countries: tt.filter.Countries, Counties: tt.filter.Counties,
				RockTypes: tt.filter.RockTypes, RouteTypes: tt.filter.RouteTypes,
			})
			require.NoError(t, err)
			if tt.filter.Limit == 0 {
				assert.Equal(t, len(tt.want), n)
			}
		})
	}
}

func TestListCrags_SearchFoldsNonASCIICase(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.ReplaceAll(ctx, []types.CragWithRoutes{
		{Crag: types.Crag{ID: 1, Name: "Écrins Slabs", Country: "France", Latitude: 44.9, Longitude: 6.4}},
		{Crag: types.Crag{ID: 2, Name: "Ötztal Gneiss", Country: "Austria", Latitude: 47.1, Longitude: 10.9}},
		{Crag: types.Crag{ID: 3, Name: "Dalkey Quarry", Country: "Ireland", Latitude: 53.2, Longitude: -6.1}},
	}))

	for search, want := range map[string][]string{
		"écrins": {"Écrins Slabs"},
		"ÉCRINS": {"Écrins Slabs"},
		"ötz":    {"Ötztal Gneiss"},
		"GNEISS": {"Ötztal Gneiss"},
	} {
		got, err := repo.ListCrags(ctx, types.CragFilter{Search: search})
		require.NoError(t, err, search)
		assert.Equal(t, want, names(got), search)

		n, err := repo.CountCrags(ctx, types.CragFilter{Search: search})
		require.NoError(t, err, search)
		assert.Equal(t, 1, n, search)
	}
}

func TestListCrags_RoutesCountIncludesUnnamed(t *testing.T) {
	repo := seeded(t)
	got, err := repo.ListCrags(context.Background(), types.CragFilter{Search: "Quarry"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].RoutesCount)
}

func TestFilterOptions(t *testing.T) {
	repo := seeded(t)
	opts, err := repo.FilterOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"England", "Ireland"}, opts.Countries)
	assert.Equal(t, []string{"Clare", "Derbyshire", "Dublin"}, opts.Counties)
	assert.Equal(t, []string{"Granite", "Gritstone", "Limestone"}, opts.RockTypes)
	assert.Equal(t, []string{"Sport", "Trad"}, opts.RouteTypes)
}

func TestGetCrag(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	c, ok, err := repo.GetCrag(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Stanage Edge", c.Name)
	assert.Equal(t, "Gritstone", c.RockType)
	assert.Equal(t, 2, c.RoutesCount)

	_, ok, err = repo.GetCrag(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRoutes_DropsUnnamedAndKeepsOrder(t *testing.T) {
	repo := seeded(t)
	routes, err := repo.ListRoutes(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, routes, 2)
	assert.Equal(t, "Paradise Lost", routes[0].Name)
	assert.Equal(t, "4c", routes[0].SafetyGrade)
	assert.Equal(t, "Ghost", routes[1].Name)
	assert.Equal(t, 2, routes[1].Position)

	routes, err = repo.ListRoutes(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestReplaceAll(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	t.Run("replaces the previous catalogue", func(t *testing.T) {
		err := repo.ReplaceAll(ctx, []types.CragWithRoutes{
			{Crag: types.Crag{ID: 9, Name: "Fair Head", Country: "Northern Ireland", Latitude: 55.2, Longitude: -6.1}},
		})
		require.NoError(t, err)

		got, err := repo.ListCrags(ctx, types.CragFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Fair Head"}, names(got))

		routes, err := repo.ListRoutes(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("failure keeps the existing catalogue", func(t *testing.T) {
		dup := types.Crag{ID: 5, Name: "Twin"}
		err := repo.ReplaceAll(ctx, []types.CragWithRoutes{{Crag: dup}, {Crag: dup}})
		require.Error(t, err)

		got, err := repo.ListCrags(ctx, types.CragFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Fair Head"}, names(got))
	})
}

func TestLocations_DedupesByKey(t *testing.T) {
	repo := seeded(t)
	locs, err := repo.Locations(context.Background())
	require.NoError(t, err)

	keys := make([]string, 0, len(locs))
	for _, l := range locs {
		keys = append(keys, l.Key())
	}
	assert.ElementsMatch(t, []string{"53.0714_-9.3579", "53.2711_-6.1047", "53.3580_-1.6340"}, keys)
}
