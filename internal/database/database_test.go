package database

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"strings"
	"testing"

	"clinic_backend/migrations"

	"github.com/golang-migrate/migrate/v4"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "clinic", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=clinic sslmode=disable", cfg.DSN())
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Equal(t, len(ups), len(downs))
}

func TestDayReportViewsCountEveryMode(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	sort.Strings(ups)

	latest := map[string]string{}
	for _, name := range ups {
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(body), ";") {
			for _, view := range []string{"vw_day_report", "vw_day_report_by_professional"} {
				if strings.Contains(stmt, "VIEW "+view+" AS") {
					latest[view] = stmt
				}
			}
		}
	}

	require.Len(t, latest, 2)
	for view, stmt := range latest {
		assert.NotContains(t, stmt, "BUDGET", view)
	}
}

type fixedVersion struct {
	version uint
	dirty   bool
	err     error
}

func (f fixedVersion) Version() (uint, bool, error) { return f.version, f.dirty, f.err }

func TestSchemaState(t *testing.T) {
	version, dirty, err := schemaState(fixedVersion{err: migrate.ErrNilVersion})
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	version, dirty, err = schemaState(fixedVersion{version: 3, dirty: true})
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.True(t, dirty)

	boom := errors.New("connection reset")
	_, _, err = schemaState(fixedVersion{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestApplyMigrationsFailsWithoutDatabase(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: "1", User: "u", Password: "p", Name: "clinic", SSLMode: "disable"}
	err := ApplyMigrations(context.Background(), cfg)
	assert.Error(t, err)
}
