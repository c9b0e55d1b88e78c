package db

import (
	"testing"
	"testing/fstest"

	"github.com/campaign-manager/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_indexes.up.sql": {Data: []byte("SELECT 1")},
		"0001_init.up.sql":    {Data: []byte("SELECT 1")},
		"0001_init.down.sql":  {Data: []byte("SELECT 1")},
		"README.md":           {Data: []byte("docs")},
		"0003_later.up.sql":   {Data: []byte("SELECT 1")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: "0001_init", File: "0001_init.up.sql"},
		{Version: "0002_indexes", File: "0002_indexes.up.sql"},
		{Version: "0003_later", File: "0003_later.up.sql"},
	}, got)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	got, err := LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "0001_init", got[0].Version)
}
