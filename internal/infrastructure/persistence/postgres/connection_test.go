package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"

	assert.Equal(t,
		"host=localhost port=5432 dbname=peassess user=postgres password=secret sslmode=disable connect_timeout=5",
		cfg.DSN())

	cfg.URL = "postgres://u:p@db:5432/x"
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
}

func TestConfig_PoolConfig(t *testing.T) {
	pc, err := DefaultConfig().PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(2), pc.MaxConns)

	_, err = Config{URL: "://bad"}.PoolConfig()
	assert.Error(t, err)
}

func TestMigrations_OrderedAndReversible(t *testing.T) {
	migs := Migrations()
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}
