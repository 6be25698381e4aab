package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x Int64) ENGINE = Memory;

-- second
CREATE TABLE b (y String) ENGINE = Memory;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a"))
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b"))
}

func TestCheckLiterals(t *testing.T) {
	assert.NoError(t, checkLiterals(`SELECT 'it''s'; SELECT 1;`))
	assert.Error(t, checkLiterals(`SELECT 'a;b';`))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/revival")
	require.NoError(t, err)
	assert.Equal(t, "revival", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN("clickhouse://localhost:9000/bad-name")
	assert.Error(t, err)
}

func TestPending_SkipsAppliedAndSorts(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_b.sql":   {Data: []byte("SELECT 2;")},
		"pg/001_a.sql":   {Data: []byte("SELECT 1;")},
		"pg/003_c.sql":   {Data: []byte("SELECT 3;")},
		"pg/README.md":   {Data: []byte("notes")},
		"pg/sub/x.sql":   {Data: []byte("SELECT 0;")},
		"other/9_z.sql":  {Data: []byte("SELECT 9;")},
		"pg/000_old.sql": {Data: []byte("SELECT 0;")},
	}

	names, err := pending(fsys, "pg", map[string]bool{"000_old.sql": true, "002_b.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "003_c.sql"}, names)

	_, err = pending(fsys, "missing", nil)
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := pending(ClickhouseFS, "clickhouse", nil)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		body, err := readMigration(ClickhouseFS, "clickhouse", name)
		require.NoError(t, err)
		require.NoError(t, checkLiterals(body))
		assert.Len(t, splitStatements(body), 2, name)
	}

	pg, err := readMigration(PostgresFS, "postgres", "001_paper_trading.sql")
	require.NoError(t, err)
	assert.Contains(t, pg, "CREATE TABLE IF NOT EXISTS positions")
}
