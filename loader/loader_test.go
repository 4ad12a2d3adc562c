package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0644)
	assert.Nil(t, err)
	return path
}

func TestReadDatabase(t *testing.T) {
	path := writeTempFile(t, "db.txt", `
# uncertain transaction database
1:2:0.8 2:3:0.9

1:1:0.7 3:2:0.6
2:2:0.85 3:1:0.75
`)
	transactions, err := ReadDatabase(path)
	assert.Nil(t, err)
	assert.Equal(t, 3, len(transactions))

	assert.Equal(t, 1, transactions[0].TID)
	assert.Equal(t, 2, transactions[0].Items[1])
	assert.Equal(t, 3, transactions[0].Items[2])
	assert.Equal(t, 0.8, transactions[0].Probabilities[1])
	assert.Equal(t, 0.9, transactions[0].Probabilities[2])

	assert.Equal(t, 3, transactions[2].TID)
	assert.Equal(t, 1, transactions[2].Items[3])
	assert.Equal(t, 0.75, transactions[2].Probabilities[3])
}

func TestReadDatabaseSkipsMalformedEntries(t *testing.T) {
	path := writeTempFile(t, "db.txt", `1:2:0.8 2:3 3:x:0.5 4:0:0.5 5:1:1.5
6:2:0.9
bad line entirely
`)
	transactions, err := ReadDatabase(path)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(transactions))

	// Only the well-formed token survives from line 1.
	assert.Equal(t, map[int]int{1: 2}, transactions[0].Items)
	assert.Equal(t, map[int]int{6: 2}, transactions[1].Items)
}

func TestReadDatabaseRejectsEmpty(t *testing.T) {
	path := writeTempFile(t, "db.txt", "# only comments\n\n")
	_, err := ReadDatabase(path)
	assert.NotNil(t, err)

	_, err = ReadDatabase(filepath.Join(t.TempDir(), "missing.txt"))
	assert.NotNil(t, err)
}

func TestReadProfitTable(t *testing.T) {
	path := writeTempFile(t, "profits.txt", `
# item profit
1 5.0
2 3
3 -2.0
4 4.0
oops
5 abc
`)
	profits, err := ReadProfitTable(path)
	assert.Nil(t, err)
	assert.Equal(t, map[int]float64{1: 5.0, 2: 3.0, 3: -2.0, 4: 4.0}, profits)
}

func TestReadProfitTableRejectsEmpty(t *testing.T) {
	path := writeTempFile(t, "profits.txt", "# nothing usable\nx y\n")
	_, err := ReadProfitTable(path)
	assert.NotNil(t, err)
}
