package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdb/partdb-core/internal/store"
	"github.com/partdb/partdb-core/internal/tree"
)

var addFlags = map[string]string{"--name": "name", "-n": "name", "--set": "set"}

func TestParseArgs(t *testing.T) {
	p, err := parseArgs(
		[]string{"categories", "-n", "SMD", "--set", "a=1", "--set", "b=2", "-r", "-5"},
		addFlags,
		map[string]string{"-r": "recursive"},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"categories", "-5"}, p.positional)
	name, ok := p.value("name")
	assert.True(t, ok)
	assert.Equal(t, "SMD", name)
	assert.Equal(t, []string{"a=1", "b=2"}, p.values["set"])
	assert.True(t, p.switches["recursive"])
}

func TestParseArgs_Errors(t *testing.T) {
	_, err := parseArgs([]string{"--name"}, addFlags, nil)
	assert.ErrorContains(t, err, "requires a value")

	_, err = parseArgs([]string{"--bogus"}, addFlags, nil)
	assert.ErrorContains(t, err, "unknown flag")
}

func TestParseAttributes(t *testing.T) {
	tables := tree.TablesFrom(store.NodeTables())

	got, err := parseAttributes(tables[store.TableDevices], []string{"order_quantity=3", "order_only_missing_parts=true"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"order_quantity": int64(3), "order_only_missing_parts": true}, got)

	got, err = parseAttributes(tables[store.TableFootprints], []string{"filename=soic8.png", "colour=red"})
	require.NoError(t, err)
	assert.Equal(t, "soic8.png", got["filename"])
	assert.Equal(t, "red", got["colour"])

	_, err = parseAttributes(tables[store.TableStorelocations], []string{"is_full=maybe"})
	assert.ErrorContains(t, err, "true or false")

	_, err = parseAttributes(tables[store.TableStorelocations], []string{"is_full"})
	assert.ErrorContains(t, err, "key=value")

	got, err = parseAttributes(tables[store.TableCategories], nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Widerst…", truncate("Widerstände", 8))
}
