package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leqnet/go-leq/pkg/types"
)

func TestRun_Sample(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-topology", "sample", "-server", "4", "-clients", "1,5", "-json"}, &out)
	require.NoError(t, err)

	var rep report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "4/0", rep.Service)
	assert.Equal(t, "converged", rep.Status)
	require.Len(t, rep.Clients, 2)
	for _, c := range rep.Clients {
		assert.Equal(t, int64(6), c.Length)
	}
	assert.Equal(t, []int64{1, 5}, rep.Changed)
}

func TestRun_Text(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-server", "4", "-clients", "10.0.0.1,5,999", "-tolerance", "0.1", "-overhead", "1"}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "converged")
	assert.Contains(t, s, "5->2->6->4")
	assert.Contains(t, s, "rejected 999")
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"-clients", "1"}, &out))
	assert.Error(t, run([]string{"-server", "4"}, &out))
	assert.Error(t, run([]string{"-server", "4", "-clients", "bogus"}, &out))
	assert.Error(t, run([]string{"-server", "99", "-clients", "1"}, &out))
	assert.Error(t, run([]string{"-server", "4", "-clients", "1", "-preset", "turbo"}, &out))
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &out))
	assert.Contains(t, out.String(), "leqroute")
}

func TestParseClients(t *testing.T) {
	ids, err := parseClients("1, 10.0.0.3 ,,4", "sample")
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{1, 8, 4}, ids)

	_, err = parseClients("10.0.0.3", "abilene")
	assert.Error(t, err)
}
