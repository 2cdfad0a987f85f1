package snapshot_test

import (
	"testing"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *snapshot.Document {
	return snapshot.New("session-1", 2, []snapshot.NodeRecord{
		{
			ID:       1,
			Title:    "New number",
			Template: "New number",
			X:        2, Y: 2, W: 14,
			Inputs: []snapshot.InputRecord{
				{Label: "number", Value: snapshot.ValueRecord{Kind: "integer", Integer: 3}},
			},
			Consumers: []uint64{2},
		},
		{
			ID:       2,
			Title:    "Repeat string",
			Template: "Repeat string",
			Inputs: []snapshot.InputRecord{
				{Label: "string", Value: snapshot.ValueRecord{Kind: "text", Text: "ab"}},
				{Label: "number", Producer: 1, Value: snapshot.ValueRecord{Kind: "integer"}},
			},
		},
	})
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := sampleDocument()

	data, err := doc.Marshal()
	require.NoError(t, err)

	got, err := snapshot.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, snapshot.Version, got.Version)
	assert.Equal(t, "session-1", got.SessionID)
	assert.Equal(t, uint64(2), got.LastID)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, doc.Nodes[0].Inputs, got.Nodes[0].Inputs)
	assert.Equal(t, []uint64{2}, got.Nodes[0].Consumers)
	assert.Equal(t, uint64(1), got.Nodes[1].Inputs[1].Producer)
	assert.True(t, doc.SavedAt.Equal(got.SavedAt))
}

func TestNew_NilNodes(t *testing.T) {
	doc := snapshot.New("", 0, nil)
	data, err := doc.Marshal()
	require.NoError(t, err)

	got, err := snapshot.Unmarshal(data)
	require.NoError(t, err)
	assert.Empty(t, got.Nodes)
}

func TestUnmarshal_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"not json", "\x00\x01garbage"},
		{"empty", ""},
		{"array", `[]`},
		{"missing nodes", `{"version": 1, "last_id": 0}`},
		{"zero node id", `{"version": 1, "last_id": 1, "nodes": [{"id": 0, "template": "New number", "inputs": []}]}`},
		{"bad kind", `{"version": 1, "last_id": 1, "nodes": [{"id": 1, "template": "New number", "inputs": [{"producer": 0, "value": {"kind": "float"}}]}]}`},
		{"negative producer", `{"version": 1, "last_id": 1, "nodes": [{"id": 1, "template": "New number", "inputs": [{"producer": -1, "value": {"kind": "integer"}}]}]}`},
		{"duplicate consumers", `{"version": 1, "last_id": 2, "nodes": [{"id": 1, "template": "t", "inputs": [], "consumers": [2, 2]}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := snapshot.Unmarshal([]byte(tc.data))
			assert.ErrorIs(t, err, snapshot.ErrInvalidDocument)
		})
	}
}

func TestUnmarshal_SchemaErrorListsViolations(t *testing.T) {
	_, err := snapshot.Unmarshal([]byte(`{"version": "one", "nodes": []}`))

	var schemaErr *snapshot.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.NotEmpty(t, schemaErr.Violations)
}

func TestUnmarshal_VersionMismatch(t *testing.T) {
	_, err := snapshot.Unmarshal([]byte(`{"version": 99, "last_id": 0, "nodes": []}`))
	assert.ErrorIs(t, err, snapshot.ErrVersionMismatch)
}
