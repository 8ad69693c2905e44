package layout

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugTree(t *testing.T) {
	root := &Stack{Children: []Node{txt("A"), &Stack{Direction: Row, Children: []Node{txt("B"), txt("C")}}}}
	out := DebugTree(layoutTree(t, root))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	require.Len(t, lines, 5)
	assert.Equal(t, "stack (0,0) 72x120", lines[0])
	assert.Contains(t, lines[1], `text (0,0) 36x60 "A"`)
	assert.Contains(t, lines[2], "stack (0,60) 72x60")
	assert.Contains(t, lines[4], `text (36,60) 36x60 "C"`)
	assert.Empty(t, DebugTree(nil))
}

func TestDebugJSON(t *testing.T) {
	data, err := MarshalDebugJSON(layoutTree(t, &Stack{Children: []Node{txt("A")}}))
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal(data, &v))
	assert.Equal(t, "stack", v["kind"])
	children := v["children"].([]any)
	require.Len(t, children, 1)
	assert.Equal(t, "A", children[0].(map[string]any)["text"])
}
