package output

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Warn(&buf, "replay failed: %v", fmt.Errorf("scenario failed: %d of %d", 1, 2))
	assert.Equal(t, "Warning: replay failed: scenario failed: 1 of 2\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]int{"passed": 1}))
	assert.Equal(t, "{\n  \"passed\": 1\n}\n", buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tw := Table(&buf)
	fmt.Fprintln(tw, "A\tBB")
	fmt.Fprintln(tw, "CCC\tD")
	require.NoError(t, tw.Flush())
	assert.Equal(t, "A    BB\nCCC  D\n", buf.String())
}
