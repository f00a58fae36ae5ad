package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/1siamBot/lullaby/engine/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	cmd := NewRootCmd(nil)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOrderPrintsRanking(t *testing.T) {
	out, err := execute(t, "order", "--log-level", "warn")
	require.NoError(t, err)
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "RenderSquare")
	assert.Contains(t, out, "Bench")
}

func TestOrderRejectsUnknownKey(t *testing.T) {
	_, err := execute(t, "order", "--ticks", "1", "--hold", "ctrl", "--log-level", "error")
	assert.ErrorContains(t, err, "ctrl")
}

func TestSnapshotWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	_, err := execute(t, "snapshot", "--out", path, "--ticks", "5", "--hold", "w,d", "--log-level", "error")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestBadConfigFails(t *testing.T) {
	_, err := execute(t, "order", "--log-level", "loud")
	assert.Error(t, err)
}

func TestRunNeedsWindow(t *testing.T) {
	_, err := execute(t, "run", "--log-level", "error")
	assert.ErrorContains(t, err, "window")

	var shown string
	t.Chdir(t.TempDir())
	cmd := NewRootCmd(func(g *game.Game) error {
		shown = g.Scene.Name
		return nil
	})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--log-level", "error"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "snowfield", shown)
}
