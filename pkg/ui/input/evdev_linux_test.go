//go:build linux

package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

func TestEvdev_Run(t *testing.T) {
	var buf bytes.Buffer
	for _, ev := range []inputEvent{
		{Type: evKey, Code: uint16(terminal.CodeLeftShift), Value: 1},
		{Type: 0, Code: 0, Value: 0},
		{Type: evKey, Code: uint16(terminal.CodeW), Value: 1},
		{Type: evKey, Code: uint16(terminal.CodeW), Value: 2},
	} {
		require.NoError(t, binary.Write(&buf, binary.NativeEndian, ev))
	}
	require.Equal(t, 4*eventSize, buf.Len())

	p := NewPipeline(8)
	dev := newEvdev("test", io.NopCloser(&buf))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, dev.Run(ctx, p))

	snap := p.Poll()
	require.Len(t, snap.Keys, 2)
	assert.Equal(t, terminal.CodeLeftShift, snap.Keys[0].Code)
	assert.Equal(t, terminal.ModNone, snap.Keys[0].Mods)
	assert.True(t, snap.Keys[1].Is("shift+W"))
	assert.Equal(t, 'W', snap.Keys[1].Rune)
	assert.True(t, snap.Keys[1].Pressed())
}
