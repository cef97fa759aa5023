package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameParser_SingleLine(t *testing.T) {
	p := &FrameParser{}
	p.Feed([]byte("Yes\n"))

	frame, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, frame.Block)
	require.Equal(t, [][]byte{[]byte("Yes")}, frame.Lines)
}

func TestFrameParser_IncompleteLine(t *testing.T) {
	p := &FrameParser{}
	p.Feed([]byte("Ye"))

	_, ok, err := p.Next()
	require.NoError(t, err)
	require.False(t, ok)

	p.Feed([]byte("s\n"))
	frame, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Yes", string(frame.Lines[0]))
}

func TestFrameParser_Block(t *testing.T) {
	p := &FrameParser{}
	p.Feed([]byte("START\nfoo 10 0.01 5 128\nbar 20 0.02 9 256\nEND\n"))

	frame, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, frame.Block)
	require.Len(t, frame.Lines, 2)
	require.Equal(t, "foo 10 0.01 5 128", string(frame.Lines[0]))
	require.Equal(t, "bar 20 0.02 9 256", string(frame.Lines[1]))
}

func TestFrameParser_BlockSplitAcrossChunks(t *testing.T) {
	p := &FrameParser{}
	chunks := []string{"STA", "RT\nfoo 1", "0 0.01 5 128\n", "E", "ND\n"}

	var frame *Frame
	for _, c := range chunks {
		p.Feed([]byte(c))
		for {
			f, ok, err := p.Next()
			require.NoError(t, err)
			if !ok {
				break
			}
			frame = f
		}
	}

	require.NotNil(t, frame)
	require.True(t, frame.Block)
	require.Equal(t, "foo 10 0.01 5 128", string(frame.Lines[0]))
}

func TestFrameParser_MultipleFramesInOneChunk(t *testing.T) {
	p := &FrameParser{}
	p.Feed([]byte("Yes\nNo\nDone\n"))

	var got []string
	for i := 0; i < 3; i++ {
		frame, ok, err := p.Next()
		require.NoError(t, err)
		require.True(t, ok)
		got = append(got, string(frame.Lines[0]))
	}
	require.Equal(t, []string{"Yes", "No", "Done"}, got)

	_, ok, err := p.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFrameParser_CarriageReturnTrimmed(t *testing.T) {
	p := &FrameParser{}
	p.Feed([]byte("Yes\r\n"))

	frame, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Yes", string(frame.Lines[0]))
}

func TestFrameParser_LoneCarriageReturnTerminator(t *testing.T) {
	p := &FrameParser{}
	p.Feed([]byte("Yes\rNo\r\n"))

	frame, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Yes", string(frame.Lines[0]))

	frame, ok, err = p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "No", string(frame.Lines[0]))
}

func TestFrameParser_LoneCarriageReturnAtChunkBoundary(t *testing.T) {
	p := &FrameParser{}
	p.Feed([]byte("Yes\r"))

	_, ok, err := p.Next()
	require.NoError(t, err)
	require.False(t, ok, "a trailing \\r at the end of buffered bytes must wait to see if \\n follows")

	p.Feed([]byte("No\n"))

	frame, ok, err := p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Yes", string(frame.Lines[0]))

	frame, ok, err = p.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "No", string(frame.Lines[0]))
}

func TestFrameParser_ByteAtATimeTrickle(t *testing.T) {
	p := &FrameParser{}
	msg := "START\nfoo 1 0.01 1 1\nEND\n"

	var frame *Frame
	for i := 0; i < len(msg); i++ {
		p.Feed([]byte{msg[i]})
		if f, ok, err := p.Next(); ok {
			require.NoError(t, err)
			frame = f
		}
	}

	require.NotNil(t, frame)
	require.True(t, frame.Block)
}
