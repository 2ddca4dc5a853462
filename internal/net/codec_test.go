package net

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0x04, 'h', 'i', 0x00}
	require.NoError(t, WriteFrame(&buf, payload))

	// 2-byte LE header counts itself.
	assert.Equal(t, byte(6), buf.Bytes()[0])
	assert.Equal(t, byte(0), buf.Bytes()[1])

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameTruncated(t *testing.T) {
	// Header promises 10 bytes, only 3 arrive.
	buf := bytes.NewBuffer([]byte{0x0c, 0x00, 1, 2, 3})
	_, err := ReadFrame(buf)
	assert.Error(t, err)
}

func TestReadFrameBadLength(t *testing.T) {
	for _, hdr := range [][]byte{{0x00, 0x00}, {0x01, 0x00}, {0x02, 0x00}} {
		buf := bytes.NewBuffer(hdr)
		_, err := ReadFrame(buf)
		assert.Error(t, err)
	}
}
