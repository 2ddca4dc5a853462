package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReaderWriterFields(t *testing.T) {
	w := NewWriterWithOpcode(C_OPCODE_ACTION)
	w.WriteS("req-42")
	w.WriteS("clone")
	w.WriteS("c:crate")
	w.WriteF(4.25)
	w.WriteF(-1.5)
	w.WriteF(0)
	w.WriteD(-7)
	w.WriteQ(1 << 40)
	w.WriteH(513)
	w.WriteC(9)

	r := NewReader(w.Bytes())
	assert.Equal(t, C_OPCODE_ACTION, r.Opcode())
	assert.Equal(t, "req-42", r.ReadS())
	assert.Equal(t, "clone", r.ReadS())
	assert.Equal(t, "c:crate", r.ReadS())
	assert.Equal(t, 4.25, r.ReadF())
	assert.Equal(t, -1.5, r.ReadF())
	assert.Zero(t, r.ReadF())
	assert.Equal(t, int32(-7), r.ReadD())
	assert.Equal(t, int64(1<<40), r.ReadQ())
	assert.Equal(t, uint16(513), r.ReadH())
	assert.Equal(t, byte(9), r.ReadC())
	assert.Zero(t, r.Remaining())
}

func TestReaderShortPayload(t *testing.T) {
	r := NewReader([]byte{C_OPCODE_MOVE, 0x01})
	assert.Equal(t, byte(1), r.ReadC())
	// Past the end everything reads as zero values.
	assert.Zero(t, r.ReadF())
	assert.Zero(t, r.ReadD())
	assert.Empty(t, r.ReadS())
}

func TestReadSUnterminated(t *testing.T) {
	w := NewWriterWithOpcode(0x01)
	w.WriteBytes([]byte("abc")) // no terminator
	r := NewReader(w.Bytes())
	assert.Equal(t, "abc", r.ReadS())
}

func TestRegistryStateGating(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	called := 0
	reg.Register(C_OPCODE_ACTION, []SessionState{StateInWorld}, func(sess any, r *Reader) {
		called++
	})

	pkt := NewWriterWithOpcode(C_OPCODE_ACTION).Bytes()
	require.NoError(t, reg.Dispatch(nil, StateInWorld, pkt))
	assert.Equal(t, 1, called)

	// Same opcode before entering the world is refused.
	assert.Error(t, reg.Dispatch(nil, StateConnected, pkt))
	assert.Equal(t, 1, called)

	// Unknown opcodes are ignored without error.
	assert.NoError(t, reg.Dispatch(nil, StateInWorld, NewWriterWithOpcode(0x7f).Bytes()))
}

func TestRegistryRecoversPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(C_OPCODE_QUIT, []SessionState{StateInWorld}, func(sess any, r *Reader) {
		panic("boom")
	})
	err := reg.Dispatch(nil, StateInWorld, NewWriterWithOpcode(C_OPCODE_QUIT).Bytes())
	assert.Error(t, err)
}
