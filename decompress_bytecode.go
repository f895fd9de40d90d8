package savgo

import (
	"encoding/binary"
	"io"
	"math"
)

// slotSource produces the file's data section one 8-byte slot at a time,
// regardless of whether the underlying bytes are stored raw or behind the
// bytecode compressor. isEnd reports clean termination (opcode 252 for
// bytecode, or plain EOF for an uncompressed stream); a mid-row isEnd is
// turned into ErrUnexpectedEof by the row reader, not by the source.
type slotSource interface {
	NextSlot() (slot [8]byte, isEnd bool, err error)
}

// rawSlotSource reads uncompressed 8-byte slots directly off the stream.
type rawSlotSource struct {
	r io.Reader
}

func (s *rawSlotSource) NextSlot() ([8]byte, bool, error) {
	var buf [8]byte
	n, err := io.ReadFull(s.r, buf[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return [8]byte{}, true, nil
		}
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return [8]byte{}, false, ErrUnexpectedEof
		}
		return [8]byte{}, false, ioError(err)
	}
	return buf, false, nil
}

// bytecodeReader implements the stateful cross-row bytecode
// decompressor: an 8-byte control block of opcodes, each either producing a
// slot directly or consuming further bytes from the stream.
type bytecodeReader struct {
	src   io.Reader
	bias  float64
	order binary.ByteOrder

	control [8]byte
	idx     int // 8 means "need a fresh control block"
	done    bool
}

func newBytecodeReader(src io.Reader, bias float64, order binary.ByteOrder) *bytecodeReader {
	return &bytecodeReader{src: src, bias: bias, order: order, idx: 8}
}

func (r *bytecodeReader) NextSlot() ([8]byte, bool, error) {
	for {
		if r.done {
			return [8]byte{}, true, nil
		}
		if r.idx >= 8 {
			n, err := io.ReadFull(r.src, r.control[:])
			if err != nil {
				if err == io.EOF && n == 0 {
					r.done = true
					return [8]byte{}, true, nil
				}
				if err == io.ErrUnexpectedEOF || err == io.EOF {
					return [8]byte{}, false, ErrUnexpectedEof
				}
				return [8]byte{}, false, ioError(err)
			}
			r.idx = 0
		}

		op := r.control[r.idx]
		r.idx++

		switch {
		case op == opcodePadding:
			continue
		case op >= opcodeFirstValue && op <= opcodeLastValue:
			v := float64(op) - r.bias
			var out [8]byte
			r.order.PutUint64(out[:], math.Float64bits(v))
			return out, false, nil
		case op == opcodeEOF:
			r.done = true
			return [8]byte{}, true, nil
		case op == opcodeLiteral:
			var lit [8]byte
			if _, err := io.ReadFull(r.src, lit[:]); err != nil {
				return [8]byte{}, false, ErrUnexpectedEof
			}
			return lit, false, nil
		case op == opcodeSpaces:
			var sp [8]byte
			for i := range sp {
				sp[i] = ' '
			}
			return sp, false, nil
		case op == opcodeSysmis:
			var sm [8]byte
			r.order.PutUint64(sm[:], sysmisBits)
			return sm, false, nil
		}
		// Unreachable: every byte value is covered by the switch above.
		return [8]byte{}, false, protocolErrorf("impossible bytecode opcode %d", op)
	}
}
