package savgo

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zBlockEntry is one entry of the ZSAV trailer: the uncompressed and
// compressed byte ranges of one independently-inflatable zlib block.
type zBlockEntry struct {
	UncompressedOfs  int64
	CompressedOfs    int64
	UncompressedSize uint32
	CompressedSize   uint32
}

const zHeaderSize = 24
const zBlockEntrySize = 24

// newZlibBlockReader reads the ZSAV zheader at dataOfs (giving the offset
// and length of the trailer describing each compressed block), then
// returns an io.Reader that lazily inflates each block in sequence,
// presenting the concatenation as a single virtual byte stream.
func newZlibBlockReader(src io.ReaderAt, dataOfs int64, order binary.ByteOrder) (io.Reader, error) {
	hdr := make([]byte, zHeaderSize)
	if _, err := src.ReadAt(hdr, dataOfs); err != nil {
		return nil, ioError(err)
	}
	ztrailerOfs := int64(order.Uint64(hdr[8:16]))
	ztrailerLen := int64(order.Uint64(hdr[16:24]))
	if ztrailerLen < 0 || ztrailerLen%zBlockEntrySize != 0 {
		return nil, protocolErrorf("zsav trailer has implausible length %d", ztrailerLen)
	}

	trailer := make([]byte, ztrailerLen)
	if _, err := src.ReadAt(trailer, ztrailerOfs); err != nil {
		return nil, ioError(err)
	}

	n := int(ztrailerLen / zBlockEntrySize)
	entries := make([]zBlockEntry, n)
	for i := 0; i < n; i++ {
		off := i * zBlockEntrySize
		entries[i] = zBlockEntry{
			UncompressedOfs:  int64(order.Uint64(trailer[off : off+8])),
			CompressedOfs:    int64(order.Uint64(trailer[off+8 : off+16])),
			UncompressedSize: order.Uint32(trailer[off+16 : off+20]),
			CompressedSize:   order.Uint32(trailer[off+20 : off+24]),
		}
	}

	return &zlibBlockReader{src: src, entries: entries}, nil
}

// zlibBlockReader presents a sequence of independently zlib-compressed
// blocks as one continuous io.Reader.
type zlibBlockReader struct {
	src     io.ReaderAt
	entries []zBlockEntry
	idx     int
	cur     io.ReadCloser
}

func (z *zlibBlockReader) Read(p []byte) (int, error) {
	for {
		if z.cur == nil {
			if z.idx >= len(z.entries) {
				return 0, io.EOF
			}
			e := z.entries[z.idx]
			z.idx++
			compressed := make([]byte, e.CompressedSize)
			if _, err := z.src.ReadAt(compressed, e.CompressedOfs); err != nil {
				return 0, ioError(err)
			}
			zr, err := zlib.NewReader(bytes.NewReader(compressed))
			if err != nil {
				return 0, protocolErrorf("zsav block %d: %v", z.idx-1, err)
			}
			z.cur = zr
		}
		n, err := z.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			z.cur.Close()
			z.cur = nil
			continue
		}
		if err != nil {
			return 0, protocolErrorf("zsav block %d: %v", z.idx-1, err)
		}
	}
}
