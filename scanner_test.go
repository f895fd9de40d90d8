package savgo_test

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/apache/arrow-go/v18/arrow/array"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	savgo "github.com/arrowsav/savgo"
)

func buildThreeRowFixture() []byte {
	b := newSavBuilder(binary.LittleEndian)
	b.header("$FL2", 0, 0, 3, 2, 100.0)
	fmt8 := packedFormat(formatTypeFForTest, 8, 2)
	b.variable(0, "X", fmt8, fmt8, "")
	b.variable(0, "Y", fmt8, fmt8, "")
	b.terminator()
	b.float64(1.0).float64(10.0)
	b.float64(2.0).float64(20.0)
	b.float64(3.0).float64(30.0)
	return b.Bytes()
}

var _ = Describe("Scanner", func() {
	It("produces the same rows as the eager Read path", func() {
		data := buildThreeRowFixture()

		table, _, err := savgo.Read(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())

		scanner, err := savgo.NewScanner(bytes.NewReader(data), 10)
		Expect(err).NotTo(HaveOccurred())
		rec, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).NotTo(BeNil())
		Expect(rec.NumRows()).To(Equal(table.NumRows()))
		Expect(rec.NumCols()).To(Equal(table.NumCols()))

		eagerX := table.Column(0).Data().Chunks()[0].(*array.Float64)
		scanX := rec.Column(0).(*array.Float64)
		for i := 0; i < int(table.NumRows()); i++ {
			Expect(scanX.Value(i)).To(Equal(eagerX.Value(i)))
		}

		done, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeNil())
	})

	It("restricts output to the selected columns while still consuming every slot", func() {
		data := buildThreeRowFixture()
		scanner, err := savgo.NewScanner(bytes.NewReader(data), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(scanner.SelectColumns("Y")).To(Succeed())

		rec, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.NumCols()).To(Equal(int64(1)))
		y := rec.Column(0).(*array.Float64)
		Expect(y.Value(0)).To(Equal(10.0))
		Expect(y.Value(1)).To(Equal(20.0))
		Expect(y.Value(2)).To(Equal(30.0))
	})

	It("stops after the configured row limit", func() {
		data := buildThreeRowFixture()
		scanner, err := savgo.NewScanner(bytes.NewReader(data), 10)
		Expect(err).NotTo(HaveOccurred())
		scanner.SetRowLimit(2)

		rec, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.NumRows()).To(Equal(int64(2)))

		rec2, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec2).To(BeNil())
	})

	It("stops at the declared case count even when trailing opcodes remain", func() {
		b := newSavBuilder(binary.LittleEndian)
		b.header("$FL2", 1, 0, 3, 1, 100.0)
		fmt8 := packedFormat(formatTypeFForTest, 8, 2)
		b.variable(0, "V", fmt8, fmt8, "")
		b.terminator()
		b.raw([]byte{101, 102, 253, 0, 0, 0, 0, 0})
		b.float64(42.0)
		b.raw([]byte{255, 252, 0, 0, 0, 0, 0, 0})

		scanner, err := savgo.NewScanner(bytes.NewReader(b.Bytes()), 10)
		Expect(err).NotTo(HaveOccurred())
		rec, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.NumRows()).To(Equal(int64(3)))
		v := rec.Column(0).(*array.Float64)
		Expect(v.Value(0)).To(Equal(1.0))
		Expect(v.Value(1)).To(Equal(2.0))
		Expect(v.Value(2)).To(Equal(42.0))

		done, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(done).To(BeNil())
	})

	It("reports a protocol error when the stream ends before the declared case count", func() {
		b := newSavBuilder(binary.LittleEndian)
		b.header("$FL2", 0, 0, 5, 1, 100.0)
		fmt8 := packedFormat(formatTypeFForTest, 8, 2)
		b.variable(0, "V", fmt8, fmt8, "")
		b.terminator()
		b.float64(1.0).float64(2.0)

		scanner, err := savgo.NewScanner(bytes.NewReader(b.Bytes()), 10)
		Expect(err).NotTo(HaveOccurred())
		_, err = scanner.NextBatch()
		Expect(err).To(HaveOccurred())
		var perr *savgo.ProtocolError
		Expect(err).To(BeAssignableToTypeOf(perr))
		Expect(scanner.Error()).To(Equal(err))
	})

	It("reads from a filesystem path and releases it on Close", func() {
		path := GinkgoT().TempDir() + "/fixture.sav"
		Expect(os.WriteFile(path, buildThreeRowFixture(), 0o644)).To(Succeed())

		scanner, err := savgo.NewScannerFile(path, 10)
		Expect(err).NotTo(HaveOccurred())
		rec, err := scanner.NextBatch()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.NumRows()).To(Equal(int64(3)))
		Expect(scanner.Close()).To(Succeed())
	})

	It("rejects an unknown column name", func() {
		data := buildThreeRowFixture()
		scanner, err := savgo.NewScanner(bytes.NewReader(data), 10)
		Expect(err).NotTo(HaveOccurred())
		err = scanner.SelectColumns("NOPE")
		Expect(err).To(HaveOccurred())
		var uerr *savgo.UnknownVariableError
		Expect(err).To(BeAssignableToTypeOf(uerr))
	})
})
