// Package parquetexport writes a read savgo Table plus its Metadata out
// as a Parquet file: a thin, optional sink for an already-parsed table,
// never imported by the core read path.
package parquetexport

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/arrowsav/savgo"
)

// WriteFile writes table to destFile as a Snappy-compressed Parquet file.
// Column order and names follow table's schema exactly (savgo's schema is
// itself derived from the visible variable declaration order); every column
// is written as optional (nullable). meta may be nil; when present, its
// declared row count is cross-checked against table before anything is
// written.
func WriteFile(table arrow.Table, meta *savgo.Metadata, destFile string) error {
	if meta != nil && meta.NumberRows != nil && *meta.NumberRows != table.NumRows() {
		return fmt.Errorf("parquetexport: metadata declares %d rows, table has %d", *meta.NumberRows, table.NumRows())
	}

	f, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("parquetexport: create %s: %w", destFile, err)
	}
	defer f.Close()

	groupNode, err := schemaToGroupNode(table.Schema())
	if err != nil {
		return err
	}

	props := parquet.NewWriterProperties(
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(compress.Codecs.Snappy),
	)

	pw := pqfile.NewParquetWriter(f, groupNode, pqfile.WithWriterProps(props))
	defer pw.Close()

	rgw := pw.AppendBufferedRowGroup()
	for i := 0; i < int(table.NumCols()); i++ {
		cw, err := rgw.Column(i)
		if err != nil {
			return fmt.Errorf("parquetexport: column %d: %w", i, err)
		}
		if err := writeColumn(cw, table.Schema().Field(i), table.Column(i)); err != nil {
			return err
		}
	}
	if err := rgw.Close(); err != nil {
		return fmt.Errorf("parquetexport: close row group: %w", err)
	}
	if err := pw.FlushWithFooter(); err != nil {
		return fmt.Errorf("parquetexport: flush: %w", err)
	}
	return nil
}

// schemaToGroupNode builds the Parquet schema for an arbitrary savgo output
// schema: every field is nullable, and is one of the two types savgo ever
// produces: Float64 or Utf8.
func schemaToGroupNode(schema *arrow.Schema) (*pqschema.GroupNode, error) {
	fields := make(pqschema.FieldList, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		switch f.Type.ID() {
		case arrow.FLOAT64:
			fields = append(fields, pqschema.NewFloat64Node(f.Name, parquet.Repetitions.Optional, -1))
		case arrow.STRING:
			node, err := pqschema.NewPrimitiveNodeConverted(
				f.Name, parquet.Repetitions.Optional, parquet.Types.ByteArray,
				pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)
			if err != nil {
				return nil, fmt.Errorf("parquetexport: building node for %q: %w", f.Name, err)
			}
			fields = append(fields, node)
		default:
			return nil, fmt.Errorf("parquetexport: unsupported column type %s for %q", f.Type, f.Name)
		}
	}
	group, err := pqschema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1)
	if err != nil {
		return nil, fmt.Errorf("parquetexport: building schema: %w", err)
	}
	return group, nil
}

func writeColumn(cw pqfile.ColumnChunkWriter, field arrow.Field, col *arrow.Column) error {
	switch field.Type.ID() {
	case arrow.FLOAT64:
		return writeFloat64Column(cw, field.Name, col)
	case arrow.STRING:
		return writeUtf8Column(cw, field.Name, col)
	default:
		return fmt.Errorf("parquetexport: unsupported column type %s for %q", field.Type, field.Name)
	}
}

func writeFloat64Column(cw pqfile.ColumnChunkWriter, name string, col *arrow.Column) error {
	fcw, ok := cw.(*pqfile.Float64ColumnChunkWriter)
	if !ok {
		return fmt.Errorf("parquetexport: column %q: expected float64 writer", name)
	}
	for _, chunk := range col.Data().Chunks() {
		arr, ok := chunk.(*array.Float64)
		if !ok {
			return fmt.Errorf("parquetexport: column %q: expected float64 chunk", name)
		}
		values := make([]float64, 0, arr.Len())
		defLevels := make([]int16, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			defLevels[i] = 1
			values = append(values, arr.Value(i))
		}
		if _, err := fcw.WriteBatch(values, defLevels, nil); err != nil {
			return fmt.Errorf("parquetexport: column %q: %w", name, err)
		}
	}
	return nil
}

func writeUtf8Column(cw pqfile.ColumnChunkWriter, name string, col *arrow.Column) error {
	bcw, ok := cw.(*pqfile.ByteArrayColumnChunkWriter)
	if !ok {
		return fmt.Errorf("parquetexport: column %q: expected byte-array writer", name)
	}
	for _, chunk := range col.Data().Chunks() {
		arr, ok := chunk.(*array.String)
		if !ok {
			return fmt.Errorf("parquetexport: column %q: expected string chunk", name)
		}
		values := make([]parquet.ByteArray, 0, arr.Len())
		defLevels := make([]int16, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			defLevels[i] = 1
			values = append(values, parquet.ByteArray(arr.Value(i)))
		}
		if _, err := bcw.WriteBatch(values, defLevels, nil); err != nil {
			return fmt.Errorf("parquetexport: column %q: %w", name, err)
		}
	}
	return nil
}
