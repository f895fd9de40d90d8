package savgo

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"
)

// parallelBuildThreshold is the row count at or above which column builders
// fan out across goroutines; below it the overhead isn't worth it.
const parallelBuildThreshold = 4096

// buildSchema derives the Arrow schema from the resolved, visible
// variable table, in declaration order.
func buildSchema(resolved []*resolvedVariable) *arrow.Schema {
	var fields []arrow.Field
	for _, rv := range resolved {
		if rv.IsContinuation || rv.IsGhost {
			continue
		}
		dt := arrow.DataType(arrow.BinaryTypes.String)
		if rv.VarType.Kind == KindNumeric {
			dt = arrow.PrimitiveTypes.Float64
		}
		fields = append(fields, arrow.Field{Name: rv.LongName, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

func buildColumn(mem memory.Allocator, schema *arrow.Schema, col int, rows [][]cellValue) arrow.Array {
	field := schema.Field(col)
	if field.Type.ID() == arrow.FLOAT64 {
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.Reserve(len(rows))
		for _, row := range rows {
			c := row[col]
			if c.IsNull {
				b.AppendNull()
			} else {
				b.Append(c.Num)
			}
		}
		return b.NewArray()
	}
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(len(rows))
	for _, row := range rows {
		b.Append(row[col].Str)
	}
	return b.NewArray()
}

// buildRecord assembles one Arrow record batch from row-major cell data.
// Column construction fans out across goroutines (via errgroup) once the
// batch is large enough to be worth the overhead.
func buildRecord(schema *arrow.Schema, rows [][]cellValue, concurrent bool) (arrow.Record, error) {
	mem := memory.NewGoAllocator()
	numCols := len(schema.Fields())
	arrays := make([]arrow.Array, numCols)

	if concurrent && numCols > 1 && len(rows) >= parallelBuildThreshold {
		var g errgroup.Group
		for col := 0; col < numCols; col++ {
			col := col
			g.Go(func() error {
				arrays[col] = buildColumn(mem, schema, col, rows)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for col := 0; col < numCols; col++ {
			arrays[col] = buildColumn(mem, schema, col, rows)
		}
	}

	rec := array.NewRecord(schema, arrays, int64(len(rows)))
	for _, a := range arrays {
		a.Release()
	}
	return rec, nil
}

// NewTable assembles an arrow.Table from row-major cell data, building
// columns serially.
func NewTable(schema *arrow.Schema, rows [][]cellValue) (arrow.Table, error) {
	return NewTableWithConcurrency(schema, rows, false)
}

// NewTableWithConcurrency is NewTable with an explicit parallel
// column-builder knob.
func NewTableWithConcurrency(schema *arrow.Schema, rows [][]cellValue, concurrent bool) (arrow.Table, error) {
	rec, err := buildRecord(schema, rows, concurrent)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec}), nil
}
