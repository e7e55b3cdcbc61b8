package bulk

import (
	"fmt"

	"github.com/syssam/bulkwrite/columns"
	"github.com/syssam/bulkwrite/dialect/sql"
)

// correlation describes how output rows map to objects.
type correlation struct {
	// indexed output rows start with the IndexColumn value; otherwise rows
	// map to objects by arrival position.
	indexed bool
	// base is subtracted from index values (1 for unnest ordinality).
	base int
}

// visitFunc receives one output row: the object position it correlates to,
// or -1 if the row carries no index, and the scanned member values.
type visitFunc func(pos int, holders []any) error

// readOutput scans the rows of an output clause and returns their count.
func readOutput(rows *sql.Rows, out []*columns.Property, corr correlation, visit visitFunc) (int64, error) {
	var n int64
	for pos := 0; rows.Next(); pos++ {
		var idx sql.NullInt64
		dest := make([]any, 0, len(out)+1)
		if corr.indexed {
			dest = append(dest, &idx)
		}
		for _, p := range out {
			dest = append(dest, columns.NewHolder(p))
		}
		if err := rows.Scan(dest...); err != nil {
			return n, fmt.Errorf("bulk: scan output: %w", err)
		}
		n++
		target, holders := pos, dest
		if corr.indexed {
			target, holders = -1, dest[1:]
			if idx.Valid {
				target = int(idx.Int64) - corr.base
			}
		}
		if err := visit(target, holders); err != nil {
			return n, err
		}
	}
	return n, nil
}

// assignTo writes output rows back onto the objects of a batch.
func assignTo[T any](objs []*T, out []*columns.Property) visitFunc {
	return func(pos int, holders []any) error {
		if pos < 0 {
			return nil
		}
		if pos >= len(objs) {
			return fmt.Errorf("bulk: output row for object %d, batch has %d", pos, len(objs))
		}
		for i, p := range out {
			if err := columns.Assign(p, objs[pos], holders[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// collect materializes every output row as a new object.
func collect[T any](dst *[]*T, out []*columns.Property) visitFunc {
	return func(_ int, holders []any) error {
		obj := new(T)
		for i, p := range out {
			if err := columns.Assign(p, obj, holders[i]); err != nil {
				return err
			}
		}
		*dst = append(*dst, obj)
		return nil
	}
}
