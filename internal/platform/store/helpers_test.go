package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	perr "sportsource/internal/platform/errors"
)

/*
   seam fakes for RowQuerier
*/

type fakeTag struct{ s string }

func (t fakeTag) String() string { return t.s }
func (t fakeTag) RowsAffected() int64 {
	// not used by helpers; the string carries the count
	return 0
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.scan != nil {
		return r.scan(dest...)
	}
	return nil
}

type fakeRows struct {
	cols []string
	data [][]any
	idx  int
	err  error
}

func newFakeRows(cols []string, data [][]any) *fakeRows {
	return &fakeRows{cols: cols, data: data, idx: -1}
}

func (r *fakeRows) Next() bool {
	if r.err != nil {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("scan out of range")
	}
	row := r.data[r.idx]
	if len(row) != len(dest) {
		return errors.New("dest len mismatch")
	}
	for i := range dest {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer {
			return errors.New("dest not pointer")
		}
		dv.Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return r.cols }

type fakeQuerier struct {
	execTag  string
	execErr  error
	rows     *fakeRows
	queryErr error
	row      fakeRow
}

func (q *fakeQuerier) Exec(_ context.Context, _ string, _ ...any) (CommandTag, error) {
	return fakeTag{q.execTag}, q.execErr
}

func (q *fakeQuerier) Query(_ context.Context, _ string, _ ...any) (Rows, error) {
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, _ ...any) Row {
	return q.row
}

func TestExecOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if err := ExecOne(ctx, &fakeQuerier{execTag: "UPDATE 1"}, "update t set x=1"); err != nil {
		t.Fatalf("ExecOne single row: %v", err)
	}
	if err := ExecOne(ctx, &fakeQuerier{execTag: "UPDATE 0"}, "update t set x=1"); err == nil {
		t.Fatalf("expected error for zero rows affected")
	}
	boom := errors.New("boom")
	if err := ExecOne(ctx, &fakeQuerier{execErr: boom}, "update t"); !errors.Is(err, boom) {
		t.Fatalf("expected exec error passthrough, got %v", err)
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{row: fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = 42
		return nil
	}}}
	got, err := Scalar[int64](context.Background(), q, "select count(*) from t")
	if err != nil || got != 42 {
		t.Fatalf("Scalar = (%d, %v), want (42, nil)", got, err)
	}
}

func TestOne_FoundNotFoundAndTooMany(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	scan := func(r Row) (string, error) {
		var s string
		err := r.Scan(&s)
		return s, err
	}

	q := &fakeQuerier{rows: newFakeRows([]string{"name"}, [][]any{{"venue-a"}})}
	got, err := One(ctx, q, scan, "select name from venues where id=$1", 1)
	if err != nil || got != "venue-a" {
		t.Fatalf("One = (%q, %v), want (venue-a, nil)", got, err)
	}

	q = &fakeQuerier{rows: newFakeRows([]string{"name"}, nil)}
	if _, err := One(ctx, q, scan, "select name from venues"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	q = &fakeQuerier{rows: newFakeRows([]string{"name"}, [][]any{{"a"}, {"b"}})}
	if _, err := One(ctx, q, scan, "select name from venues"); err == nil {
		t.Fatalf("expected error for multiple rows")
	}
}

func TestMany(t *testing.T) {
	t.Parallel()

	scan := func(r Row) (string, error) {
		var s string
		err := r.Scan(&s)
		return s, err
	}

	q := &fakeQuerier{rows: newFakeRows([]string{"name"}, [][]any{{"a"}, {"b"}, {"c"}})}
	got, err := Many(context.Background(), q, scan, "select name from venues")
	if err != nil {
		t.Fatalf("Many: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("Many = %v", got)
	}

	boom := errors.New("boom")
	q = &fakeQuerier{queryErr: boom}
	if _, err := Many(context.Background(), q, scan, "select"); !errors.Is(err, boom) {
		t.Fatalf("expected query error passthrough, got %v", err)
	}
}
