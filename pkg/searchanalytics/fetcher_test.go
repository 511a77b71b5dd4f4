package searchanalytics

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// fixedSource serves pages from a fixed row set, honoring StartRow and
// RowLimit like the remote endpoint does.
type fixedSource struct {
	rows     []Row
	requests int
	seen     []Request

	failAtRequest int // 1-based; 0 disables
	err           error
}

func (s *fixedSource) QueryPage(_ context.Context, _ string, req Request) ([]Row, error) {
	s.requests++
	s.seen = append(s.seen, req)

	if s.failAtRequest > 0 && s.requests == s.failAtRequest {
		return nil, s.err
	}

	start := req.StartRow
	if start >= int64(len(s.rows)) {
		return nil, nil
	}
	end := start + req.RowLimit
	if end > int64(len(s.rows)) {
		end = int64(len(s.rows))
	}
	return s.rows[start:end], nil
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Keys:        []string{fmt.Sprintf("/page-%04d", i)},
			Clicks:      float64(n - i),
			Impressions: float64((n - i) * 10),
			CTR:         0.1,
			Position:    float64(i%20) + 1,
		}
	}
	return rows
}

func TestFetchAll_ShortPageEndsFetch(t *testing.T) {
	// 250 rows in pages of 100: two full pages, one short page,
	// then stop - even though the target wants 1000.
	source := &fixedSource{rows: makeRows(250)}

	rows, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-10",
	}, FetchOptions{TargetLimit: 1000, PageSize: 100})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(rows) != 250 {
		t.Errorf("len(rows) = %d, want 250", len(rows))
	}
	if source.requests != 3 {
		t.Errorf("requests = %d, want 3", source.requests)
	}
}

func TestFetchAll_NeverExceedsTargetLimit(t *testing.T) {
	tests := []struct {
		name        string
		sourceRows  int
		targetLimit int
		pageSize    int
		wantRows    int
		wantCalls   int
	}{
		{
			name:        "target below source size truncates",
			sourceRows:  500,
			targetLimit: 250,
			pageSize:    100,
			wantRows:    250,
			wantCalls:   3,
		},
		{
			name:        "target equals one page",
			sourceRows:  500,
			targetLimit: 100,
			pageSize:    100,
			wantRows:    100,
			wantCalls:   1,
		},
		{
			name:        "target mid page",
			sourceRows:  500,
			targetLimit: 150,
			pageSize:    100,
			wantRows:    150,
			wantCalls:   2,
		},
		{
			name:        "source exactly a page multiple needs empty page",
			sourceRows:  200,
			targetLimit: 1000,
			pageSize:    100,
			wantRows:    200,
			wantCalls:   3,
		},
		{
			name:        "empty source",
			sourceRows:  0,
			targetLimit: 1000,
			pageSize:    100,
			wantRows:    0,
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fixedSource{rows: makeRows(tt.sourceRows)}

			rows, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{},
				FetchOptions{TargetLimit: tt.targetLimit, PageSize: tt.pageSize})
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}

			if len(rows) != tt.wantRows {
				t.Errorf("len(rows) = %d, want %d", len(rows), tt.wantRows)
			}
			if len(rows) > tt.targetLimit {
				t.Errorf("len(rows) = %d exceeds target limit %d", len(rows), tt.targetLimit)
			}
			if source.requests != tt.wantCalls {
				t.Errorf("requests = %d, want %d", source.requests, tt.wantCalls)
			}
		})
	}
}

func TestFetchAll_SequentialOffsets(t *testing.T) {
	source := &fixedSource{rows: makeRows(250)}

	_, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{},
		FetchOptions{TargetLimit: 1000, PageSize: 100})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	wantOffsets := []int64{0, 100, 200}
	if len(source.seen) != len(wantOffsets) {
		t.Fatalf("requests = %d, want %d", len(source.seen), len(wantOffsets))
	}
	for i, req := range source.seen {
		if req.StartRow != wantOffsets[i] {
			t.Errorf("request %d StartRow = %d, want %d", i, req.StartRow, wantOffsets[i])
		}
		if req.RowLimit != 100 {
			t.Errorf("request %d RowLimit = %d, want 100", i, req.RowLimit)
		}
	}
}

func TestFetchAll_PageSizeClamped(t *testing.T) {
	source := &fixedSource{rows: makeRows(50)}

	_, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{},
		FetchOptions{TargetLimit: 50, PageSize: 10})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if got := source.seen[0].RowLimit; got != MinPageSize {
		t.Errorf("RowLimit = %d, want clamped to %d", got, MinPageSize)
	}
}

func TestFetchAll_ErrorAbortsWholeFetch(t *testing.T) {
	pageErr := errors.New("backend unavailable")
	source := &fixedSource{
		rows:          makeRows(500),
		failAtRequest: 3,
		err:           pageErr,
	}

	rows, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{},
		FetchOptions{TargetLimit: 1000, PageSize: 100})

	if !errors.Is(err, pageErr) {
		t.Fatalf("FetchAll() error = %v, want wrapped %v", err, pageErr)
	}
	if rows != nil {
		t.Errorf("rows = %v, want nil on error (no partial results)", rows)
	}
}

func TestFetchAll_InvalidPropertyFailsBeforeAnyRequest(t *testing.T) {
	source := &fixedSource{rows: makeRows(10)}

	_, err := FetchAll(context.Background(), source, "example.com", Request{},
		FetchOptions{TargetLimit: 10, PageSize: 100})
	if err == nil {
		t.Fatal("FetchAll() error = nil, want validation error")
	}
	if source.requests != 0 {
		t.Errorf("requests = %d, want 0 (validation happens before network)", source.requests)
	}
}

func TestFetchAll_ZeroTargetLimit(t *testing.T) {
	source := &fixedSource{rows: makeRows(10)}

	rows, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{},
		FetchOptions{TargetLimit: 0, PageSize: 100})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
	if source.requests != 0 {
		t.Errorf("requests = %d, want 0", source.requests)
	}
}

func TestFetchAll_Idempotent(t *testing.T) {
	source := &fixedSource{rows: makeRows(250)}
	opts := FetchOptions{TargetLimit: 1000, PageSize: 100}

	first, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{}, opts)
	if err != nil {
		t.Fatalf("first FetchAll() error = %v", err)
	}
	second, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{}, opts)
	if err != nil {
		t.Fatalf("second FetchAll() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two fetches against an unchanged source differ")
	}
}

func TestFetchAll_OnPageProgress(t *testing.T) {
	source := &fixedSource{rows: makeRows(250)}

	var progress []int
	_, err := FetchAll(context.Background(), source, "sc-domain:example.com", Request{},
		FetchOptions{
			TargetLimit: 1000,
			PageSize:    100,
			OnPage:      func(fetched int) { progress = append(progress, fetched) },
		})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	want := []int{100, 200, 250}
	if !reflect.DeepEqual(progress, want) {
		t.Errorf("progress = %v, want %v", progress, want)
	}
}
