package searchanalytics

import (
	"sort"

	"github.com/Sternrassler/gsc-client/pkg/daterange"
)

// ComparisonRecord pairs the metrics of one RowKey across two fetches of
// the same dimension set. Diff fields are always a minus b. Built once
// per report and not mutated afterward.
type ComparisonRecord struct {
	Keys []string `json:"keys"`

	ClicksA    float64 `json:"clicks_a"`
	ClicksB    float64 `json:"clicks_b"`
	ClicksDiff float64 `json:"clicks_diff"`

	ImpressionsA    float64 `json:"impressions_a"`
	ImpressionsB    float64 `json:"impressions_b"`
	ImpressionsDiff float64 `json:"impressions_diff"`

	CTRA    float64 `json:"ctr_a"`
	CTRB    float64 `json:"ctr_b"`
	CTRDiff float64 `json:"ctr_diff"`

	PositionA    float64 `json:"position_a"`
	PositionB    float64 `json:"position_b"`
	PositionDiff float64 `json:"position_diff"`

	RangeA daterange.Range  `json:"rangeA"`
	RangeB daterange.Range  `json:"rangeB"`
	Policy daterange.Policy `json:"policy"`
}

// Compare joins two row sequences fetched for rangeA and rangeB with
// identical dimension sets, producing one record per RowKey present on
// either side. A key present on only one side is paired with a synthetic
// zero-valued row that preserves its dimension values.
//
// Output is sorted ascending by RowKey so reports are deterministic.
func Compare(rowsA, rowsB []Row, rangeA, rangeB daterange.Range, policy daterange.Policy) []ComparisonRecord {
	byKeyA := indexByKey(rowsA)
	byKeyB := indexByKey(rowsB)

	keys := make([]string, 0, len(byKeyA)+len(byKeyB))
	seen := make(map[string]struct{}, len(byKeyA)+len(byKeyB))
	for _, rows := range [][]Row{rowsA, rowsB} {
		for _, r := range rows {
			k := r.Key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	records := make([]ComparisonRecord, 0, len(keys))
	for _, k := range keys {
		a, okA := byKeyA[k]
		b, okB := byKeyB[k]

		rec := ComparisonRecord{
			RangeA: rangeA,
			RangeB: rangeB,
			Policy: policy,
		}
		switch {
		case okA:
			rec.Keys = a.Keys
		case okB:
			rec.Keys = b.Keys
		}

		rec.ClicksA, rec.ClicksB = a.Clicks, b.Clicks
		rec.ClicksDiff = a.Clicks - b.Clicks
		rec.ImpressionsA, rec.ImpressionsB = a.Impressions, b.Impressions
		rec.ImpressionsDiff = a.Impressions - b.Impressions
		rec.CTRA, rec.CTRB = a.CTR, b.CTR
		rec.CTRDiff = a.CTR - b.CTR
		rec.PositionA, rec.PositionB = a.Position, b.Position
		rec.PositionDiff = a.Position - b.Position

		records = append(records, rec)
	}

	return records
}

// indexByKey builds the RowKey lookup for one side of the comparison.
// Duplicate keys keep the first occurrence; the API does not produce
// duplicates within one query's dimension set.
func indexByKey(rows []Row) map[string]Row {
	m := make(map[string]Row, len(rows))
	for _, r := range rows {
		k := r.Key()
		if _, ok := m[k]; !ok {
			m[k] = r
		}
	}
	return m
}
