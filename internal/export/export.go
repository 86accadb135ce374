// Package export writes a run's competitor results to XLSX and CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/store"
)

var header = []string{
	"query", "competitor", "is_target", "average_rank", "best_rank",
	"worst_rank", "appearances", "total_attempts", "appearance_rate",
	"weighted_score", "providers",
}

// Exporter reads a run's results from the store and renders them.
type Exporter struct {
	store store.Store
}

// New builds an exporter over the store.
func New(st store.Store) *Exporter {
	return &Exporter{store: st}
}

// report is the flattened, query-labelled view of a run's results.
type report struct {
	queries []string                            // stable order
	rows    map[string][]model.CompetitorResult // by query label
}

func (e *Exporter) load(ctx context.Context, runID string) (*report, error) {
	run, err := e.store.GetRun(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "export: resolve run")
	}

	results, err := e.store.ListCompetitorResults(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "export: load results")
	}
	if len(results) == 0 {
		return nil, eris.Errorf("export: run %s has no competitor results", runID)
	}

	// Label rows by query text where available, falling back to the id.
	labels := make(map[string]string)
	queries, err := e.store.ListQueries(ctx, run.BusinessID)
	if err != nil {
		return nil, eris.Wrap(err, "export: load queries")
	}
	for _, q := range queries {
		labels[q.ID] = q.Text
	}

	rep := &report{rows: make(map[string][]model.CompetitorResult)}
	for _, r := range results {
		label := labels[r.QueryID]
		if label == "" {
			label = r.QueryID
		}
		if _, seen := rep.rows[label]; !seen {
			rep.queries = append(rep.queries, label)
		}
		rep.rows[label] = append(rep.rows[label], r)
	}
	for _, label := range rep.queries {
		rows := rep.rows[label]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].WeightedScore < rows[j].WeightedScore })
	}
	return rep, nil
}

// WriteXLSX writes the run's results to an XLSX file, one sheet per query.
func (e *Exporter) WriteXLSX(ctx context.Context, runID, path string) error {
	rep, err := e.load(ctx, runID)
	if err != nil {
		return err
	}

	f := xlsx.NewFile()
	for _, label := range rep.queries {
		sheet, err := f.AddSheet(sheetName(label))
		if err != nil {
			return eris.Wrapf(err, "export: add sheet for query %q", label)
		}

		hr := sheet.AddRow()
		for _, h := range header[1:] { // query column is implied by the sheet
			hr.AddCell().SetString(h)
		}
		for _, r := range rep.rows[label] {
			row := sheet.AddRow()
			row.AddCell().SetString(r.Name)
			row.AddCell().SetString(strconv.FormatBool(r.IsTarget))
			row.AddCell().SetFloat(r.AverageRank)
			row.AddCell().SetInt(r.BestRank)
			row.AddCell().SetInt(r.WorstRank)
			row.AddCell().SetInt(r.Appearances)
			row.AddCell().SetInt(r.TotalAttempts)
			row.AddCell().SetFloat(r.AppearanceRate())
			row.AddCell().SetFloat(r.WeightedScore)
			row.AddCell().SetString(strings.Join(r.Providers, ", "))
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// WriteCSV writes the run's results as flat CSV rows.
func (e *Exporter) WriteCSV(ctx context.Context, runID string, w io.Writer) error {
	rep, err := e.load(ctx, runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, label := range rep.queries {
		for _, r := range rep.rows[label] {
			record := []string{
				label,
				r.Name,
				strconv.FormatBool(r.IsTarget),
				fmt.Sprintf("%.2f", r.AverageRank),
				strconv.Itoa(r.BestRank),
				strconv.Itoa(r.WorstRank),
				strconv.Itoa(r.Appearances),
				strconv.Itoa(r.TotalAttempts),
				fmt.Sprintf("%.2f", r.AppearanceRate()),
				fmt.Sprintf("%.2f", r.WeightedScore),
				strings.Join(r.Providers, "; "),
			}
			if err := cw.Write(record); err != nil {
				return eris.Wrap(err, "export: write row")
			}
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// sheetName fits a query text into Excel's 31-character sheet name limit and
// strips the characters Excel rejects.
func sheetName(label string) string {
	r := strings.NewReplacer("/", " ", "\\", " ", "?", " ", "*", " ", "[", " ", "]", " ", ":", " ")
	name := strings.TrimSpace(r.Replace(label))
	if name == "" {
		name = "results"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
