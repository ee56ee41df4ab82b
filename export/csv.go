// Package export writes nutrition data to interchange formats.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/i4ali/macrosnap/domain"
	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/store"
)

var csvHeader = []string{"Date", "Protein (g)", "Carbs (g)", "Fat (g)", "Calories", "Notes"}

// WriteEntriesCSV writes all entries as CSV, newest occurrence date first.
func WriteEntriesCSV(ctx context.Context, s store.Store, w io.Writer) error {
	entries, err := s.Entries(ctx)
	if err != nil {
		return syncErrors.WrapOpComponentKind(err, syncErrors.OpLoad, "export", syncErrors.KindStorage)
	}
	return writeCSV(w, entries)
}

// WriteEntriesBetweenCSV writes entries with occurrence dates in [from, to).
func WriteEntriesBetweenCSV(ctx context.Context, s store.Store, w io.Writer, from, to time.Time) error {
	entries, err := s.EntriesBetween(ctx, from, to)
	if err != nil {
		return syncErrors.WrapOpComponentKind(err, syncErrors.OpLoad, "export", syncErrors.KindStorage)
	}
	return writeCSV(w, entries)
}

func writeCSV(w io.Writer, entries []domain.Entry) error {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.Date.Format("2006-01-02"),
			strconv.FormatFloat(e.Protein, 'f', 1, 64),
			strconv.FormatFloat(e.Carbs, 'f', 1, 64),
			strconv.FormatFloat(e.Fat, 'f', 1, 64),
			strconv.FormatFloat(e.Calories(), 'f', 0, 64),
			e.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
