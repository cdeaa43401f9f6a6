// Package export streams filtered listings as CSV. Exports run synchronously
// inside the request, paging through the repository so memory stays bounded
// regardless of result size.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"caseboard/internal/analytics"
	"caseboard/internal/domain"
)

const exportPageSize = 1000

// Service streams listing exports through the aggregation engine.
type Service struct {
	analytics *analytics.Engine
	pageSize  int
}

// NewService creates an export service.
func NewService(analytics *analytics.Engine) *Service {
	return &Service{analytics: analytics, pageSize: exportPageSize}
}

// FileName builds the download file name for a table export.
func FileName(table domain.Table, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", strings.ReplaceAll(string(table), "_", "-"), now.Format("2006-01-02"))
}

// WriteCSV streams every row the filters select, in listing order, as CSV.
// The header row uses the table's listing columns. Rows are flushed page by
// page; a failure mid-stream returns the error with the output truncated.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, f domain.FilterSet, table domain.Table, p domain.Pagination) error {
	buffered := bufio.NewWriterSize(w, 1<<20)
	csvWriter := csv.NewWriter(buffered)

	columns := domain.ListingColumns(table)
	if err := csvWriter.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	p.Page = 1
	p.PageSize = s.pageSize
	row := make([]string, len(columns))
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		page, err := s.analytics.Listing(ctx, f, table, p)
		if err != nil {
			return err
		}
		for _, item := range page.Items {
			for i, column := range columns {
				row[i] = formatValue(item[column])
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			return fmt.Errorf("flush rows: %w", err)
		}
		if err := buffered.Flush(); err != nil {
			return fmt.Errorf("flush buffered rows: %w", err)
		}
		if p.Page >= page.TotalPages {
			break
		}
		p.Page++
	}
	return nil
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case *float64:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", *v)
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
