package subjects

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"caseboard/internal/domain"
	"caseboard/internal/repository"
)

// FeedLoader refreshes the stored taxonomy from the upstream subject feed, a
// spreadsheet or CSV with code, parent_code and name columns. Levels are
// derived from the parent chain, not trusted from the feed.
type FeedLoader struct {
	subjects repository.SubjectRepository
}

// NewFeedLoader creates a feed loader writing through the given repository.
func NewFeedLoader(subjects repository.SubjectRepository) *FeedLoader {
	return &FeedLoader{subjects: subjects}
}

// Refresh parses the feed file and swaps the stored taxonomy for its
// contents. Returns the number of nodes loaded.
func (l *FeedLoader) Refresh(ctx context.Context, path string) (int, error) {
	nodes, err := ParseFeed(path)
	if err != nil {
		return 0, err
	}
	if err := l.subjects.ReplaceAll(ctx, nodes); err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// ParseFeed reads a subject feed file, dispatching on extension.
func ParseFeed(path string) ([]domain.SubjectNode, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return parseXLSX(path)
	case ".csv":
		return parseCSV(path)
	}
	return nil, fmt.Errorf("unsupported subject feed format %q", filepath.Ext(path))
}

func parseXLSX(path string) ([]domain.SubjectNode, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subject feed: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("subject feed %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read subject feed rows: %w", err)
	}
	return buildNodes(rows)
}

func parseCSV(path string) ([]domain.SubjectNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subject feed: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read subject feed rows: %w", err)
		}
		rows = append(rows, record)
	}
	return buildNodes(rows)
}

// buildNodes converts raw feed rows into taxonomy nodes. The first row is a
// header; blank rows are skipped; levels come from walking parent chains.
func buildNodes(rows [][]string) ([]domain.SubjectNode, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("subject feed has no data rows")
	}

	parents := make(map[int]*int)
	var nodes []domain.SubjectNode
	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(cell(row, 0)) == "" {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(stripBOM(cell(row, 0))))
		if err != nil {
			return nil, fmt.Errorf("subject feed row %d: bad code %q", i+2, cell(row, 0))
		}
		var parent *int
		if raw := strings.TrimSpace(cell(row, 1)); raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("subject feed row %d: bad parent code %q", i+2, raw)
			}
			parent = &p
		}
		name := strings.TrimSpace(cell(row, 2))
		if name == "" {
			return nil, fmt.Errorf("subject feed row %d: empty name", i+2)
		}
		parents[code] = parent
		nodes = append(nodes, domain.SubjectNode{Code: code, ParentCode: parent, Name: name})
	}

	for i := range nodes {
		level, err := chainDepth(parents, nodes[i].Code)
		if err != nil {
			return nil, err
		}
		nodes[i].Level = level
	}
	return nodes, nil
}

// chainDepth walks a node's parent chain; the bound catches feed cycles.
func chainDepth(parents map[int]*int, code int) (int, error) {
	depth := 0
	for current := code; ; depth++ {
		parent, ok := parents[current]
		if !ok {
			return 0, fmt.Errorf("subject %d references missing parent %d", code, current)
		}
		if parent == nil {
			return depth, nil
		}
		if depth > len(parents) {
			return 0, fmt.Errorf("subject feed parent chain for %d does not terminate", code)
		}
		current = *parent
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
