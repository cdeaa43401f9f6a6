package subjects

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFeedCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subjects.csv")
	data := "\uFEFFcode,parent_code,name\n" +
		"1,,Health\n" +
		"11,1,Hospitals\n" +
		"111,11,Emergency Care\n" +
		"2,,Education\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	nodes, err := ParseFeed(path)
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(nodes))
	}
	byCode := map[int]int{}
	for _, n := range nodes {
		byCode[n.Code] = n.Level
	}
	// Levels derive from the parent chain, not the feed.
	if byCode[1] != 0 || byCode[11] != 1 || byCode[111] != 2 {
		t.Fatalf("levels = %v", byCode)
	}
}

func TestParseFeedRejectsBadRows(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad-code.csv":       "code,parent_code,name\nx,,Health\n",
		"missing-name.csv":   "code,parent_code,name\n1,,\n",
		"missing-parent.csv": "code,parent_code,name\n1,99,Health\n",
	}
	for name, data := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ParseFeed(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestParseFeedUnsupportedExtension(t *testing.T) {
	if _, err := ParseFeed("subjects.json"); err == nil {
		t.Fatal("expected an error for unsupported format")
	}
}
