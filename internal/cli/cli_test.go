package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/linkboard/internal/core"
)

const reviewsCSV = `Ulasan,Rating,Kategori,Nama Produk,label
Barang bagus sekali,5,Elektronik,TV,1
Pengiriman lambat,2,Elektronik,Radio,0
Kualitas oke,4,Fashion,Kaos,1
Rusak saat tiba,1,Fashion,Kaos,0
Sangat puas,5,Elektronik,TV,1`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAnalyze_Table(t *testing.T) {
	path := writeFile(t, "reviews.csv", reviewsCSV)

	out, _, err := run(t, "analyze", path)
	require.NoError(t, err)

	assert.Contains(t, out, "5 reviews")
	assert.Contains(t, out, "avg 3.40")
	assert.Contains(t, out, "Barang bagus sekali")
	assert.Contains(t, out, "Nama Produk")
	assert.Contains(t, out, "of 1")
}

func TestAnalyze_JSON(t *testing.T) {
	path := writeFile(t, "reviews.csv", reviewsCSV)

	out, _, err := run(t, "analyze", path, "--format", "json", "--sentiment", "negative", "--sort", "rating", "--desc")
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, path, r.Source)
	assert.Equal(t, core.SentimentNegative, r.Criteria.Sentiment)
	assert.Equal(t, 2, r.Aggregates.Total)
	assert.Equal(t, "1.50", r.Aggregates.AverageRating)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, 2, r.Rows[0].Rating)
	assert.Equal(t, 1, r.Rows[1].Rating)
	assert.Equal(t, core.ChartPie, r.Charts.SentimentProportions.Kind)
}

func TestAnalyze_YAML(t *testing.T) {
	path := writeFile(t, "reviews.csv", reviewsCSV)

	out, _, err := run(t, "analyze", path, "-f", "yaml", "--kategori", "Fashion")
	require.NoError(t, err)

	var doc struct {
		Criteria struct {
			Kategori string `yaml:"kategori"`
		} `yaml:"criteria"`
		Aggregates struct {
			Total      int `yaml:"totalReviews"`
			Sentiments struct {
				Positive int `yaml:"positive"`
				Negative int `yaml:"negative"`
			} `yaml:"sentimentCounts"`
		} `yaml:"aggregates"`
		Rows []map[string]any `yaml:"rows"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Fashion", doc.Criteria.Kategori)
	assert.Equal(t, 2, doc.Aggregates.Total)
	assert.Equal(t, 1, doc.Aggregates.Sentiments.Positive)
	assert.Equal(t, 1, doc.Aggregates.Sentiments.Negative)
	assert.Len(t, doc.Rows, 2)
}

func TestAnalyze_PageAndAll(t *testing.T) {
	var b strings.Builder
	b.WriteString("Ulasan,Rating,Kategori,Nama Produk,label")
	for i := range 23 {
		b.WriteString("\nulasan," + string(rune('1'+i%5)) + ",K,P,1")
	}
	path := writeFile(t, "big.csv", b.String())

	out, _, err := run(t, "analyze", path, "-f", "json", "--page", "3")
	require.NoError(t, err)
	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 3, r.Page)
	assert.Equal(t, 3, r.TotalPages)
	assert.Len(t, r.Rows, 3)

	out, _, err = run(t, "analyze", path, "-f", "json", "--page", "99", "--all")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 3, r.Page, "page is clamped")
	assert.Len(t, r.Rows, 23)
}

func TestAnalyze_Errors(t *testing.T) {
	good := writeFile(t, "reviews.csv", reviewsCSV)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown sort", []string{"analyze", good, "--sort", "price"}, `unknown sort key "price"`},
		{"unknown sentiment", []string{"analyze", good, "--sentiment", "neutral"}, "unknown sentiment"},
		{"unknown format", []string{"analyze", good, "-f", "xml"}, `unknown format "xml"`},
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "nope.csv")}, "no such file"},
		{"no args", []string{"analyze"}, "accepts 1 arg"},
		{"too large", []string{"analyze", good, "--max-bytes", "10"}, "file too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnalyze_EmptyDataset(t *testing.T) {
	missing := writeFile(t, "bad.csv", "Ulasan,Rating,Kategori,Nama Produk\nx,1,K,P")
	_, _, err := run(t, "analyze", missing)
	require.ErrorIs(t, err, core.ErrEmptyDataset)
	assert.Contains(t, err.Error(), "missing required column: label")

	headerOnly := writeFile(t, "header.csv", "Ulasan,Rating,Kategori,Nama Produk,label\n")
	_, _, err = run(t, "analyze", headerOnly)
	require.ErrorIs(t, err, core.ErrEmptyDataset)

	empty := writeFile(t, "empty.csv", "")
	_, _, err = run(t, "analyze", empty)
	require.ErrorIs(t, err, core.ErrEmptyDataset)
	assert.Contains(t, err.Error(), "empty file")
}

func TestExport_File(t *testing.T) {
	path := writeFile(t, "reviews.csv", reviewsCSV)
	dest := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := run(t, "export", path, "--kategori", "Elektronik", "--sort", "ulasan", "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, stderr, "exported 3 rows")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	want := strings.Join([]string{
		"Ulasan,Rating,Kategori,Nama Produk,Sentiment",
		`"Barang bagus sekali",5,Elektronik,TV,Positive`,
		`"Pengiriman lambat",2,Elektronik,Radio,Negative`,
		`"Sangat puas",5,Elektronik,TV,Positive`,
	}, "\n")
	assert.Equal(t, want, string(data))
}

func TestExport_Stdout(t *testing.T) {
	path := writeFile(t, "reviews.csv", reviewsCSV)

	out, _, err := run(t, "export", path, "--search", "KAOS", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "Ulasan,Rating,Kategori,Nama Produk,Sentiment", out, "search matches review text only")
}

func TestWatchFile_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv")
	require.NoError(t, os.WriteFile(path, []byte(reviewsCSV), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, func() {
			calls.Add(1)
			changed <- struct{}{}
		})
	}()

	// Other files in the directory are ignored. Give the watcher time to
	// register before touching anything.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(reviewsCSV+"\nbaru,3,K,P,1"), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not return after cancel")
	}
	assert.Equal(t, int32(1), calls.Load(), "one write burst reloads once")
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "gone", "x.csv"), time.Millisecond, func() {})
	require.Error(t, err)
}
