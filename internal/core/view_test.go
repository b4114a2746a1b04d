package core

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomDataset builds n rows drawn from small value pools so filters and
// sort keys collide often.
func randomDataset(r *rand.Rand, n int) []Row {
	kategori := []string{"Elektronik", "Fashion", "Makanan"}
	produk := []string{"TV", "Kaos", "Kopi", "Radio"}
	words := []string{"bagus", "buruk", "Mantap", "lambat", "oke"}

	rows := make([]Row, n)
	for i := range rows {
		s := SentimentNegative
		if r.IntN(2) == 0 {
			s = SentimentPositive
		}
		rows[i] = Row{
			Ulasan:     fmt.Sprintf("%s #%d", words[r.IntN(len(words))], i),
			Rating:     r.IntN(7), // 0..6 exercises out-of-range ratings
			Kategori:   kategori[r.IntN(len(kategori))],
			NamaProduk: produk[r.IntN(len(produk))],
			Sentiment:  s,
		}
	}
	return rows
}

func TestDeriveView_SentimentScenario(t *testing.T) {
	dataset := Parse(sampleCSV)

	v := DeriveView(dataset, Criteria{Sentiment: SentimentPositive}, 1)
	require.Len(t, v.Filtered, 1)
	assert.Equal(t, dataset[0], v.Filtered[0])
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 1}, v.Aggregates.Ratings)
}

func TestDeriveView_EmptyDataset(t *testing.T) {
	v := DeriveView(nil, Criteria{}, 3)

	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.Empty(t, v.Window)
	assert.Equal(t, "0.00", v.Aggregates.AverageRating)
	assert.Equal(t, SentimentCounts{}, v.Aggregates.Sentiments)
	assert.Len(t, v.Aggregates.Ratings, 5)
}

func TestFilterRows_SubsetAndConjunctive(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	dataset := randomDataset(r, 200)
	orig := slices.Clone(dataset)

	steps := []Criteria{
		{},
		{Kategori: "Elektronik"},
		{Kategori: "Elektronik", NamaProduk: "TV"},
		{Kategori: "Elektronik", NamaProduk: "TV", Sentiment: SentimentPositive},
		{Kategori: "Elektronik", NamaProduk: "TV", Sentiment: SentimentPositive, Search: "BAGUS"},
	}

	prev := len(dataset) + 1
	for _, c := range steps {
		got := FilterRows(dataset, c)
		assert.LessOrEqual(t, len(got), prev, "stricter criteria %+v grew the view", c)
		prev = len(got)

		for _, row := range got {
			assert.Contains(t, dataset, row)
		}
	}

	if diff := cmp.Diff(orig, dataset); diff != "" {
		t.Errorf("dataset was mutated (-orig +now):\n%s", diff)
	}
}

func TestFilterRows_SearchIsCaseInsensitive(t *testing.T) {
	dataset := []Row{{Ulasan: "Sangat BAGUS"}, {Ulasan: "jelek"}}

	got := FilterRows(dataset, Criteria{Search: "bagus"})
	require.Len(t, got, 1)
	assert.Equal(t, "Sangat BAGUS", got[0].Ulasan)
}

func TestFilterRows_NeverAliases(t *testing.T) {
	dataset := []Row{{Ulasan: "a", Rating: 2}, {Ulasan: "b", Rating: 1}}
	got := FilterRows(dataset, Criteria{})
	SortRows(got, SortRating, SortAsc)

	assert.Equal(t, "a", dataset[0].Ulasan)
}

func TestSortRows_Stable(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	dataset := randomDataset(r, 150)

	// Index rows by their unique Ulasan to recover dataset order.
	pos := make(map[string]int, len(dataset))
	for i, row := range dataset {
		pos[row.Ulasan] = i
	}

	for _, key := range []SortKey{SortRating, SortKategori, SortNamaProduk, SortSentiment} {
		for _, dir := range []SortDir{SortAsc, SortDesc} {
			t.Run(fmt.Sprintf("%s_%s", key, dir), func(t *testing.T) {
				rows := slices.Clone(dataset)
				SortRows(rows, key, dir)
				cmpKey := compareBy(key)

				for i := 1; i < len(rows); i++ {
					c := cmpKey(rows[i-1], rows[i])
					if dir == SortDesc {
						c = -c
					}
					require.LessOrEqual(t, c, 0, "rows out of order at %d", i)
					if c == 0 {
						assert.Less(t, pos[rows[i-1].Ulasan], pos[rows[i].Ulasan],
							"equal keys lost dataset order at %d", i)
					}
				}
			})
		}
	}
}

func TestSortRows_RatingIsNumeric(t *testing.T) {
	rows := []Row{{Rating: 10}, {Rating: 9}, {Rating: 2}}
	SortRows(rows, SortRating, SortAsc)
	assert.Equal(t, []int{2, 9, 10}, []int{rows[0].Rating, rows[1].Rating, rows[2].Rating})
}

func TestSortRows_NoneKeepsOrder(t *testing.T) {
	rows := []Row{{Ulasan: "b"}, {Ulasan: "a"}}
	SortRows(rows, SortNone, SortDesc)
	assert.Equal(t, "b", rows[0].Ulasan)
}

func TestAggregate_CountInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	dataset := randomDataset(r, 300)

	for _, c := range []Criteria{{}, {Kategori: "Fashion"}, {Sentiment: SentimentNegative}, {Search: "oke"}} {
		v := DeriveView(dataset, c, 1)
		a := v.Aggregates

		assert.Equal(t, len(v.Filtered), a.Sentiments.Positive+a.Sentiments.Negative)
		assert.Equal(t, len(v.Filtered), a.Total)

		inRange, sum := 0, 0
		for _, row := range v.Filtered {
			if row.Rating >= 1 && row.Rating <= 5 {
				inRange++
			}
		}
		for rating := 1; rating <= 5; rating++ {
			sum += a.Ratings[rating]
		}
		assert.Equal(t, inRange, sum)
	}
}

func TestAggregate_MeanRounding(t *testing.T) {
	rows := []Row{{Rating: 1}, {Rating: 2}, {Rating: 2}}
	a := Aggregate(rows)
	assert.Equal(t, "1.67", a.AverageRating)
	assert.InDelta(t, 1.67, a.MeanRating, 1e-9)

	// Out-of-range ratings still count toward the mean.
	a = Aggregate([]Row{{Rating: 0}, {Rating: 5}})
	assert.Equal(t, "2.50", a.AverageRating)
	assert.Equal(t, 0, a.Ratings[0])
}

func TestAggregate_MeanRoundsBinaryValue(t *testing.T) {
	// 3/40 is stored just below 0.075, so it rounds down.
	rows := make([]Row, 40)
	rows[0].Rating = 3
	assert.Equal(t, "0.07", Aggregate(rows).AverageRating)

	// 1/8 is exact, and an exact half rounds up.
	rows = make([]Row, 8)
	rows[0].Rating = 1
	assert.Equal(t, "0.13", Aggregate(rows).AverageRating)
	assert.InDelta(t, 0.13, Aggregate(rows).MeanRating, 1e-9)
}

func TestFormatFixed2(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{5, "5.00"},
		{1.005, "1.00"}, // stored below 1.005
		{0.375, "0.38"},
		{4.999, "5.00"},
		{2.0 / 3, "0.67"},
		{-0.125, "-0.13"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFixed2(tt.in), "%v", tt.in)
	}
}

func TestOptions(t *testing.T) {
	dataset := []Row{
		{Kategori: "B", NamaProduk: "y"},
		{Kategori: "A", NamaProduk: "x"},
		{Kategori: "B", NamaProduk: "x"},
	}
	opts := Options(dataset)

	assert.Equal(t, []string{"B", "A"}, opts.Kategori)
	assert.Equal(t, []string{"y", "x"}, opts.NamaProduk)
	assert.Equal(t, []Sentiment{SentimentPositive, SentimentNegative}, opts.Sentiment)
}

func TestParseSortKeyAndDir(t *testing.T) {
	k, err := ParseSortKey("NamaProduk")
	require.NoError(t, err)
	assert.Equal(t, SortNamaProduk, k)

	k, err = ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortNone, k)

	_, err = ParseSortKey("price")
	assert.Error(t, err)

	assert.Equal(t, SortDesc, ParseSortDir("DESC"))
	assert.Equal(t, SortAsc, ParseSortDir("sideways"))
}
