package algorithms

import (
	"unicode/utf8"

	"github.com/kbukum/compgraph/builtin"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
)

// TextColumns names the fields the text algorithms read and write.
type TextColumns struct {
	Doc    string
	Text   string
	Result string
}

func (c TextColumns) withDefaults(result string) TextColumns {
	if c.Doc == "" {
		c.Doc = "doc_id"
	}
	if c.Text == "" {
		c.Text = "text"
	}
	if c.Result == "" {
		c.Result = result
	}
	return c
}

// words splits the text column of input into one lower-case word per row.
func words(input, text string) *graph.Graph {
	return graph.FromIter(input).
		Map(builtin.FilterPunctuation(text)).
		Map(builtin.LowerCase(text)).
		Map(builtin.Split(text))
}

// WordCount counts the words of the text column over all rows of input.
// Rows come out ordered by count, then by word.
func WordCount(input string, c TextColumns) *graph.Graph {
	c = c.withDefaults("count")
	return words(input, c.Text).
		Sort(c.Text).
		Reduce(builtin.Count(c.Result), c.Text).
		Sort(c.Result, c.Text).
		Named("word-count")
}

// InvertedIndex computes tf-idf for every (document, word) pair and keeps
// the three best documents per word, then the three best words per
// document.
func InvertedIndex(input string, c TextColumns) *graph.Graph {
	c = c.withDefaults("tf_idf")
	split := words(input, c.Text)

	docCount := graph.FromIter(input).
		Reduce(builtin.Count("doc_count"))

	idf := split.
		Sort(c.Doc, c.Text).
		Reduce(builtin.First(), c.Doc, c.Text).
		Sort(c.Text).
		Reduce(builtin.Count("doc_word_count"), c.Text).
		Join(docCount, operation.Inner, nil).
		Map(builtin.Division("doc_count", "doc_word_count", "inv_doc_word_freq")).
		Map(builtin.Logarithm("inv_doc_word_freq", "idf"))

	tf := split.
		Sort(c.Doc).
		Reduce(builtin.TermFrequency(c.Text, "tf"), c.Doc).
		Sort(c.Text)

	return idf.
		Sort(c.Text).
		Join(tf, operation.Inner, []string{c.Text}).
		Map(builtin.Product([]string{"tf", "idf"}, c.Result)).
		Map(builtin.Project(c.Doc, c.Text, c.Result)).
		Sort(c.Text).
		Reduce(builtin.TopN(c.Result, 3), c.Text).
		Sort(c.Doc).
		Reduce(builtin.TopN(c.Result, 3), c.Doc).
		Named("inverted-index")
}

// PMI ranks, for every document, the ten words with the highest pointwise
// mutual information. Only words longer than four letters that occur more
// than once in the document are considered.
func PMI(input string, c TextColumns) *graph.Graph {
	c = c.withDefaults("pmi")
	const count = "word_doc_cnt"

	filtered := words(input, c.Text).
		Sort(c.Doc, c.Text).
		Reduce(builtin.Count(count), c.Doc, c.Text).
		Filter(func(r record.Record) bool {
			n, _ := r[count].AsInt()
			s, _ := r[c.Text].AsString()
			return n > 1 && utf8.RuneCountInString(s) > 4
		}).
		Map(builtin.Project(c.Doc, c.Text, count))

	docLen := filtered.
		Sort(c.Doc).
		Reduce(builtin.Sum(count), c.Doc).
		Map(builtin.Rename(count, "doc_len"))

	docFreq := filtered.
		Sort(c.Doc).
		Join(docLen, operation.Inner, []string{c.Doc}).
		Map(builtin.Division(count, "doc_len", "word_doc_freq"))

	totalLen := docLen.
		Reduce(builtin.Sum("doc_len")).
		Map(builtin.Rename("doc_len", "doc_total_len"))

	totalFreq := filtered.
		Sort(c.Text).
		Reduce(builtin.Sum(count), c.Text).
		Map(builtin.Rename(count, "word_total_cnt")).
		Join(totalLen, operation.Inner, nil).
		Map(builtin.Division("word_total_cnt", "doc_total_len", "word_total_freq")).
		Map(builtin.Project(c.Text, "word_total_freq"))

	return docFreq.
		Sort(c.Text).
		Join(totalFreq, operation.Inner, []string{c.Text}).
		Map(builtin.Division("word_doc_freq", "word_total_freq", "word_freq_quotient")).
		Map(builtin.Logarithm("word_freq_quotient", c.Result)).
		Sort(c.Doc).
		Reduce(builtin.TopN(c.Result, 10), c.Doc).
		Map(builtin.Project(c.Doc, c.Text, c.Result)).
		Sort(c.Doc).
		Named("pmi")
}
