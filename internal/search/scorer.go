package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/transitions/internal/model"
)

// Policy names accepted by PolicyByName
const (
	PolicyStemmed = "stemmed"
	PolicyExact   = "exact"
)

// Policy holds the weights applied when a query token matches a document.
// For each query token at most one of TitleExact/TitleStem fires, and at most
// one of BodyExact/BodyStem.
type Policy struct {
	Name           string
	TitleExact     float64
	TitleStem      float64
	BodyExact      float64
	BodyStem       float64
	FactSheetBoost float64 // flat bonus for model.KindFiche
	Stemming       bool    // when false TitleStem and BodyStem never fire
}

// StemmedPolicy is the default policy: French stemming plus a fact-sheet bonus
func StemmedPolicy() Policy {
	return Policy{
		Name:           PolicyStemmed,
		TitleExact:     5,
		TitleStem:      3,
		BodyExact:      2,
		BodyStem:       1,
		FactSheetBoost: 3,
		Stemming:       true,
	}
}

// ExactPolicy only counts verbatim token matches and has no kind bonus
func ExactPolicy() Policy {
	return Policy{
		Name:       PolicyExact,
		TitleExact: 2,
		BodyExact:  1,
	}
}

// PolicyByName resolves a configured policy name. An empty name selects the stemmed policy.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyStemmed:
		return StemmedPolicy(), nil
	case PolicyExact:
		return ExactPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("unknown search policy: %s (supported: stemmed, exact)", name)
	}
}

// ScoredMatch pairs a document with its score for one query
type ScoredMatch struct {
	Document model.Document
	Score    float64
	Position int // index in the corpus
}

// Scorer ranks corpus documents against a query.
// It keeps no state between calls; documents are re-tokenized every time.
type Scorer struct {
	policy Policy
}

// NewScorer creates a scorer using the given policy
func NewScorer(policy Policy) *Scorer {
	return &Scorer{policy: policy}
}

// Policy returns the scorer's policy
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Score returns every document with a positive score, best first.
// Documents with equal scores keep their corpus order.
func (s *Scorer) Score(query string, docs []model.Document) []ScoredMatch {
	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return nil
	}

	var qStems []string
	if s.policy.Stemming {
		qStems = make([]string, len(qTokens))
		for i, tok := range qTokens {
			qStems[i] = Stem(tok)
		}
	}

	var matches []ScoredMatch
	for i, doc := range docs {
		score, ok := s.scoreDocument(qTokens, qStems, doc)
		if ok && score > 0 {
			matches = append(matches, ScoredMatch{Document: doc, Score: score, Position: i})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// FindRelevant returns at most topK documents ordered by descending score
func (s *Scorer) FindRelevant(query string, docs []model.Document, topK int) []model.Document {
	if topK <= 0 {
		return nil
	}

	matches := s.Score(query, docs)
	if len(matches) > topK {
		matches = matches[:topK]
	}

	result := make([]model.Document, len(matches))
	for i, m := range matches {
		result[i] = m.Document
	}
	return result
}

// scoreDocument returns false when the document has no scoreable body
func (s *Scorer) scoreDocument(qTokens, qStems []string, doc model.Document) (float64, bool) {
	docTokens := Tokenize(doc.Body)
	if len(docTokens) == 0 {
		return 0, false
	}
	titleTokens := Tokenize(doc.Title)

	docSet := toSet(docTokens)
	titleSet := toSet(titleTokens)

	var docStems, titleStems []string
	if s.policy.Stemming {
		docStems = stemAll(docTokens)
		titleStems = stemAll(titleTokens)
	}

	score := 0.0
	if doc.Kind == model.KindFiche {
		score += s.policy.FactSheetBoost
	}

	for i, tok := range qTokens {
		if _, ok := titleSet[tok]; ok {
			score += s.policy.TitleExact
		} else if s.policy.Stemming && anyOverlap(titleStems, qStems[i]) {
			score += s.policy.TitleStem
		}

		if _, ok := docSet[tok]; ok {
			score += s.policy.BodyExact
		} else if s.policy.Stemming && anyOverlap(docStems, qStems[i]) {
			score += s.policy.BodyStem
		}
	}

	return score, true
}

// FindRelevantDocs ranks docs with the stemmed policy
func FindRelevantDocs(query string, docs []model.Document, topK int) []model.Document {
	return NewScorer(StemmedPolicy()).FindRelevant(query, docs, topK)
}

func anyOverlap(stems []string, stem string) bool {
	for _, s := range stems {
		if stemsOverlap(s, stem) {
			return true
		}
	}
	return false
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
