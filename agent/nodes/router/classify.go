package routernode

import (
	"strings"

	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
)

func Normalize(in GraphInput) (*GraphState, error) {
	return &GraphState{
		Question: in.Question,
		Lowered:  strings.ToLower(in.Question),
	}, nil
}

func Classify(in *GraphState) (*GraphState, error) {
	in.Matched = MatchDomains(in.Lowered)
	return in, nil
}

// MatchDomains returns, in routing order, every domain with at least one
// keyword contained in lowered. Matching is plain substring containment, so
// "productivity" matches "product".
func MatchDomains(lowered string) []contractx.Domain {
	var out []contractx.Domain
	for _, v := range contractx.Vocabularies() {
		if matchesVocabulary(lowered, v) {
			out = append(out, v.Domain)
		}
	}
	return out
}

func matchesVocabulary(lowered string, v contractx.Vocabulary) bool {
	for _, kw := range v.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
