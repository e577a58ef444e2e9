package routernode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
)

// FragmentSeparator joins fragments when more than one domain answered.
const FragmentSeparator = "\n\n"

func Aggregate(in *GraphState) (GraphOutput, error) {
	if in == nil || len(in.Fragments) == 0 {
		return GraphOutput{}, fmt.Errorf("%w: no fragments to aggregate", contractx.ErrValidation)
	}
	return GraphOutput{
		Plan: in.Plan,
		Answer: contractx.Answer{
			Text:      Combine(in.Fragments),
			Fragments: in.Fragments,
			Fallback:  in.Plan.Fallback,
		},
	}, nil
}

// Combine concatenates fragment texts in order. A single fragment is
// returned unchanged.
func Combine(fragments []contractx.Fragment) string {
	switch len(fragments) {
	case 0:
		return ""
	case 1:
		return fragments[0].Text
	}
	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		texts = append(texts, f.Text)
	}
	return strings.Join(texts, FragmentSeparator)
}
