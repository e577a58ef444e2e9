package routernode

import (
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
)

type GraphInput struct {
	Question string
}

type GraphOutput struct {
	Plan   contractx.Plan
	Answer contractx.Answer
}

type GraphState struct {
	Question string

	// Lowered is only used for keyword matching; agents get Question as typed.
	Lowered string
	Matched []contractx.Domain

	Plan      contractx.Plan
	Fragments []contractx.Fragment
}
