package routernode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	promptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/prompt"
)

func PlanTasks(in *GraphState) (*GraphState, error) {
	in.Plan = BuildPlan(in.Question, in.Matched)
	return in, nil
}

// PlanFor classifies and plans question in one step.
func PlanFor(question string) contractx.Plan {
	return BuildPlan(question, MatchDomains(strings.ToLower(question)))
}

// BuildPlan turns the matched domains into tasks. No match means every
// domain is asked, framed as a fallback.
func BuildPlan(question string, matched []contractx.Domain) contractx.Plan {
	if len(matched) == 0 {
		domains := contractx.Domains()
		tasks := make([]contractx.Task, 0, len(domains))
		for _, d := range domains {
			tasks = append(tasks, FrameTask(d, question, true))
		}
		return contractx.Plan{Tasks: tasks, Fallback: true}
	}

	tasks := make([]contractx.Task, 0, len(matched))
	for _, d := range matched {
		tasks = append(tasks, FrameTask(d, question, false))
	}
	return contractx.Plan{Tasks: tasks}
}

func FrameTask(d contractx.Domain, question string, fallback bool) contractx.Task {
	instruction := promptx.GenieInstruction()
	if fallback {
		return contractx.Task{
			Domain:         d,
			Question:       question,
			Description:    fmt.Sprintf("Analyze this query from a %s perspective: %s\n%s", d, question, instruction),
			ExpectedOutput: fmt.Sprintf("%s-related insights if applicable", d.Title()),
			Fallback:       true,
		}
	}
	return contractx.Task{
		Domain:         d,
		Question:       question,
		Description:    fmt.Sprintf("Answer this %s-related question: %s\n%s", d, question, instruction),
		ExpectedOutput: fmt.Sprintf("Detailed %s insights based on the query", d),
	}
}
