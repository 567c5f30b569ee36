package model

import (
	"encoding/json"
	"strings"
)

// Finding is one completed tool result handed to the synthesizer
type Finding struct {
	Result map[string]any `json:"result"`
	Step   string         `json:"step"`
}

const plannerTemplate = `You are an assistant for site reliability engineers. Decide how to
answer the user's query and reply with JSON only.

Option 1, direct answer: if the query is a greeting, a general question, or
anything that needs no metrics, logs, incidents or other tool data, reply
with an object holding a single key:
{"direct_answer": "<your answer>"}

Option 2, execution plan: if answering needs tool data, reply with an object
with two keys, "nodes" and "edges".
Each node has:
  "id":    a short unique identifier such as "n_1"; steps run in id order
  "label": a short human-readable title
  "type":  always "tool"
  "data":  an object with
           "description": what the step does
           "tool_name":   the tool to call, e.g. "metrics_tool" or "logs_tool"
           "parameters":  an object of tool parameters
Each edge has "from" and "to" node ids, meaning "to" depends on "from".

User query:
"{{query}}"

Reply with the JSON object now.`

const synthesizerTemplate = `You are an experienced site reliability engineer. Write the final
answer to the user's query using the tool results below as evidence.

Open with a short, direct answer. Follow with an explanation that cites the
tool results. Finish with recommended actions when they apply.

User query:
{{query}}

Tool results:
{{findings}}

Final answer:`

// PlannerPrompt builds the planning prompt for a query
func PlannerPrompt(query string) string {
	return strings.ReplaceAll(plannerTemplate, "{{query}}", query)
}

// SynthesizerPrompt builds the synthesis prompt from the query and the
// collected findings, rendered as indented JSON
func SynthesizerPrompt(query string, findings []Finding) string {
	if findings == nil {
		findings = []Finding{}
	}
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		data = []byte("[]")
	}
	return strings.NewReplacer(
		"{{query}}", query,
		"{{findings}}", string(data),
	).Replace(synthesizerTemplate)
}
