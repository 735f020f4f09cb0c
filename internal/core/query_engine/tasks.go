package query_engine

import "sort"

// Task names.
const (
	TaskChat             = "chat"
	TaskClauses          = "clauses"
	TaskSummary          = "summary"
	TaskCompliance       = "compliance"
	TaskBilingualSummary = "bilingual_summary"
	TaskReferences       = "references"
)

// Strategy selects the retrieval call.
type Strategy string

const (
	// StrategyAuto resolves by corpus kind: diverse for laws, similarity for documents.
	StrategyAuto       Strategy = ""
	StrategySimilarity Strategy = "similarity"
	StrategyDiverse    Strategy = "diverse"
)

// TaskSpec is the fixed template of one task. System is the task guidance
// placed before the grounding context; chat leaves it empty and relies on the
// corpus-kind role prompt. Instruction and LawInstruction are the default
// request texts for documents and curated laws. K is the number of chunks
// retrieved.
type TaskSpec struct {
	Name           string
	System         string
	Instruction    string
	LawInstruction string
	K              int
	Strategy       Strategy
	Temperature    float32
}

var taskSpecs = map[string]TaskSpec{
	TaskChat: {
		Name:        TaskChat,
		K:           15,
		Temperature: 0,
	},
	TaskClauses: {
		Name:   TaskClauses,
		System: clausesGuidance,
		Instruction: "Identify and analyze all key legal clauses in this document. " +
			"Include termination, confidentiality, liability, indemnity, " +
			"payment terms, jurisdiction, and any other important clauses.",
		LawInstruction: "Identify and analyze all key legal provisions in this law. " +
			"Include articles related to rights, obligations, penalties, " +
			"procedures, and any other important provisions.",
		K:           10,
		Temperature: 0,
	},
	TaskSummary: {
		Name:           TaskSummary,
		System:         summaryGuidance,
		Instruction:    "Generate a comprehensive executive summary of this legal document.",
		LawInstruction: "Generate a comprehensive executive summary of this Egyptian law.",
		K:              15,
		Temperature:    0.1,
	},
	TaskCompliance: {
		Name:           TaskCompliance,
		System:         complianceGuidance,
		Instruction:    "Check this document for compliance with the applicable legal requirements.",
		LawInstruction: "Check which obligations this law imposes and how an organization demonstrates compliance with them.",
		K:              12,
		Temperature:    0,
	},
	TaskBilingualSummary: {
		Name:           TaskBilingualSummary,
		System:         bilingualGuidance,
		Instruction:    "Summarize this legal document in English and Arabic.",
		LawInstruction: "Summarize this Egyptian law in English and Arabic.",
		K:              15,
		Temperature:    0.2,
	},
	TaskReferences: {
		Name:           TaskReferences,
		System:         referencesGuidance,
		Instruction:    "List every law, article, regulation, and external document this document refers to.",
		LawInstruction: "List every other law, article, and decree this law refers to or amends.",
		K:              20,
		Temperature:    0,
	},
}

// Lookup returns the template of a task.
func Lookup(name string) (TaskSpec, bool) {
	tmpl, ok := taskSpecs[name]
	return tmpl, ok
}

// AnalysisTasks lists the single-shot tasks, sorted.
func AnalysisTasks() []string {
	out := make([]string, 0, len(taskSpecs)-1)
	for name := range taskSpecs {
		if name != TaskChat {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
