package orchestration

import "strings"

// WorkflowStep is one fixed step of a workflow definition.
type WorkflowStep struct {
	Model string
	// Role is the step's display label.
	Role string
	// Task is a short description of what the step contributes.
	Task string
	// PromptTemplate builds the step's user prompt; the {input} token is
	// replaced with the running transcript.
	PromptTemplate string
	// Weight is stored configuration only. No aggregation uses it.
	Weight float64
}

// Prompt renders the step's template against the running transcript.
func (s WorkflowStep) Prompt(input string) string {
	return strings.ReplaceAll(s.PromptTemplate, "{input}", input)
}

// WorkflowDefinition is a fixed ordered sequence of specialized steps.
// Definitions are static configuration, never derived at runtime.
type WorkflowDefinition struct {
	TaskType    string
	Name        string
	Description string
	Steps       []WorkflowStep
}

var workflowDefinitions = []WorkflowDefinition{
	{
		TaskType:    "data-analysis",
		Name:        "Data Analysis",
		Description: "Explore a dataset or data question, model it, and report findings.",
		Steps: []WorkflowStep{
			{
				Model:          "openai/gpt-4o",
				Role:           "Data Explorer",
				Task:           "Understand the data and surface initial patterns",
				PromptTemplate: "Examine the following request and data description. Identify the key variables, data quality concerns, and the patterns worth investigating.\n\n{input}",
				Weight:         0.3,
			},
			{
				Model:          "anthropic/claude-sonnet-4",
				Role:           "Statistical Analyst",
				Task:           "Apply rigorous analysis to the identified patterns",
				PromptTemplate: "Building on the exploration below, perform a rigorous analysis. State your methods, assumptions, and the strength of each finding.\n\n{input}",
				Weight:         0.4,
			},
			{
				Model:          "google/gemini-2.0-flash-001",
				Role:           "Insights Reporter",
				Task:           "Translate the analysis into actionable conclusions",
				PromptTemplate: "Turn the analysis below into a clear report for a non-technical reader. Lead with conclusions, then supporting evidence and caveats.\n\n{input}",
				Weight:         0.3,
			},
		},
	},
	{
		TaskType:    "creative-project",
		Name:        "Creative Project",
		Description: "Develop a creative concept from idea through draft to polish.",
		Steps: []WorkflowStep{
			{
				Model:          "anthropic/claude-sonnet-4",
				Role:           "Concept Developer",
				Task:           "Generate and shape the core creative concept",
				PromptTemplate: "Develop a strong creative concept for the brief below. Explore tone, themes, and the angle that makes it distinctive.\n\n{input}",
				Weight:         0.35,
			},
			{
				Model:          "openai/gpt-4o",
				Role:           "Draft Writer",
				Task:           "Produce a complete first draft",
				PromptTemplate: "Using the concept work below, write a complete first draft. Commit to the chosen tone and structure.\n\n{input}",
				Weight:         0.4,
			},
			{
				Model:          "deepseek-chat",
				Role:           "Editor",
				Task:           "Refine the draft for clarity and impact",
				PromptTemplate: "Edit the draft below. Tighten the language, fix inconsistencies, and strengthen the opening and ending.\n\n{input}",
				Weight:         0.25,
			},
		},
	},
	{
		TaskType:    "technical-development",
		Name:        "Technical Development",
		Description: "Design, implement, and review a technical solution.",
		Steps: []WorkflowStep{
			{
				Model:          "anthropic/claude-sonnet-4",
				Role:           "Architect",
				Task:           "Design the solution and its interfaces",
				PromptTemplate: "Design a solution for the requirement below. Define the components, their interfaces, and the key trade-offs.\n\n{input}",
				Weight:         0.3,
			},
			{
				Model:          "deepseek-coder",
				Role:           "Implementer",
				Task:           "Write the implementation",
				PromptTemplate: "Implement the design below. Produce working code with brief notes on any deviations from the design.\n\n{input}",
				Weight:         0.45,
			},
			{
				Model:          "openai/gpt-4o",
				Role:           "Reviewer",
				Task:           "Review the implementation for correctness and robustness",
				PromptTemplate: "Review the implementation below against its design. Flag bugs, edge cases, and anything that will not hold up in production.\n\n{input}",
				Weight:         0.25,
			},
		},
	},
	{
		TaskType:    "research-project",
		Name:        "Research Project",
		Description: "Gather, evaluate, and synthesize information on a topic.",
		Steps: []WorkflowStep{
			{
				Model:          "google/gemini-2.0-flash-001",
				Role:           "Researcher",
				Task:           "Collect the relevant facts and perspectives",
				PromptTemplate: "Research the topic below. Lay out the key facts, the major perspectives, and where sources disagree.\n\n{input}",
				Weight:         0.35,
			},
			{
				Model:          "anthropic/claude-sonnet-4",
				Role:           "Critical Evaluator",
				Task:           "Assess the strength and reliability of the findings",
				PromptTemplate: "Evaluate the research below. Rate the reliability of each claim, identify gaps, and note what would change the conclusions.\n\n{input}",
				Weight:         0.35,
			},
			{
				Model:          "openai/gpt-4o",
				Role:           "Synthesizer",
				Task:           "Produce a coherent summary of the evaluated research",
				PromptTemplate: "Synthesize the evaluated research below into a coherent, balanced summary with clear takeaways.\n\n{input}",
				Weight:         0.3,
			},
		},
	},
	{
		TaskType:    "code-review",
		Name:        "Code Review",
		Description: "Review code for correctness, security, and maintainability.",
		Steps: []WorkflowStep{
			{
				Model:          "deepseek-coder",
				Role:           "Correctness Reviewer",
				Task:           "Check logic, edge cases, and error handling",
				PromptTemplate: "Review the code below for correctness. Walk through the logic, identify edge cases that break it, and check the error handling.\n\n{input}",
				Weight:         0.4,
			},
			{
				Model:          "anthropic/claude-sonnet-4",
				Role:           "Security Reviewer",
				Task:           "Check for security and safety issues",
				PromptTemplate: "Review the code and prior findings below for security issues. Consider input validation, injection, secrets handling, and unsafe defaults.\n\n{input}",
				Weight:         0.35,
			},
			{
				Model:          "openai/gpt-4o",
				Role:           "Maintainability Reviewer",
				Task:           "Assess readability and long-term maintainability",
				PromptTemplate: "Assess the code and review findings below for maintainability. Comment on naming, structure, test coverage, and what a future maintainer will struggle with.\n\n{input}",
				Weight:         0.25,
			},
		},
	},
	{
		TaskType:    "problem-solving",
		Name:        "Problem Solving",
		Description: "Break down a problem, generate options, and recommend a path.",
		Steps: []WorkflowStep{
			{
				Model:          "openai/gpt-4o",
				Role:           "Problem Analyst",
				Task:           "Decompose the problem and its constraints",
				PromptTemplate: "Break down the problem below. Separate the core problem from symptoms, and list the constraints any solution must satisfy.\n\n{input}",
				Weight:         0.3,
			},
			{
				Model:          "anthropic/claude-sonnet-4",
				Role:           "Solution Generator",
				Task:           "Generate and compare candidate solutions",
				PromptTemplate: "Given the problem breakdown below, generate several candidate solutions and compare them against the stated constraints.\n\n{input}",
				Weight:         0.4,
			},
			{
				Model:          "deepseek-chat",
				Role:           "Decision Advisor",
				Task:           "Recommend a solution with a concrete plan",
				PromptTemplate: "From the candidate solutions below, recommend one. Justify the choice and lay out the first concrete steps to execute it.\n\n{input}",
				Weight:         0.3,
			},
		},
	},
}

// Workflows returns all built-in workflow definitions, in a stable order.
func Workflows() []WorkflowDefinition {
	out := make([]WorkflowDefinition, len(workflowDefinitions))
	copy(out, workflowDefinitions)
	return out
}

// WorkflowByTaskType looks up a built-in definition.
func WorkflowByTaskType(taskType string) (WorkflowDefinition, bool) {
	for _, def := range workflowDefinitions {
		if def.TaskType == taskType {
			return def, true
		}
	}
	return WorkflowDefinition{}, false
}

// WorkflowTaskTypes returns the known task type names, in definition order.
func WorkflowTaskTypes() []string {
	types := make([]string, len(workflowDefinitions))
	for i, def := range workflowDefinitions {
		types[i] = def.TaskType
	}
	return types
}
