package copilot

import (
	"fmt"
	"strings"
)

// Agent is one of the fixed prompt/response workflows.
type Agent struct {
	// Name is the stable lowercase identifier ("architect")
	Name string

	// Title is the human name ("Architect")
	Title string

	// Model is the fixed model identifier the agent always uses
	Model Model

	// Instruction is the fixed system instruction prepended to every prompt
	Instruction string

	// InputLabel introduces the user text in the prompt. Empty means the
	// agent takes no text input.
	InputLabel string

	// CapturesScreen attaches a screenshot to the request
	CapturesScreen bool

	StepLabel         string
	Placeholder       string
	ButtonLabel       string
	ValidationMessage string
	WorkingMessage    string
}

// RequiresInput reports whether the agent needs user text.
func (a Agent) RequiresInput() bool {
	return a.InputLabel != ""
}

// Validate checks user input. Whitespace-only text counts as empty.
func (a Agent) Validate(input string) error {
	if a.RequiresInput() && strings.TrimSpace(input) == "" {
		return &ValidationError{Agent: a.Name, Message: a.ValidationMessage}
	}
	return nil
}

// Prompt builds the full prompt: the instruction followed by the labelled
// user text, or the instruction alone for agents without input.
func (a Agent) Prompt(input string) string {
	if !a.RequiresInput() {
		return a.Instruction
	}
	return fmt.Sprintf("%s\n\n%s: %s", a.Instruction, a.InputLabel, input)
}

var (
	Architect = Agent{
		Name:  "architect",
		Title: "Architect",
		Model: ModelLlama3,
		Instruction: "You are an expert AI Architect and Project Manager. " +
			"The user will provide a high-level project idea. " +
			"Your task is to break it down into a numbered list of concrete, actionable steps for a hackathon team to follow. " +
			"Be detailed and provide a clear plan.",
		InputLabel:        "Project Idea",
		StepLabel:         "Step 1: Enter your high-level project idea:",
		Placeholder:       "e.g., 'A simple weather app using Python'",
		ButtonLabel:       "Architect Project Plan (Llama 3)",
		ValidationMessage: "Please enter a project idea.",
		WorkingMessage:    "Architect is breaking down the project idea...",
	}

	Coder = Agent{
		Name:  "coder",
		Title: "Coder",
		Model: ModelGemma3n,
		Instruction: "You are an expert AI Coder. " +
			"The user will provide a specific task. " +
			"Your task is to write a clean, well-commented code snippet that solves the task. " +
			"Provide only the code and nothing else. Do not provide explanations or extra text.",
		InputLabel:        "Task",
		StepLabel:         "Step 2: Enter a specific task for The Coder:",
		Placeholder:       "e.g., 'Write a Python function to get weather data from an API'",
		ButtonLabel:       "Write Code (Gemma 3n)",
		ValidationMessage: "Please enter a specific task for The Coder.",
		WorkingMessage:    "Coder is writing the code...",
	}

	Debugger = Agent{
		Name:  "debugger",
		Title: "Debugger",
		Model: ModelGemma3n,
		Instruction: "You are an expert AI Debugger. The user has provided a screenshot of a bug or an error. " +
			"Analyze the image and provide a detailed, actionable solution. " +
			"Your response should be a clear explanation of the problem and the steps to fix it.",
		CapturesScreen: true,
		StepLabel:      "Step 3: Capture an error for The Debugger:",
		ButtonLabel:    "Debug Error (Gemma 3n)",
		WorkingMessage: "Debugger is capturing the screen and analyzing the error...",
	}
)

// Agents returns the fixed agents in display order.
func Agents() []Agent {
	return []Agent{Architect, Coder, Debugger}
}

// AgentByName looks up an agent by its Name.
func AgentByName(name string) (Agent, bool) {
	for _, a := range Agents() {
		if a.Name == name {
			return a, true
		}
	}
	return Agent{}, false
}
