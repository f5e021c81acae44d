package core

import (
	"fmt"
	"strings"
)

// Persona is the role an LLM plays for one stage.
type Persona struct {
	Role           string
	Goal           string
	Backstory      string
	ExpectedOutput string
	// Direction is extra guidance layered on by a coordinating persona.
	Direction string
}

// SystemPrompt renders the persona as a system prompt.
func (p Persona) SystemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a %s.\n\nYour goal: %s\n\n%s\n", p.Role, p.Goal, strings.TrimSpace(p.Backstory))
	if p.Direction != "" {
		fmt.Fprintf(&sb, "\n%s\n", strings.TrimSpace(p.Direction))
	}
	if p.ExpectedOutput != "" {
		fmt.Fprintf(&sb, "\nExpected output: %s\n", p.ExpectedOutput)
	}
	sb.WriteString("\nRespond with the requested content only. Do not add commentary before or after it.")
	return sb.String()
}

// WithDirection returns a copy of p that works under the given coordinator.
func (p Persona) WithDirection(coordinator Persona) Persona {
	p.Direction = fmt.Sprintf("You are working under the direction of a %s.\n%s",
		coordinator.Role, strings.TrimSpace(coordinator.Backstory))
	return p
}

// The functions below build personas fresh for each request. None of them
// hold state, so concurrent requests never share a persona.

// ResearchPersona evaluates candidate tools across every phase.
func ResearchPersona() Persona {
	return Persona{
		Role: "Technology Research Specialist",
		Goal: "Research and evaluate tools across all project phases",
		Backstory: `You are an expert in researching and evaluating development tools and technologies.
You excel at finding and evaluating tools for setup, frontend, backend, testing, deployment, and maintenance.
You understand how different tools complement each other and can identify the best options based on project requirements.`,
		ExpectedOutput: "A structured list of technology research findings.",
	}
}

// CuratorPersona turns research findings into a single coherent stack.
func CuratorPersona() Persona {
	return Persona{
		Role: "Tech Stack Curator",
		Goal: "Create a comprehensive tech stack recommendation",
		Backstory: `You are a tech stack curator who excels at creating complete development ecosystems.
You understand how to structure projects and which tools work best together.
You create practical, well-reasoned recommendations that consider the team's experience level.`,
		ExpectedOutput: "A clean JSON object containing the curated tech stack with detailed explanations.",
	}
}

// CategoryPersona plans the tasks for a single development phase.
func CategoryPersona(c Category) Persona {
	p := Persona{ExpectedOutput: `A JSON object of the form {"tasks": [...]} for this phase only.`}
	switch c {
	case CategorySetup:
		p.Role = "Project Setup Specialist"
		p.Goal = "Plan the environment, repository, and tooling setup tasks"
		p.Backstory = `You have bootstrapped hundreds of projects. You know exactly which tools to install,
how to structure a fresh repository, and which configuration steps people forget.`
	case CategoryFrontend:
		p.Role = "Frontend Development Planner"
		p.Goal = "Plan the user interface and client-side tasks"
		p.Backstory = `You are a frontend lead who breaks interfaces down into pages, components, and state.
You know how to sequence UI work so something visible exists early.`
	case CategoryBackend:
		p.Role = "Backend Development Planner"
		p.Goal = "Plan the server-side logic, API, and data tasks"
		p.Backstory = `You are a backend architect who designs data models, endpoints, and integrations.
You sequence backend work so the frontend is never blocked for long.`
	case CategoryTesting:
		p.Role = "Quality Assurance Planner"
		p.Goal = "Plan the testing and quality assurance tasks"
		p.Backstory = `You are a QA engineer who knows which tests give the most confidence for the least effort.
You plan unit, integration, and end-to-end checks that match the chosen tools.`
	case CategoryDeploy:
		p.Role = "Deployment Planner"
		p.Goal = "Plan the infrastructure and go-live tasks"
		p.Backstory = `You are a release engineer who has shipped applications to every major platform.
You plan the smallest reliable path from a working build to a live product.`
	case CategoryMaintain:
		p.Role = "Maintenance Planner"
		p.Goal = "Plan the monitoring, update, and bug-fix tasks after launch"
		p.Backstory = `You keep products healthy after launch. You plan monitoring, dependency updates,
feedback loops, and routines for fixing bugs quickly.`
	default:
		p.Role = "Task Planner"
		p.Goal = fmt.Sprintf("Plan the %s tasks", c)
		p.Backstory = "You break software work into small, actionable steps."
	}
	return p
}

// CoordinatorPersona steers every category planner. Speed and Scalability get
// their own coordinator; anything else falls back to the speed-oriented one.
func CoordinatorPersona(priority Priority) Persona {
	if priority == PriorityScalability {
		return Persona{
			Role: "Scalability-Oriented Task Planner",
			Goal: "Create scalable architecture task breakdowns for software projects",
			Backstory: `You are an expert at designing scalable software architectures.
You prioritize future-proofing and extensibility in your task planning.
You focus on creating a solid foundation that can grow with the project.
You create tasks that ensure the system can handle growth in users, data, and features.`,
		}
	}
	return Persona{
		Role: "Speed-Oriented Task Planner",
		Goal: "Create rapid development task breakdowns for software projects",
		Backstory: `You are an expert at rapid prototyping and MVP development.
You prioritize essential features and quick implementation over perfection.
You know how to identify core functionality and defer nice-to-have features.
You create tasks that can be completed quickly without sacrificing too much quality.`,
	}
}

// PromptEngineerPersona writes implementation prompts for individual tasks.
func PromptEngineerPersona() Persona {
	return Persona{
		Role: "Prompt Engineer",
		Goal: "Write precise prompts an AI coding assistant can follow to complete each task",
		Backstory: `You are an expert at turning short task descriptions into clear, self-contained
instructions for AI coding assistants. Your prompts name the tools to use, the files to touch,
and how to verify the result.`,
		ExpectedOutput: `A JSON object of the form {"taskPrompts": [...]}.`,
	}
}

// IdeaEnhancerPersona expands a rough project idea.
func IdeaEnhancerPersona() Persona {
	return Persona{
		Role: "Product Strategist",
		Goal: "Turn a rough project idea into a clear, buildable concept",
		Backstory: `You help developers sharpen early ideas. You identify what kind of project it is,
describe it in plain language, and list the features that matter for a first version.`,
	}
}
