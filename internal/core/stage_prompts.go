package core

import (
	"fmt"
	"strings"
)

// CategoryTaskPrompt is the user prompt for one phase of task planning.
// Earlier phases' tasks are embedded so the model does not repeat them.
const CategoryTaskPrompt = `Create the %s tasks for the following %s project.

Project Description: %s

Priority: %s
%s

Recommended tools for this phase:
%s

Rest of the tech stack:
%s

Tasks already planned in earlier phases (do not repeat them):
%s

IMPORTANT GUIDELINES:
1. Make each task and subtask HIGHLY ACTIONABLE with specific instructions.
2. A user should be able to complete each task/subtask without needing additional information.
3. Use the recommended tools by name where relevant.
4. Each task and subtask should be exactly ONE SENTENCE in length.
5. If a subtask involves a significant amount of work, make it a task instead.
6. Keep task names BRIEF: 5-10 words, starting with an action verb.
7. Use clear language a non-expert can follow.
8. Create as many tasks as this phase needs, and no tasks for other phases.

Phase definition: %s

Format the response as a JSON object with this structure:
{
  "tasks": [
    {
      "text": "Task description",
      "category": "%s",
      "subtasks": [
        {"text": "Subtask description with specific actionable details"}
      ]
    }
  ]
}

Output ONLY the JSON object.`

// TaskInput is everything the task pipeline needs.
type TaskInput struct {
	Description string
	Priority    Priority
	TechStack   TechStack
	ProjectType ProjectType
}

// BuildCategoryTaskPrompt creates the prompt for one category stage.
func BuildCategoryTaskPrompt(in TaskInput, c Category, earlier []Task) string {
	return fmt.Sprintf(CategoryTaskPrompt,
		c.Label(), in.ProjectType,
		in.Description,
		in.Priority, taskPriorityGuidance(in.Priority),
		formatTools(in.TechStack.Get(c)),
		formatOtherTools(in.TechStack, c),
		formatEarlierTasks(earlier),
		categoryDefinition(c),
		c,
	)
}

func taskPriorityGuidance(p Priority) string {
	switch p {
	case PrioritySpeed:
		return `Focus on essential features and quick implementation: prioritize core functionality,
suggest simpler implementations, and defer features that are not critical for the MVP.`
	case PriorityScalability:
		return `Focus on architecture and future-proofing: separation of concerns, modular design,
database scaling, monitoring, logging, and containerization where appropriate.`
	default:
		return `Focus on learning outcomes: include steps for researching new technologies, practising
new skills, reading the official documentation, and reviewing the code against best practices.`
	}
}

func categoryDefinition(c Category) string {
	switch c {
	case CategoryPlan:
		return "Plan & Design - initial requirements, user flows, architecture ideas, wireframes."
	case CategorySetup:
		return "Setup - environment configuration, repository initialization, installing core tools."
	case CategoryFrontend:
		return "Frontend - user interface development, client-side logic."
	case CategoryBackend:
		return "Backend - server-side logic, API development, database interactions."
	case CategoryTesting:
		return "Testing - writing tests, quality assurance checks."
	case CategoryDeploy:
		return "Deploy - infrastructure setup, deployment process, going live."
	case CategoryMaintain:
		return "Maintain - monitoring, updates, bug fixes after launch."
	}
	return string(c)
}

func formatTools(items []TechItem) string {
	if len(items) == 0 {
		return "- None specified; choose sensible defaults."
	}
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s: %s\n", item.Name, item.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatOtherTools(stack TechStack, skip Category) string {
	var parts []string
	for _, c := range WorkCategories {
		if c == skip {
			continue
		}
		var names []string
		for _, item := range stack.Get(c) {
			names = append(names, item.Name)
		}
		if len(names) > 0 {
			parts = append(parts, fmt.Sprintf("- %s: %s", c.Label(), strings.Join(names, ", ")))
		}
	}
	if len(parts) == 0 {
		return "- None"
	}
	return strings.Join(parts, "\n")
}

func formatEarlierTasks(tasks []Task) string {
	if len(tasks) == 0 {
		return "- None yet"
	}
	var sb strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&sb, "- [%s] %s\n", t.Category, t.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
