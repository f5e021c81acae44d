package core

import (
	"fmt"
	"strings"
)

// ResearchPrompt asks the research persona to survey candidate tools.
const ResearchPrompt = `Consider the user's technology background and preferences:
- Technologies they have experience with: %s
- Technologies to avoid: %s
- Priority technologies (must be included where they fit): %s
- Experience level: %s (%s)

Project Description: %s

Research and recommend technologies for this %s project across the setup, frontend,
backend, testing, deploy, and maintain phases.
Focus on tools that align with the project's core requirements and avoid redundant frameworks.
%s`

// CurationPrompt asks the curator persona for the final JSON stack.
const CurationPrompt = `Create a tech stack recommendation for a %s with %s as the main priority.

Project Description: %s

Consider the user's technology background and preferences:
- Technologies they have experience with: %s
- Technologies to avoid (never recommend these): %s
- Priority technologies (include these where they fit): %s
- Experience level: %s (%s)

Priority guidance:
%s

%s

Research findings from the previous step:
---
%s
---

Create a practical, well-reasoned recommendation that considers the user's experience level.
Recommend one tool per category where possible.

IMPORTANT: Each technology recommendation MUST include:
1. name: The technology's name
2. description: A brief explanation (50-75 words) of what it does and why it fits
3. docLink: URL to official documentation or relevant resource

IMPORTANT: Only recommend one deployment platform in the deploy array. Choose the most suitable
one for the project and do not include more than one.

The response MUST be a valid JSON object with this exact structure:
{
  "type": "%s",
  "setup": [
    {
      "name": "Technology name",
      "description": "Brief explanation of what this technology does and why it fits",
      "docLink": "URL to official documentation"
    }
  ],
  "frontend": [...],
  "backend": [...],
  "testing": [...],
  "deploy": [...],
  "maintain": [...]
}

Each array should contain at least one technology with all required fields.
Output ONLY the JSON object.`

// EnhanceIdeaPrompt asks for a structured rewrite of a rough idea.
const EnhanceIdeaPrompt = `Enhance the following project idea.

Project idea: %s

Respond in exactly this format:

Project Type: <one of: %s>
Description: <3-4 sentences describing the project, its users, and its core value>
Features:
- <feature>
- <feature>
- <feature>

List between 4 and 8 features, most important first.`

// TaskPromptsPrompt asks for one implementation prompt per task and subtask.
const TaskPromptsPrompt = `Write implementation prompts for an AI coding assistant.

Tech stack in use: %s

Tasks:
%s

For every task, write one prompt that explains what to build and how to verify it, naming the
relevant tools from the tech stack. For every subtask, write a shorter, focused prompt.
Use the exact task and subtask IDs given above.

Respond with a JSON object of this structure:
{
  "taskPrompts": [
    {
      "taskId": "task-1",
      "prompt": "Prompt for the whole task",
      "subtaskPrompts": [
        {"subtaskId": "subtask-1-1", "prompt": "Prompt for the subtask"}
      ]
    }
  ]
}

Output ONLY the JSON object.`

// TechStackInput is everything the tech stack pipeline needs.
type TechStackInput struct {
	ProjectType     ProjectType
	Priority        Priority
	ExperienceLevel ExperienceLevel
	Description     string
	KnownTech       []string
	DislikedTech    []string
	StarredTech     []string
}

// BuildResearchPrompt creates the user prompt for the research stage.
func BuildResearchPrompt(in TechStackInput) string {
	return fmt.Sprintf(ResearchPrompt,
		listOrNone(in.KnownTech),
		listOrNone(in.DislikedTech),
		listOrNone(in.StarredTech),
		in.ExperienceLevel, in.ExperienceLevel.Description(),
		in.Description,
		in.ProjectType,
		platformGuidance(in.ProjectType),
	)
}

// BuildCurationPrompt creates the user prompt for the curation stage,
// embedding the research stage output.
func BuildCurationPrompt(in TechStackInput, research string) string {
	return fmt.Sprintf(CurationPrompt,
		in.ProjectType, in.Priority,
		in.Description,
		listOrNone(in.KnownTech),
		listOrNone(in.DislikedTech),
		listOrNone(in.StarredTech),
		in.ExperienceLevel, in.ExperienceLevel.Description(),
		stackPriorityGuidance(in.Priority),
		platformGuidance(in.ProjectType),
		strings.TrimSpace(research),
		in.ProjectType,
	)
}

// BuildEnhanceIdeaPrompt creates the prompt for idea enhancement.
func BuildEnhanceIdeaPrompt(description string) string {
	labels := make([]string, len(ProjectTypes))
	for i, pt := range ProjectTypes {
		labels[i] = string(pt)
	}
	return fmt.Sprintf(EnhanceIdeaPrompt, strings.TrimSpace(description), strings.Join(labels, ", "))
}

// BuildTaskPromptsPrompt creates the prompt for per-task implementation prompts.
func BuildTaskPromptsPrompt(tasks []Task, techStack []string) string {
	var sb strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&sb, "- %s [%s]: %s\n", t.ID, t.Category, t.Text)
		for _, st := range t.Subtasks {
			fmt.Fprintf(&sb, "  - %s: %s\n", st.ID, st.Text)
		}
	}
	return fmt.Sprintf(TaskPromptsPrompt, listOrNone(techStack), strings.TrimRight(sb.String(), "\n"))
}

func stackPriorityGuidance(p Priority) string {
	switch p {
	case PrioritySpeed:
		return `- Favor mature, batteries-included tools with minimal configuration.
- Prefer managed services and templates that get a working product live quickly.
- Reuse technologies the user already knows wherever they fit.`
	case PriorityScalability:
		return `- Favor tools proven in large production systems.
- Prefer typed languages, modular architecture, and databases that scale horizontally.
- Include observability and automation from the start.`
	default:
		return `- Favor tools with excellent documentation, large communities, and learning resources.
- Introduce at most a few technologies that are new to the user, and explain why each is worth learning.
- Prefer clarity over cleverness.`
	}
}

func platformGuidance(pt ProjectType) string {
	if pt == ProjectMobile {
		return `This is a mobile project: recommend a mobile framework (for example React Native or Flutter)
for the frontend and a mobile build and release service (for example Expo) for deployment.
Do not recommend web hosting platforms such as Vercel, Netlify, or Heroku for deployment.`
	}
	return `This is not a mobile project: do not recommend mobile-only frameworks unless the
description explicitly asks for a mobile client.`
}

func listOrNone(items []string) string {
	var kept []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "None"
	}
	return strings.Join(kept, ", ")
}
