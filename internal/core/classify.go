package core

import (
	"strings"
	"unicode"
)

// keywordRule pairs a project type with the phrases that identify it.
type keywordRule struct {
	Type     ProjectType
	Keywords []string
}

// descriptionRules are checked in order. The first rule with a matching
// keyword wins, so more specific project shapes come first.
var descriptionRules = []keywordRule{
	{ProjectMobile, []string{
		"mobile app", "mobile application", "ios app", "android app", "iphone", "ipad",
		"android", "react native", "flutter", "app store", "play store", "smartphone",
	}},
	{ProjectExtension, []string{
		"browser extension", "chrome extension", "firefox extension", "firefox add-on",
		"firefox addon", "browser plugin", "browser add-on", "edge extension",
	}},
	{ProjectCLI, []string{
		"cli tool", "cli app", "cli utility", " cli ", "command line", "command-line",
		"terminal app", "terminal tool", "terminal-based", "shell script",
	}},
	{ProjectWeb, []string{
		"web app", "web application", "webapp", "website", "web site", "web portal",
		"landing page", "single page app",
	}},
	{ProjectAPI, []string{
		"rest api", "restful", "graphql", " api ", "api service", "api server",
		"backend service", "backend api", "microservice", "webhook", "grpc",
	}},
	{ProjectDataML, []string{
		"machine learning", " ml ", "deep learning", "neural network", "data analysis",
		"data science", "data pipeline", "data visualization", "predictive model",
		"prediction model", "classifier", "jupyter", " nlp", "computer vision", " llm",
	}},
	{ProjectGame, []string{
		" game", "gaming", "multiplayer", "platformer", "roguelike", "puzzle",
		"arcade", " rpg",
	}},
	{ProjectDesktop, []string{
		"desktop app", "desktop application", "desktop client", "electron", "tauri",
		"windows app", "macos app", "mac app", "linux app",
	}},
	{ProjectDevOps, []string{
		"devops", "ci/cd", "ci cd", "continuous integration", "kubernetes", "k8s",
		"terraform", "infrastructure", "deployment pipeline", "docker", "ansible",
		"monitoring tool", "observability",
	}},
	{ProjectEducational, []string{
		"tutorial", "educational", "teach", "learning platform", "online course", " courses", "lesson",
		"quiz", "flashcard", "students",
	}},
}

// techRules classify from the user's technologies when the description is silent.
var techRules = []keywordRule{
	{ProjectMobile, []string{"react native", "flutter", "swiftui", "swift", "kotlin", "expo", "ionic"}},
	{ProjectExtension, []string{"webextension", "chrome api", "manifest v3"}},
	{ProjectCLI, []string{"cobra", "click", "commander", "clap", "argparse"}},
	{ProjectWeb, []string{"react", "vue", "angular", "svelte", "next.js", "nextjs", "nuxt", "html", "css"}},
	{ProjectAPI, []string{"express", "fastapi", "flask", "django", "spring", "gin", "nestjs", "graphql", "rails"}},
	{ProjectDataML, []string{"tensorflow", "pytorch", "pandas", "numpy", "scikit-learn", "sklearn", "jupyter", "keras"}},
	{ProjectGame, []string{"unity", "godot", "unreal", "pygame", "phaser", "love2d"}},
	{ProjectDesktop, []string{"electron", "tauri", "qt", "wpf", "gtk"}},
	{ProjectDevOps, []string{"docker", "kubernetes", "terraform", "ansible", "helm", "jenkins"}},
}

// ClassifyProjectType maps a free-text description, plus the user's known and
// starred technologies, onto a project label. The description wins over the
// technology lists, and Web Application is returned when nothing matches.
func ClassifyProjectType(description string, knownTech, starredTech []string) ProjectType {
	lower := strings.ToLower(description)
	spaced := normalizeText(description)

	for _, rule := range descriptionRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) || strings.Contains(spaced, kw) {
				return rule.Type
			}
		}
	}

	techs := make([]string, 0, len(knownTech)+len(starredTech))
	for _, t := range append(append([]string{}, knownTech...), starredTech...) {
		techs = append(techs, strings.ToLower(strings.TrimSpace(t)))
	}
	for _, rule := range techRules {
		for _, kw := range rule.Keywords {
			for _, tech := range techs {
				if tech == kw || strings.HasPrefix(tech, kw+" ") {
					return rule.Type
				}
			}
		}
	}

	return ProjectWeb
}

// ClassifyExperience buckets the user by how many technologies they listed.
func ClassifyExperience(knownTech, starredTech []string) ExperienceLevel {
	n := len(knownTech) + len(starredTech)
	switch {
	case n > 15:
		return ExperienceAdvanced
	case n > 8:
		return ExperienceIntermediate
	default:
		return ExperienceBeginner
	}
}

// Description returns the sentence used in prompts for this level.
func (l ExperienceLevel) Description() string {
	switch l {
	case ExperienceAdvanced:
		return "Experienced developer comfortable with a wide range of technologies and complex architectures."
	case ExperienceIntermediate:
		return "Developer with solid fundamentals who is comfortable picking up new frameworks."
	default:
		return "Developer early in their journey who benefits from well-documented, beginner-friendly tools."
	}
}

// normalizeText lowercases s, turns punctuation into single spaces and pads
// both ends, so " api " style keywords match at word boundaries.
func normalizeText(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '/'
	})
	return " " + strings.Join(fields, " ") + " "
}
