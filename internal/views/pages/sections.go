package pages

import "strings"

const defaultWorkspaceSection = "workbench"

var workspaceSections = map[string]string{
	"workbench":   "Workbench",
	"recipes":     "Recipes",
	"ingredients": "Ingredients",
	"tools":       "Import",
}

// NormalizeWorkspaceSection lowercases a section key and falls back to the
// workbench for unknown values.
func NormalizeWorkspaceSection(section string) string {
	key := strings.ToLower(strings.TrimSpace(section))
	if _, ok := workspaceSections[key]; ok {
		return key
	}
	return defaultWorkspaceSection
}

// ValidWorkspaceSection reports whether section names a known page.
func ValidWorkspaceSection(section string) bool {
	_, ok := workspaceSections[section]
	return ok
}

// DefaultWorkspaceSection is the landing section after sign in.
func DefaultWorkspaceSection() string {
	return defaultWorkspaceSection
}

func sectionTitle(section string) string {
	return workspaceSections[NormalizeWorkspaceSection(section)]
}

// DefaultDash returns a dash when the provided value is empty or whitespace.
func DefaultDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
