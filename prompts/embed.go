// Package prompts embeds the LLM prompt templates used by the extraction and
// persona collaborators.
package prompts

import _ "embed"

//go:embed extract/system.md
var ExtractSystemPrompt string

//go:embed extract/extract.md.tmpl
var ExtractTemplate string

//go:embed persona/system.md.tmpl
var PersonaSystemTemplate string

//go:embed persona/turn.md.tmpl
var PersonaTurnTemplate string

//go:embed persona/rules.md
var PersonaRules string

//go:embed persona/roles/cto.md
var RoleCTO string

//go:embed persona/roles/pm.md
var RolePM string

//go:embed persona/roles/devops.md
var RoleDevOps string
