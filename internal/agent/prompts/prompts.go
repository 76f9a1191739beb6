package prompts

import (
	_ "embed"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/explain_prompt.txt
var explainPrompt string

//go:embed template/optimize_prompt.txt
var optimizePrompt string

// Template variables.
const (
	VarData       = "Data"
	VarPrediction = "Prediction"
	VarEmission   = "Emission"
	VarCount      = "Count"
)

// Explain renders the emission explanation request. Expects VarData and VarPrediction.
func Explain() prompt.ChatTemplate {
	return prompt.FromMessages(schema.GoTemplate, schema.UserMessage(explainPrompt))
}

// Optimize renders the suggestion request. Expects VarData, VarEmission and VarCount.
func Optimize() prompt.ChatTemplate {
	return prompt.FromMessages(schema.GoTemplate, schema.UserMessage(optimizePrompt))
}
