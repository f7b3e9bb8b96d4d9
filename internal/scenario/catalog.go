package scenario

import (
	"embed"

	"github.com/berth-dev/cutover/internal/simulation"
)

//go:embed snippets/*.go.txt
var snippets embed.FS

// ServiceCombo is a legacy AWS module and the services it calls.
type ServiceCombo struct {
	Module   string
	Services []string
	snippet  string
}

// BusinessContext frames why the migration is happening.
type BusinessContext struct {
	Text        string
	Constraints []simulation.Constraint
}

var combos = []ServiceCombo{
	{Module: "file_processor", Services: []string{"S3", "SNS"}, snippet: "file_processor.go.txt"},
	{Module: "message_processor", Services: []string{"Lambda", "SQS"}, snippet: "message_processor.go.txt"},
	{Module: "user_data_service", Services: []string{"DynamoDB", "IAM"}, snippet: "user_data_service.go.txt"},
	{Module: "instance_monitor", Services: []string{"EC2", "CloudWatch"}, snippet: "instance_monitor.go.txt"},
}

var contexts = []BusinessContext{
	{
		Text: "You've joined a mid-size startup (50 engineers) that has run on AWS for 3 years. " +
			"The CTO just announced a strategic partnership requiring migration to Azure within 6 months. " +
			"Documentation is partial: some services are well documented, others have only legacy code.",
		Constraints: []simulation.Constraint{simulation.ConstraintTime, simulation.ConstraintPartialDocs},
	},
	{
		Text: "Your company is being acquired, and the acquirer uses GCP exclusively. " +
			"You have 3 months to migrate critical services. Budget is tight, and downtime for existing customers must be minimal.",
		Constraints: []simulation.Constraint{simulation.ConstraintTime, simulation.ConstraintCost, simulation.ConstraintDowntime},
	},
	{
		Text: "Regulation mandates moving sensitive data to a different cloud provider. Security and compliance are paramount. " +
			"You have 4 months and must pass security audits along the way.",
		Constraints: []simulation.Constraint{simulation.ConstraintSecurity, simulation.ConstraintTime},
	},
	{
		Text: "Cost optimization initiative: migrate to a cheaper cloud provider. " +
			"The service handles millions of requests per day and must keep its current performance.",
		Constraints: []simulation.Constraint{simulation.ConstraintCost, simulation.ConstraintPerf},
	},
	{
		Text: "Multi-cloud strategy: move some services off AWS to reduce vendor lock-in. " +
			"The migration must be gradual with zero downtime. Some services are customer-facing and critical.",
		Constraints: []simulation.Constraint{simulation.ConstraintDowntime, simulation.ConstraintTime},
	},
}

// Combos returns the service combinations in the catalog.
func Combos() []ServiceCombo { return combos }

// Contexts returns the business contexts in the catalog.
func Contexts() []BusinessContext { return contexts }

// Snippet returns the legacy code for the combo.
func (c ServiceCombo) Snippet() (string, error) {
	b, err := snippets.ReadFile("snippets/" + c.snippet)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
