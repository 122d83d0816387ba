package report

import (
	"fmt"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/nao1215/a11yreport/internal/model"
)

// sarifInformationURI points consumers at the rule documentation source.
const sarifInformationURI = "https://github.com/dequelabs/axe-core"

// SARIFSerializer renders issues as a SARIF 2.1.0 log so that code
// scanning dashboards can ingest them.
type SARIFSerializer struct {
	toolName string
}

// NewSARIFSerializer creates a SARIF serializer. An empty toolName uses the
// engine name from the issues.
func NewSARIFSerializer(toolName string) *SARIFSerializer {
	return &SARIFSerializer{toolName: toolName}
}

// ContentType implements Serializer.
func (s *SARIFSerializer) ContentType() string {
	return ContentTypeSARIF
}

// Marshal implements Serializer. The header flag does not apply.
func (s *SARIFSerializer) Marshal(issues []model.Issue, _ bool) (string, error) {
	log, err := sarif.New(sarif.Version210)
	if err != nil {
		return "", fmt.Errorf("failed to create sarif log: %w", err)
	}

	name := s.toolName
	if name == "" && len(issues) > 0 {
		name = issues[0].Engine
	}
	if name == "" {
		name = "axe-core"
	}

	run := sarif.NewRunWithInformationURI(name, sarifInformationURI)
	for _, issue := range issues {
		rule := run.AddRule(issue.Rule).
			WithDescription(issue.Description).
			WithHelpURI(issue.HelpURL)

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(issue.URL)),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(sarifMessage(issue))).
			WithLevel(sarifLevel(issue.Impact)).
			WithLocations([]*sarif.Location{location})
		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("target", issue.Target)
		result.Add("fingerprint", Fingerprint(issue))
		if issue.Parent != "" {
			result.Add("parent", issue.Parent)
		}
		if issue.Screenshot != "" {
			result.Add("screenshot", issue.Screenshot)
		}
		run.AddResult(result)
	}
	log.AddRun(run)

	var sb strings.Builder
	if err := log.PrettyWrite(&sb); err != nil {
		return "", fmt.Errorf("failed to write sarif log: %w", err)
	}
	return sb.String(), nil
}

func sarifMessage(issue model.Issue) string {
	msg := issue.Help
	if issue.Message != "" {
		msg += ": " + issue.Message
	}
	if loc := issue.Locator(); loc != "" {
		msg += " (" + loc + ")"
	}
	return msg
}

// sarifLevel maps axe impacts to SARIF result levels.
func sarifLevel(impact model.Impact) string {
	switch impact {
	case model.ImpactCritical, model.ImpactSerious:
		return "error"
	case model.ImpactModerate:
		return "warning"
	default:
		return "note"
	}
}
