package report

import "github.com/nao1215/a11yreport/internal/model"

// ExtractMetadata pulls the scan-wide context out of a result set.
func ExtractMetadata(res *model.Results) model.ScanMetadata {
	env := res.TestEnvironment
	return model.ScanMetadata{
		Engine:           res.TestEngine.Name,
		AxeVersion:       res.TestEngine.Version,
		UserAgent:        env.UserAgent,
		WindowWidth:      env.WindowWidth,
		WindowHeight:     env.WindowHeight,
		OrientationAngle: env.OrientationAngle,
		OrientationType:  env.OrientationType,
		Timestamp:        res.Timestamp,
		URL:              res.URL,
	}
}

// ruleCategory builds the rule context shared by every node of a violation.
func ruleCategory(v model.Violation) model.RuleCategory {
	return model.RuleCategory{
		Type:        model.CategoryViolations,
		Rule:        v.ID,
		Description: v.Description,
		Help:        v.Help,
		HelpURL:     v.HelpURL,
	}
}
