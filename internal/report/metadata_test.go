package report

import (
	"testing"

	"github.com/nao1215/a11yreport/internal/model"
)

func TestExtractMetadata(t *testing.T) {
	t.Parallel()

	angle := 90
	res := &model.Results{
		TestEngine: model.TestEngine{Name: "axe-core", Version: "4.8.2"},
		TestEnvironment: model.TestEnvironment{
			UserAgent:        "Mozilla/5.0",
			WindowWidth:      1280,
			WindowHeight:     720,
			OrientationAngle: &angle,
			OrientationType:  "landscape-primary",
		},
		Timestamp: testTimestamp,
		URL:       "https://example.com/contact",
	}

	got := ExtractMetadata(res)
	want := model.ScanMetadata{
		Engine:           "axe-core",
		AxeVersion:       "4.8.2",
		UserAgent:        "Mozilla/5.0",
		WindowWidth:      1280,
		WindowHeight:     720,
		OrientationAngle: &angle,
		OrientationType:  "landscape-primary",
		Timestamp:        testTimestamp,
		URL:              "https://example.com/contact",
	}
	if got != want {
		t.Errorf("ExtractMetadata() = %+v, want %+v", got, want)
	}

	t.Run("missing environment", func(t *testing.T) {
		t.Parallel()

		got := ExtractMetadata(&model.Results{URL: "https://example.com/"})
		if got.OrientationAngle != nil || got.UserAgent != "" {
			t.Errorf("expected zero environment, got %+v", got)
		}
		if got.URL != "https://example.com/" {
			t.Errorf("URL = %q", got.URL)
		}
	})
}
