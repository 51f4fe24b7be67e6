// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/forecast-dashboard/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateMetricChoice checks that a requested metric is one the dashboard
// offers. The comparison ignores case and surrounding spaces.
func ValidateMetricChoice(metric string, offered []string) error {
	want := strings.ToUpper(strings.TrimSpace(metric))
	for _, m := range offered {
		if strings.ToUpper(m) == want {
			return nil
		}
	}
	return fmt.Errorf("metric %q is not offered, expected one of %s", metric, strings.Join(offered, ", "))
}
