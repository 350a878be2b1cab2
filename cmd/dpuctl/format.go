package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"dpu-platform/pkg/types"
)

var outputFormats = []string{"table", "json", "simple"}

func validateFormat(format string) error {
	for _, f := range outputFormats {
		if strings.ToLower(format) == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s. Use: %s", format, strings.Join(outputFormats, ", "))
}

func formatJSON(v interface{}) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// formatModuleMap renders the descriptor's module to bus mapping
func formatModuleMap(busMap map[string]string, format string) string {
	names := make([]string, 0, len(busMap))
	for name := range busMap {
		names = append(names, name)
	}
	sort.Strings(names)

	switch strings.ToLower(format) {
	case "json":
		return formatJSON(busMap)
	case "simple":
		var builder strings.Builder
		for _, name := range names {
			builder.WriteString(fmt.Sprintf("%s\t%s\n", name, busMap[name]))
		}
		return builder.String()
	}

	var builder strings.Builder
	builder.WriteString("┌─────────────────────┬─────────────────────┐\n")
	builder.WriteString("│ Module              │ PCI Address         │\n")
	builder.WriteString("├─────────────────────┼─────────────────────┤\n")
	for _, name := range names {
		builder.WriteString(fmt.Sprintf("│ %-19s │ %-19s │\n", truncateString(name, 19), truncateString(busMap[name], 19)))
	}
	builder.WriteString("└─────────────────────┴─────────────────────┘\n")
	return builder.String()
}

func formatStatus(statuses []types.ModuleStatus, format string) string {
	switch strings.ToLower(format) {
	case "json":
		return formatJSON(statuses)
	case "simple":
		var builder strings.Builder
		for _, s := range statuses {
			builder.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\n",
				s.Name, orNA(s.BusInfo), presentString(s.Present), orNA(string(s.Transition))))
		}
		return builder.String()
	}

	var builder strings.Builder
	builder.WriteString("┌─────────────────────┬─────────────────────┬─────────────────────┬─────────────────────┬─────────────────────┬─────────────────────┐\n")
	builder.WriteString("│ Module              │ PCI Address         │ Present             │ Transition          │ Driver              │ Sensors             │\n")
	builder.WriteString("├─────────────────────┼─────────────────────┼─────────────────────┼─────────────────────┼─────────────────────┼─────────────────────┤\n")
	for _, s := range statuses {
		sensorState := "Polled"
		if s.SensorsSuppressed {
			sensorState = "Suppressed"
		}
		builder.WriteString(fmt.Sprintf("│ %-19s │ %-19s │ %-19s │ %-19s │ %-19s │ %-19s │\n",
			truncateString(s.Name, 19),
			truncateString(orNA(s.BusInfo), 19),
			presentString(s.Present),
			truncateString(orNA(string(s.Transition)), 19),
			truncateString(orNA(s.Driver), 19),
			sensorState))
	}
	builder.WriteString("└─────────────────────┴─────────────────────┴─────────────────────┴─────────────────────┴─────────────────────┴─────────────────────┘\n")
	return builder.String()
}

func presentString(present bool) string {
	if present {
		return "Yes"
	}
	return "No"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// truncateString truncates a string to the specified length, adding "..." if needed
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
