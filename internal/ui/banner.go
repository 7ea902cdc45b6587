// Package ui provides the help banner for the hooktrace CLI.
package ui

import (
	"fmt"
	"strings"
)

// tagline is the product tagline.
const tagline = "Intercept and trace Juju charm hooks live"

// GetHelpText returns the root command's long help.
func GetHelpText() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("hooktrace") + " - " + tagline + "\n\n")
	b.WriteString("Hold units in debug-hooks, or catch the next hook a unit is about to run\n")
	b.WriteString("and dispatch it with a Python tracing function installed.\n\n")
	b.WriteString("COMMON USAGE:\n")
	for _, line := range [][2]string{
		{"hooktrace juju apps", "List applications and units"},
		{"hooktrace juju pause <app>", "Hold every unit of <app> until ctrl+c"},
		{"hooktrace juju trace <app>", "Trace the next hook of the single unit of <app>"},
		{"hooktrace juju debug <app>", "Like trace, but ignores ctrl+c while waiting"},
		{"hooktrace script <hook>", "Print the dispatch command for a hook"},
		{"hooktrace doctor", "Check juju and configuration"},
	} {
		b.WriteString(fmt.Sprintf("  %-30s %s\n", line[0], DimStyle.Render(line[1])))
	}
	return b.String()
}
