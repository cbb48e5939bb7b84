package helpers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	// SuccessColor for successful operations
	SuccessColor = color.New(color.FgGreen, color.Bold)

	// ErrorColor for error messages
	ErrorColor = color.New(color.FgRed, color.Bold)

	// WarningColor for warning messages
	WarningColor = color.New(color.FgYellow, color.Bold)

	// InfoColor for informational messages
	InfoColor = color.New(color.FgCyan, color.Bold)

	// TitleColor for titles and headers
	TitleColor = color.New(color.FgMagenta, color.Bold)

	// DimColor for secondary details such as comment authors
	DimColor = color.New(color.FgHiBlack)
)

var (
	outputMu sync.Mutex
	output   io.Writer = os.Stdout
)

// SetOutput redirects all console output, returning the previous writer
func SetOutput(w io.Writer) io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	prev := output
	output = w
	return prev
}

func printf(c *color.Color, format string, args ...interface{}) {
	outputMu.Lock()
	defer outputMu.Unlock()
	c.Fprintf(output, format, args...)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	printf(SuccessColor, "✅ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	printf(ErrorColor, "❌ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	printf(WarningColor, "⚠️  "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	printf(InfoColor, "ℹ️  "+format+"\n", args...)
}

// PrintTitle prints a title
func PrintTitle(format string, args ...interface{}) {
	printf(TitleColor, "🎯 "+format+"\n", args...)
}

// PrintDetail prints a dimmed secondary line
func PrintDetail(format string, args ...interface{}) {
	printf(DimColor, "   "+format+"\n", args...)
}

// PrintProgressETA prints batch progress with an optional ETA in seconds
func PrintProgressETA(current, total, processed, totalComments int, etaSeconds *float64) {
	eta := "estimating..."
	if etaSeconds != nil {
		eta = FormatETA(*etaSeconds)
	}
	printf(InfoColor, "📊 [%d/%d] %d/%d comments processed, %s remaining\n",
		current, total, processed, totalComments, eta)
}

// FormatETA renders a number of seconds as a short duration
func FormatETA(seconds float64) string {
	if seconds < 1 {
		return "<1s"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	outputMu.Lock()
	defer outputMu.Unlock()
	fmt.Fprintln(output, strings.Repeat("─", 80))
}
