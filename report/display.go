package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightCyan
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	ErrorStyleBG.Print("Internal Compiler Error")
	ErrorColorFG.Println(" " + message)
	fmt.Print("This error was not supposed to happen: please open an issue.\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	ErrorStyleBG.Print("Fatal Error")
	ErrorColorFG.Println(" " + message)
}

// displayError displays an error returned by the compiler.
func displayError(err error) {
	var ce *CompileError
	if errors.As(err, &ce) {
		kind := ce.Kind.String()
		label := strings.ToUpper(kind[:1]) + kind[1:] + " Error"
		ErrorStyleBG.Print(label)

		if ce.Unit != "" {
			InfoColorFG.Print(" " + ce.Unit)
		}

		ErrorColorFG.Println(" " + ce.Message)

		if ce.Construct != "" {
			fmt.Println("    | " + strings.ReplaceAll(ce.Construct, "\n", "\n    | "))
		}

		if ce.cause != nil {
			fmt.Println(ce.cause.Error())
		}

		fmt.Println()
		return
	}

	ErrorStyleBG.Print("Error")
	ErrorColorFG.Println(" " + err.Error())
}

// displayWarning displays a warning message.
func displayWarning(message string) {
	WarnStyleBG.Print("Warning")
	WarnColorFG.Println(" " + message)
}

// displayInfo displays an informational message with a tag.
func displayInfo(tag, message string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + message)
}

// displayDump displays a titled block of text.
func displayDump(title, content string) {
	pterm.DefaultSection.Println(title)
	fmt.Println(strings.TrimRight(content, "\n"))
	fmt.Println()
}

// -----------------------------------------------------------------------------

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter

// currentPhase is the name of the phase being displayed.
var currentPhase string

// phaseStartTime is the time the current phase began.
var phaseStartTime time.Time

// maxPhaseLength is the length of the longest phase name.
const maxPhaseLength = len("Generating")

// displayBeginPhase displays the beginning of a compilation phase.
func displayBeginPhase(phase string) {
	displayEndPhase(true)

	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", padding(phase))

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))
	spinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}
	spinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner, _ = spinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of a compilation phase.
func displayEndPhase(success bool) {
	if phaseSpinner != nil {
		if success {
			phaseSpinner.Success(
				currentPhase+strings.Repeat(" ", padding(currentPhase)),
				fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
			)
		} else {
			phaseSpinner.Fail(currentPhase + strings.Repeat(" ", padding(currentPhase)))
		}

		phaseSpinner = nil
	}
}

// padding returns the number of spaces used to align a phase name.
func padding(phase string) int {
	if len(phase) > maxPhaseLength {
		return 2
	}

	return maxPhaseLength - len(phase) + 2
}

// displayFinished displays the closing message of a command.
func displayFinished(success bool, warnCount int, elapsed time.Duration) {
	displayEndPhase(success)

	fmt.Print("\n")
	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")
	switch warnCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" warnings")
	case 1:
		WarnColorFG.Print(1)
		fmt.Print(" warning")
	default:
		WarnColorFG.Print(warnCount)
		fmt.Print(" warnings")
	}
	fmt.Printf(", %.3fs)\n", elapsed.Seconds())
}
