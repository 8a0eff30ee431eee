package cmd

import (
	"os"

	"github.com/ComedicChimera/olive"
	"github.com/es1024/python-staged-programming/build"
	"github.com/es1024/python-staged-programming/common"
	"github.com/es1024/python-staged-programming/config"
	"github.com/es1024/python-staged-programming/generate"
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/ppm"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/stencil"
	"github.com/pkg/errors"
)

// Execute runs the main `stencilc` application and exits with a nonzero
// status if any error was reported.
func Execute() {
	os.Exit(run(os.Args))
}

// newCLI builds the command line interface of `stencilc`.
func newCLI() *olive.Command {
	cli := olive.NewCLI("stencilc", "stencilc compiles and runs image stencil pipelines", true)
	cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	cli.AddStringArg("config", "c", "the path to the configuration file", false)

	blurCmd := cli.AddSubcommand("blur", "blur an image with a 3x3 box filter", true)
	blurCmd.AddPrimaryArg("input", "the path to the input image", true)
	blurCmd.AddStringArg("out", "o", "the path of the output PPM image", false).SetDefaultValue("out.ppm")
	addPipelineArgs(blurCmd)
	blurCmd.AddFlag("interpret", "i", "run the pipeline with the interpreter instead of compiling it")
	blurCmd.AddFlag("check", "ch", "compare the result against the reference evaluation")

	irCmd := cli.AddSubcommand("ir", "print the lowered body of the blur pipeline", true)
	addPipelineArgs(irCmd)
	irCmd.AddFlag("llvm", "l", "print the generated LLVM module instead of the IR")

	cli.AddSubcommand("version", "print the stencilc version", false)

	return cli
}

// addPipelineArgs adds the arguments selecting the pipeline to a subcommand.
func addPipelineArgs(c *olive.Command) {
	c.AddSelectorArg("method", "m", "the stencil method (defaults to the configured one)", false, config.Methods)

	passes := c.AddIntArg("passes", "n", "the number of times the blur is applied", false)
	passes.SetValidator(func(n int) error {
		if n < 1 {
			return errors.Errorf("passes must be positive, got %d", n)
		}

		return nil
	})
	passes.SetDefaultValue(1)
}

// run runs the application on the given command line and returns its exit
// status.
func run(args []string) int {
	// usage errors are always displayed
	report.InitReporter(report.LogLevelError)

	result, err := olive.ParseArgs(newCLI(), args)
	if err != nil {
		report.ReportError(errors.WithMessage(err, "usage error"))
		return 1
	}

	conf, err := loadConfig(result)
	if err != nil {
		report.ReportError(err)
		return 1
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "blur":
		execBlurCommand(subResult, conf)
	case "ir":
		execIRCommand(subResult, conf)
	case "version":
		report.ReportInfo("Version", common.Version)
		os.Stdout.WriteString(common.Version + "\n")
	}

	if report.AnyErrors() {
		return 1
	}

	return 0
}

// loadConfig loads the configuration and initializes the reporter.  The log
// level given on the command line overrides the configured one.
func loadConfig(result *olive.ArgParseResult) (*config.Config, error) {
	path := ""
	if v, ok := result.Arguments["config"]; ok {
		path = v.(string)
	}

	conf, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, ok := result.Arguments["loglevel"]; ok {
		conf.Log.Level = v.(string)
	}

	level, _ := report.LogLevelFromName(conf.Log.Level)
	report.InitReporter(level)

	return conf, nil
}

// execBlurCommand executes the `blur` subcommand.
func execBlurCommand(result *olive.ArgParseResult, conf *config.Config) {
	inPath, _ := result.PrimaryArg()
	outPath := result.Arguments["out"].(string)

	strategy, passes, err := pipelineArgs(result, conf)
	if err != nil {
		report.ReportError(err)
		return
	}

	report.BeginPhase("Reading")
	in, err := ppm.Decode(inPath)
	if err != nil {
		report.ReportError(err)
		return
	}
	report.EndPhase(true)
	report.ReportInfo("Input", "%dx%d pixels", in.Width, in.Height)

	p := blurPipeline(passes, conf)

	c := build.NewCompiler(conf)
	defer c.Close()

	var out *ppm.Image
	if result.HasFlag("interpret") {
		out, err = p.Interpret(c, strategy, in)
	} else {
		out, err = p.Run(c, strategy, in)
	}

	if err != nil {
		report.ReportError(err)
		report.ReportFinished()
		return
	}

	if result.HasFlag("check") {
		report.BeginPhase("Checking")
		ref, err := p.Reference(in)
		if err != nil {
			report.ReportError(err)
			return
		}

		mismatches := 0
		for i := range ref.Data {
			if ref.Data[i] != out.Data[i] {
				mismatches++
			}
		}
		report.EndPhase(mismatches == 0)

		if mismatches > 0 {
			report.ReportWarning("%d pixels differ from the reference evaluation", mismatches)
		}
	}

	report.BeginPhase("Writing")
	if err := ppm.Save(out, outPath); err != nil {
		report.ReportError(err)
		return
	}
	report.EndPhase(true)

	report.ReportFinished()
}

// execIRCommand executes the `ir` subcommand.
func execIRCommand(result *olive.ArgParseResult, conf *config.Config) {
	strategy, passes, err := pipelineArgs(result, conf)
	if err != nil {
		report.ReportError(err)
		return
	}

	p := blurPipeline(passes, conf)

	c := build.NewCompiler(conf)
	defer c.Close()

	alloc := stencil.AllocBuiltin
	if result.HasFlag("llvm") {
		alloc = stencil.AllocNative
	}

	u, err := p.Body(c, strategy, alloc)
	if err != nil {
		report.ReportError(err)
		return
	}

	def, err := u.Checked()
	if err != nil {
		report.ReportError(err)
		report.ReportFinished()
		return
	}

	if !result.HasFlag("llvm") {
		os.Stdout.WriteString(ir.PrintTyped(def) + "\n")
		return
	}

	mod, err := generate.Generate(def, u.Symbol, c)
	if err != nil {
		report.ReportError(err)
		report.ReportFinished()
		return
	}

	os.Stdout.WriteString(mod.String())
}

// pipelineArgs extracts the stencil method and the number of blur passes.
func pipelineArgs(result *olive.ArgParseResult, conf *config.Config) (stencil.Strategy, int, error) {
	method := conf.Stencil.Method
	if v, ok := result.Arguments["method"]; ok {
		method = v.(string)
	}

	strategy, err := stencil.ParseStrategy(method)
	if err != nil {
		return 0, 0, err
	}

	return strategy, result.Arguments["passes"].(int), nil
}

// blurPipeline builds a pipeline blurring the first input passes times.
func blurPipeline(passes int, conf *config.Config) *stencil.Pipeline {
	im := stencil.Input(0)
	for i := 0; i < passes; i++ {
		im = stencil.Blur(im)
	}

	p := stencil.NewPipeline(im)
	p.SetTileSize(conf.Stencil.TileSize)
	return p
}
