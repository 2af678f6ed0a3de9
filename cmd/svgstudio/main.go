// Command svgstudio optimizes SVG files from the command line.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kpango/glg"
	"golang.org/x/term"

	"svgstudio/codegen"
	"svgstudio/format"
	"svgstudio/optimizer"
	"svgstudio/svgdoc"
)

const usage = `usage: svgstudio optimize [flags] file...

Optimizes each file and prints the size reduction. Use - to read from stdin.

flags:
`

// pipeName stands for stdin or stdout.
const pipeName = "-"

const (
	defaultColor = "\x1b[0m"
	statusColor  = "\x1b[36m"
	successColor = "\x1b[32m"
	errorColor   = "\x1b[31m"
)

var errUsage = errors.New("usage")

type options struct {
	precision int
	multipass bool
	gzip      bool
	code      string
	out       string
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	color  bool
}

func main() {
	c := &cli{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		color:  term.IsTerminal(int(os.Stderr.Fd())),
	}
	if err := c.run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		glg.Fatalf("svgstudio: %v", err)
	}
}

func (c *cli) run(args []string) error {
	if len(args) == 0 || args[0] != "optimize" {
		fmt.Fprint(c.stderr, usage)
		return errUsage
	}

	var opts options
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprint(c.stderr, usage)
		fs.PrintDefaults()
	}
	defaults := optimizer.DefaultSettings()
	fs.IntVar(&opts.precision, "precision", defaults.FloatPrecision, "decimal places kept in numbers")
	fs.BoolVar(&opts.multipass, "multipass", defaults.Multipass, "repeat the pipeline until the output stops shrinking")
	fs.BoolVar(&opts.gzip, "gzip", false, "also report gzipped sizes")
	fs.StringVar(&opts.code, "code", "", "emit a component instead of SVG (react-jsx, react-tsx, vue, svelte, react-native, flutter)")
	fs.StringVar(&opts.out, "o", "", "output file or directory; - for stdout")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	files := fs.Args()
	if len(files) == 0 {
		fs.Usage()
		return errUsage
	}
	if opts.code != "" {
		if _, err := codegen.ParseTarget(opts.code); err != nil {
			return err
		}
	}
	if len(files) > 1 && opts.out != "" && opts.out != pipeName && !isDir(opts.out) {
		return fmt.Errorf("-o must be a directory when optimizing %d files", len(files))
	}

	settings := defaults
	settings.FloatPrecision = opts.precision
	settings.Multipass = opts.multipass
	settings.CompareGzipped = opts.gzip
	cfg := optimizer.BuildConfig(optimizer.DefaultPlugins(), settings)

	var failed int
	for _, name := range files {
		if err := c.optimize(name, cfg, opts); err != nil {
			failed++
			fmt.Fprintf(c.stderr, "%s %s\n", c.decorate("✗ "+name, errorColor), err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func (c *cli) optimize(name string, cfg optimizer.Config, opts options) error {
	original, err := c.read(name)
	if err != nil {
		return err
	}
	out, err := optimizer.Optimize(original, cfg)
	if err != nil {
		return err
	}

	displayName := name
	if name == pipeName {
		displayName = "stdin.svg"
	}
	result, fileName := out, svgdoc.OptimizedFileName(filepath.Base(displayName))
	if opts.code != "" {
		target, _ := codegen.ParseTarget(opts.code)
		data, err := svgdoc.Parse(out, displayName, false)
		if err != nil {
			return err
		}
		code, err := codegen.Generate(target, data, out)
		if err != nil {
			return err
		}
		if pretty, err := format.Format(code, target.Language()); err == nil {
			code = pretty
		}
		result, fileName = code, target.FileName(data.ComponentName)
	}

	dest := c.destination(name, fileName, opts.out)
	if err := c.write(dest, result); err != nil {
		return err
	}

	stats := optimizer.NewStats(original, out, opts.gzip)
	line := fmt.Sprintf("%s → %s (%s)",
		stats.OriginalHuman, stats.OptimizedHuman,
		c.decorate(fmt.Sprintf("%.1f%% saved", stats.Rate), successColor))
	if opts.gzip {
		line += fmt.Sprintf(", gzip %s → %s",
			optimizer.FormatBytes(stats.OriginalGzip), optimizer.FormatBytes(stats.OptimizedGzip))
	}
	target := dest
	if dest == pipeName {
		target = "stdout"
	}
	fmt.Fprintf(c.stderr, "%s %s  %s\n", c.decorate("✓ "+displayName, statusColor), line, target)
	return nil
}

func (c *cli) read(name string) (string, error) {
	if name == pipeName {
		text, err := svgdoc.Decode(c.stdin, "")
		if err != nil {
			return "", err
		}
		return svgdoc.FromText(text)
	}
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	text, err := svgdoc.Decode(f, "")
	if err != nil {
		return "", err
	}
	return svgdoc.FromText(text)
}

// destination resolves where the result for input goes. Without -o, stdin
// goes to stdout and files are written next to their input.
func (c *cli) destination(input, fileName, out string) string {
	switch {
	case out == pipeName:
		return pipeName
	case out == "" && input == pipeName:
		return pipeName
	case out == "":
		return filepath.Join(filepath.Dir(input), fileName)
	case isDir(out):
		return filepath.Join(out, fileName)
	}
	return out
}

func (c *cli) write(dest, content string) error {
	if dest == pipeName {
		_, err := io.WriteString(c.stdout, content)
		return err
	}
	return os.WriteFile(dest, []byte(content), 0o644)
}

func (c *cli) decorate(s, color string) string {
	if !c.color {
		return s
	}
	return color + s + defaultColor
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
