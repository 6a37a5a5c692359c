// Package cli implements the ember command line: it loads a source
// manifest, parses one query, evaluates it, and prints the result.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/ember/internal/parser"
	"github.com/funvibe/ember/internal/pipeline"
	"github.com/funvibe/ember/pkg/backend/memtable"
	"github.com/funvibe/ember/pkg/backend/sqlitedb"
)

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Run executes the command line and returns the process exit code. args
// excludes the program name.
func Run(args []string, out, errOut io.Writer) int {
	memtable.Register()
	sqlitedb.Register()

	var manifestPath string
	var query string
	noColor := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-m", "--manifest":
			if i+1 >= len(args) {
				fmt.Fprintf(errOut, "Error: %s needs a path\n", args[i])
				return 1
			}
			manifestPath = args[i+1]
			i++
		case "--no-color":
			noColor = true
		case "-h", "--help", "help":
			printUsage(out)
			return 0
		default:
			if strings.HasPrefix(args[i], "-") {
				fmt.Fprintf(errOut, "Error: unknown flag %s\n", args[i])
				return 1
			}
			if query != "" {
				fmt.Fprintf(errOut, "Error: more than one query given\n")
				return 1
			}
			query = args[i]
		}
	}

	if query == "" {
		printUsage(errOut)
		return 1
	}

	if manifestPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(errOut, "Error: %s\n", err)
			return 1
		}
		manifestPath, err = FindManifest(cwd)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %s\n", err)
			return 1
		}
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %s\n", err)
		return 1
	}

	ctx := pipeline.NewContext(query)
	ctx.File = "query"

	result := pipeline.New(
		&BindProcessor{Manifest: manifest, Dir: filepath.Dir(manifestPath)},
		&parser.ParserProcessor{},
		&ComputeProcessor{},
	).Run(ctx)

	if len(result.Errors) > 0 {
		color := !noColor && isTerminal(errOut)
		for _, d := range result.Errors {
			if color {
				fmt.Fprintf(errOut, "%s- %s%s\n", colorRed, d.Error(), colorReset)
			} else {
				fmt.Fprintf(errOut, "- %s\n", d.Error())
			}
		}
		return 1
	}

	printResult(out, result.Result)
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ember [flags] <query>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -m, --manifest <path>   source manifest (default: ember.yaml in cwd)")
	fmt.Fprintln(w, "      --no-color          disable colored diagnostics")
	fmt.Fprintln(w, "  -h, --help              show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, `  ember 't[t.balance < 0].name'`)
	fmt.Fprintln(w, `  ember -m data/ember.yaml 'sum(s.amount) + 1'`)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printResult(w io.Writer, result any) {
	switch v := result.(type) {
	case [][]any:
		for _, row := range v {
			printRow(w, row)
		}
	case *memtable.Table:
		for _, row := range v.Rows {
			printRow(w, row)
		}
	case []any:
		for _, cell := range v {
			fmt.Fprintln(w, formatValue(cell))
		}
	default:
		fmt.Fprintln(w, formatValue(v))
	}
}

func printRow(w io.Writer, row []any) {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = formatValue(cell)
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", x), "0"), ".")
	default:
		return fmt.Sprintf("%v", x)
	}
}
