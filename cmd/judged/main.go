// Copyright 2026 The JudgeD Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Binary judged is the host shell for the probabilistic knowledge base:
// a batch runner for its three query subcommands and an interactive
// read-eval-print loop.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	log "github.com/golang/glog"

	"github.com/utdb/judged/builtin"
	"github.com/utdb/judged/core"
	"github.com/utdb/judged/kb"
	"github.com/utdb/judged/loader"
	"github.com/utdb/judged/probability"
	"github.com/utdb/judged/term"
)

var (
	interactive = flag.Bool("i", false, "enter interactive mode (after running any one-shot query)")
	debug       = flag.Bool("d", false, "enable debug trace (equivalent to -v=3)")
	format      = flag.String("f", "plain", "output format: color or plain")
	extName     = flag.String("e", "", "built-in extension to load and enable")
	modPath     = flag.String("m", "", "data module file to load before running")
	samples     = flag.Int("n", 2000, "montecarlo: sample count")
	seedFlag    = flag.Int64("seed", 0, "montecarlo: RNG seed (0 means time-based)")
	converge    = flag.Float64("converge", 0, "montecarlo: stop once every answer's 95% Wilson half-width drops below this (0 disables)")
)

const normalPrompt = "judged> "
const continuedPrompt = "     .> "

// builtins is the registry of Go-implemented extensions a host process can
// load by name: there is no dynamic plugin loading, so "-e"/".extension"
// can only ever name one of these.
func builtins() map[string]kb.Extension {
	return map[string]kb.Extension{
		builtin.Name: builtin.New(),
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: judged {deterministic|exact|montecarlo} [flags] [goal]

subcommands:
  deterministic <goal>  list every (substitution, sentence) answer
  exact <goal>           list every answer's simplified sentence text
  montecarlo <goal>      estimate every answer's probability by sampling

flags:`)
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	mode := os.Args[1]
	switch mode {
	case "deterministic", "exact", "montecarlo":
	case "-h", "-help", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "judged: unknown subcommand %q\n", mode)
		usage()
		os.Exit(2)
	}
	flag.CommandLine.Usage = usage
	flag.CommandLine.Parse(os.Args[2:])
	if *debug {
		flag.Set("v", "3")
	}

	c := core.New()
	for _, ext := range builtins() {
		c.RegisterExtension(ext)
	}
	sh := &shell{c: c, out: os.Stdout, color: *format == "color"}

	if *modPath != "" {
		if err := loadFile(c, *modPath, sh); err != nil {
			log.Exitf("judged: loading %s: %v", *modPath, err)
		}
	}
	if *extName != "" {
		if err := c.Ingest(core.Statement{Kind: core.StmtUseExtension, ExtensionName: *extName}); err != nil {
			log.Exitf("judged: enabling extension %q: %v", *extName, err)
		}
	}

	goalText := strings.Join(flag.Args(), " ")
	exitCode := 0
	ranBatch := false
	if goalText != "" {
		ranBatch = true
		exitCode = runBatch(mode, c, goalText, sh)
	}
	if goalText == "" || *interactive {
		runInteractive(c, sh)
		os.Exit(0)
	}
	if ranBatch {
		os.Exit(exitCode)
	}
}

// runBatch evaluates one goal in the given mode and prints the result in
// the #PASS/#FAIL batch convention, returning the process exit code.
func runBatch(mode string, c *core.Core, goalText string, sh *shell) int {
	goal, err := loader.ParseGoal(goalText)
	if err != nil {
		fmt.Fprintf(sh.out, "judged: parsing goal %q: %v\n", goalText, err)
		return 2
	}
	switch mode {
	case "deterministic":
		answers, err := c.Query(goal)
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return 1
		}
		sh.printAnswers(goal, answers)
		return passFail(sh.out, len(answers) > 0)
	case "exact":
		results, err := c.QueryExact(goal)
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return 1
		}
		sh.printResults(goal, results)
		return passFail(sh.out, len(results) > 0)
	case "montecarlo":
		cfg := probability.Config{N: *samples}
		if *seedFlag != 0 {
			seed := *seedFlag
			cfg.Seed = &seed
		}
		if *converge > 0 {
			threshold := *converge
			cfg.ConvergenceThreshold = &threshold
		}
		results, err := c.QueryMonteCarlo(goal, cfg)
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return 1
		}
		sh.printResults(goal, results)
		return passFail(sh.out, len(results) > 0)
	default:
		panic("judged: unreachable subcommand " + mode)
	}
}

func passFail(out io.Writer, pass bool) int {
	if pass {
		fmt.Fprintln(out, "#PASS")
		return 0
	}
	fmt.Fprintln(out, "#FAIL")
	return 1
}

func loadFile(c *core.Core, path string, sh *shell) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return loader.Load(c, string(data), sh)
}

// shell implements loader.Sink, driving the one knowledge base judged
// hosts for the lifetime of the process: query results and shell command
// lines both flow back through it, whether they originated from a loaded
// file or from the interactive loop.
type shell struct {
	c     *core.Core
	out   io.Writer
	color bool
}

// Answer implements loader.Sink, for a "?" query encountered while loading
// program text (file or interactive buffer).
func (sh *shell) Answer(goal term.Literal, answers []kb.Answer, err error) {
	if err != nil {
		fmt.Fprintf(sh.out, "error evaluating %v: %v\n", goal, err)
		return
	}
	sh.printAnswers(goal, answers)
}

func (sh *shell) printAnswers(goal term.Literal, answers []kb.Answer) {
	for _, a := range answers {
		fmt.Fprintf(sh.out, "%s  %s\n", sh.highlight(goal.ApplySubst(a.Subst).String()), a.Sentence)
	}
	fmt.Fprintf(sh.out, "%d answer(s) for %v\n", len(answers), goal)
}

func (sh *shell) printResults(goal term.Literal, results []probability.Result) {
	for _, r := range results {
		line := goal.ApplySubst(r.Subst).String()
		if r.Samples > 0 {
			fmt.Fprintf(sh.out, "%s  p=%.4f (n=%d)\n", sh.highlight(line), r.Probability, r.Samples)
		} else {
			fmt.Fprintf(sh.out, "%s  %s\n", sh.highlight(line), r.Text)
		}
	}
	fmt.Fprintf(sh.out, "%d answer(s) for %v\n", len(results), goal)
}

func (sh *shell) highlight(s string) string {
	if !sh.color {
		return s
	}
	return "\033[1;32m" + s + "\033[0m"
}

const helpText = `
<fact/rule>.              adds a clause to the knowledge base
<goal>?                   queries all matching answers
@P(p=v)=n.                declares a label probability
@uniform p.                declares a uniform distribution over p's values
{ stmt... | guard }       expands a generator block
.help                     display this help text
.assert <clause>.         same as typing the clause directly
.retract <clause>.        removes the first matching clause
.load <path>              loads and evaluates a program file
.extension <name>         enables a registered extension (e.g. "builtin")
.show [predicate|all]     lists known predicates, or one predicate's clauses
.exact <goal>             evaluates goal with the exact probability back-end
.montecarlo <goal> [n]    evaluates goal by sampling n worlds (default -n)
.quit, .exit              leave the shell
`

// ShellCommand implements loader.Sink: every line beginning with '.' that
// loader itself does not parse.
func (sh *shell) ShellCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(line, cmd))
	switch cmd {
	case ".help":
		fmt.Fprint(sh.out, helpText)
	case ".quit", ".exit":
		os.Exit(0)
	case ".load":
		if err := loadFile(sh.c, arg, sh); err != nil {
			fmt.Fprintf(sh.out, "load failed: %v\n", err)
		}
	case ".show":
		sh.show(arg)
	case ".assert":
		sh.assertOrRetract(arg, core.StmtAssert)
	case ".retract":
		sh.assertOrRetract(arg, core.StmtRetract)
	case ".extension":
		ext, ok := builtins()[arg]
		if !ok {
			fmt.Fprintf(sh.out, "unknown extension %q\n", arg)
			return
		}
		sh.c.RegisterExtension(ext)
		if err := sh.c.Ingest(core.Statement{Kind: core.StmtUseExtension, ExtensionName: arg}); err != nil {
			fmt.Fprintf(sh.out, "enabling extension %q failed: %v\n", arg, err)
		}
	case ".exact":
		goal, err := loader.ParseGoal(arg)
		if err != nil {
			fmt.Fprintf(sh.out, "parse error: %v\n", err)
			return
		}
		results, err := sh.c.QueryExact(goal)
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return
		}
		sh.printResults(goal, results)
	case ".montecarlo", ".mc":
		sh.montecarlo(arg)
	default:
		fmt.Fprintf(sh.out, "unknown command %q (try .help)\n", cmd)
	}
}

func (sh *shell) assertOrRetract(arg string, kind core.StatementKind) {
	clause, err := loader.ParseClause(arg)
	if err != nil {
		fmt.Fprintf(sh.out, "parse error: %v\n", err)
		return
	}
	if err := sh.c.Ingest(core.Statement{Kind: kind, Clause: clause}); err != nil {
		fmt.Fprintf(sh.out, "failed: %v\n", err)
	}
}

func (sh *shell) montecarlo(arg string) {
	n := *samples
	fields := strings.Fields(arg)
	goalText := arg
	if len(fields) > 1 {
		if parsed, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			n = parsed
			goalText = strings.Join(fields[:len(fields)-1], " ")
		}
	}
	goal, err := loader.ParseGoal(goalText)
	if err != nil {
		fmt.Fprintf(sh.out, "parse error: %v\n", err)
		return
	}
	results, err := sh.c.QueryMonteCarlo(goal, probability.Config{N: n})
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	sh.printResults(goal, results)
}

func (sh *shell) show(arg string) {
	preds := sh.c.KB.Predicates()
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Symbol != preds[j].Symbol {
			return preds[i].Symbol < preds[j].Symbol
		}
		return preds[i].Arity < preds[j].Arity
	})
	if arg == "" || arg == "all" {
		for _, sym := range preds {
			clauses, _ := sh.c.KB.Lookup(sym)
			fmt.Fprintf(sh.out, "%s/%d\t%d clause(s)\n", sym.Symbol, sym.Arity, len(clauses))
		}
		return
	}
	var matches []term.PredicateSym
	for _, sym := range preds {
		if sym.Symbol == arg {
			clauses, _ := sh.c.KB.Lookup(sym)
			for _, cl := range clauses {
				fmt.Fprintf(sh.out, "%v\n", cl)
			}
			return
		}
		if strings.HasPrefix(sym.Symbol, arg) {
			matches = append(matches, sym)
		}
	}
	if len(matches) == 0 {
		fmt.Fprintf(sh.out, "predicate %q not found\n", arg)
		return
	}
	fmt.Fprintf(sh.out, "predicate %q not found, did you mean %v?\n", arg, matches)
}

// runInteractive reads statements from stdin, accumulating lines until one
// ends with the grammar's statement terminator ('.', '?' or '}'), mirroring
// the way a continuation prompt works for any line-oriented REPL over a
// multi-line grammar. A line beginning with '.' is always a complete shell
// command on its own and is dispatched without accumulation.
func runInteractive(c *core.Core, sh *shell) {
	rl, err := readline.New(normalPrompt)
	if err != nil {
		log.Exitf("judged: starting interactive shell: %v", err)
	}
	defer rl.Close()
	fmt.Fprint(sh.out, helpText)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 && isShellCommandLine(trimmed) {
			if err := loader.Load(c, trimmed, sh); err != nil {
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
			continue
		}
		if trimmed == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		t := strings.TrimSpace(buf.String())
		if strings.HasSuffix(t, ".") || strings.HasSuffix(t, "?") || strings.HasSuffix(t, "}") {
			if err := loader.Load(c, buf.String(), sh); err != nil {
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
			buf.Reset()
			rl.SetPrompt(normalPrompt)
			continue
		}
		rl.SetPrompt(continuedPrompt)
	}
}

func isShellCommandLine(line string) bool {
	return len(line) > 1 && line[0] == '.' && !(line[1] >= '0' && line[1] <= '9')
}
