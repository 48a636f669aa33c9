package cliapp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/nilfoo/stako/internal/config"
	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/compiler"
	"github.com/nilfoo/stako/lang/diag"
	"github.com/nilfoo/stako/lang/lexer"
	"github.com/nilfoo/stako/lang/machine"
	"github.com/nilfoo/stako/lang/parser"
	"github.com/nilfoo/stako/lang/resolver"
	"github.com/nilfoo/stako/lang/token"
)

// run drives the pipeline for one source file: read, parse, resolve,
// compile, execute — or, if c.Dump names a stage, print that stage's
// output instead of running. Each phase is only entered once the previous
// phase's diag.Bag is error-free, per the pipeline's error propagation rule.
func (c *Cmd) run(ctx context.Context, stdio mainer.Stdio, cfg config.Config, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	fset := token.NewFileSet()

	if c.Dump == "tokens" {
		return dumpTokens(stdio, fset, path, src)
	}

	global, perrs := parser.ParseFile(fset, path, src)
	if perrs.HadError() {
		printDiagnostics(stdio, src, perrs)
		return perrs.Err()
	}
	if c.Dump == "ast" {
		ast.Fprint(stdio.Stdout, global)
		return nil
	}

	r := resolver.New(fset)
	if ok := r.Resolve(global); !ok {
		printDiagnostics(stdio, src, r.Errors())
		return r.Errors().Err()
	}
	if c.Dump == "resolved" {
		ast.Fprint(stdio.Stdout, global)
		return nil
	}

	prog, err := compiler.Compile(global)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	vm := machine.New(prog)
	vm.Name = path
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr
	vm.MaxSteps = cfg.MaxSteps
	vm.StackSize = cfg.StackSize

	if err := vm.Run(ctx); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}

func dumpTokens(stdio mainer.Stdio, fset *token.FileSet, path string, src []byte) error {
	f := fset.AddFile(path, len(src))

	var bag diag.Bag
	var l lexer.Lexer
	l.Init(f, src, func(pos token.Position, msg string) { bag.Add(pos, "%s", msg) })

	for {
		var v token.Value
		k := l.Scan(&v)
		pos := f.Position(v.Pos)
		if v.Raw != "" {
			fmt.Fprintf(stdio.Stdout, "%s: %s %q\n", pos, k, v.Raw)
		} else {
			fmt.Fprintf(stdio.Stdout, "%s: %s\n", pos, k)
		}
		if k == token.EOF {
			break
		}
	}
	if bag.HadError() {
		printDiagnostics(stdio, src, &bag)
		return bag.Err()
	}
	return nil
}

func printDiagnostics(stdio mainer.Stdio, src []byte, bag *diag.Bag) {
	var sb strings.Builder
	for _, e := range bag.Errors() {
		diag.PrintExcerpt(&sb, src, e)
	}
	fmt.Fprint(stdio.Stderr, sb.String())
}
