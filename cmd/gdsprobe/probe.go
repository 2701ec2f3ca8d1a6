package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/fbnative/config"
	"github.com/wippyai/fbnative/gds"
	"github.com/wippyai/fbnative/loader"
	"github.com/wippyai/fbnative/registry"
)

type probeTarget struct {
	path  string
	dpb   []byte
	limit int
}

type queryResult struct {
	columns  []string
	rows     [][]string
	warnings []string
}

type symbolInfo struct {
	name     string
	addr     uintptr
	required bool
}

// listSymbols opens each candidate in turn and prints which entry points
// it exports. It stops at the first library that opens.
func listSymbols(ctx context.Context, cfg *config.Config) error {
	var (
		l     loader.Loader = loader.Native()
		names               = cfg.Library.Candidates
	)
	if cfg.Library.Wasm != "" {
		dir, file := filepath.Split(cfg.Library.Wasm)
		if dir == "" {
			dir = "."
		}
		wl := loader.NewWasm(ctx, os.DirFS(dir))
		defer wl.Close()
		l, names = wl, []string{file}
	}

	color := term.IsTerminal(int(os.Stdout.Fd()))
	var errs []string
	for _, name := range names {
		lib, err := l.Open(name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		printSymbols(os.Stdout, name, resolveSymbols(lib), color)
		return lib.Close()
	}
	return fmt.Errorf("no client library could be opened:\n  %s", strings.Join(errs, "\n  "))
}

func resolveSymbols(lib loader.Library) []symbolInfo {
	required := map[string]bool{}
	for _, name := range registry.RequiredSymbols() {
		required[name] = true
	}
	var out []symbolInfo
	for _, name := range registry.SymbolNames() {
		addr, err := lib.Symbol(name)
		if err != nil {
			addr = 0
		}
		out = append(out, symbolInfo{name: name, addr: addr, required: required[name]})
	}
	return out
}

func leaseSymbols(eps *registry.EntryPoints) []symbolInfo {
	var out []symbolInfo
	eps.Each(func(name string, addr uintptr, required bool) {
		out = append(out, symbolInfo{name: name, addr: addr, required: required})
	})
	return out
}

func renderer(color bool) func(lipgloss.Style, string) string {
	if !color {
		return func(_ lipgloss.Style, s string) string { return s }
	}
	return func(st lipgloss.Style, s string) string { return st.Render(s) }
}

func printSymbols(w io.Writer, lib string, syms []symbolInfo, color bool) {
	render := renderer(color)
	fmt.Fprintf(w, "Library: %s\n\n", render(titleStyle, lib))
	missing := 0
	for _, s := range syms {
		fmt.Fprintln(w, "  "+formatSymbol(s, render))
		if s.addr == 0 && s.required {
			missing++
		}
	}
	fmt.Fprintln(w)
	if missing > 0 {
		fmt.Fprintln(w, render(errorStyle, fmt.Sprintf("%d required entry points missing", missing)))
	} else {
		fmt.Fprintln(w, render(resultStyle, "all required entry points resolved"))
	}
}

func formatSymbol(s symbolInfo, render func(lipgloss.Style, string) string) string {
	kind := "optional"
	if s.required {
		kind = "required"
	}
	if s.addr == 0 {
		st := helpStyle
		if s.required {
			st = errorStyle
		}
		return fmt.Sprintf("%-30s %s %s", render(funcStyle, s.name), render(typeStyle, kind), render(st, "missing"))
	}
	return fmt.Sprintf("%-30s %s %#x", render(funcStyle, s.name), render(typeStyle, kind), s.addr)
}

// runQuery attaches, runs sql in a read-only transaction and detaches.
func runQuery(s *gds.Session, t probeTarget, sql string) (*queryResult, error) {
	var db gds.DatabaseHandle
	if err := s.AttachDatabase(&db, t.path, t.dpb); err != nil {
		return nil, fmt.Errorf("attach %s: %w", t.path, err)
	}
	defer s.DetachDatabase(&db)

	var tr gds.TransactionHandle
	if err := s.StartTransaction(&tr, &db, gds.ReadOnlyTPB()); err != nil {
		return nil, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		if tr.Valid() {
			s.RollbackTransaction(&tr)
		}
	}()

	var stmt gds.StatementHandle
	if err := s.AllocateStatement(&db, &stmt); err != nil {
		return nil, fmt.Errorf("allocate statement: %w", err)
	}
	defer func() {
		if stmt.Valid() {
			s.FreeStatement(&stmt, gds.DSQLDrop)
		}
	}()

	if err := s.Prepare(&tr, &stmt, sql); err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	out := stmt.Output()
	res := &queryResult{}
	for _, v := range out.Vars {
		res.columns = append(res.columns, columnLabel(v))
	}

	if err := s.Execute2(&tr, &stmt, nil, nil); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	for len(out.Vars) > 0 && (t.limit <= 0 || len(res.rows) < t.limit) {
		ok, err := s.Fetch(&stmt, out)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if !ok {
			break
		}
		row := make([]string, len(out.Vars))
		for i, v := range out.Vars {
			row[i] = formatValue(v)
		}
		res.rows = append(res.rows, row)
	}

	if err := s.CommitTransaction(&tr); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	for _, w := range append(append(db.Warnings(), stmt.Warnings()...), tr.Warnings()...) {
		res.warnings = append(res.warnings, w.Error())
	}
	return res, nil
}

func printResult(w io.Writer, res *queryResult, color bool) {
	render := renderer(color)
	widths := make([]int, len(res.columns))
	for i, c := range res.columns {
		widths[i] = len(c)
	}
	for _, row := range res.rows {
		for i, v := range row {
			widths[i] = max(widths[i], len(v))
		}
	}
	cells := func(vals []string) string {
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%-*s", widths[i], v)
		}
		return strings.Join(parts, "  ")
	}

	fmt.Fprintln(w, render(titleStyle, cells(res.columns)))
	for _, row := range res.rows {
		fmt.Fprintln(w, cells(row))
	}
	fmt.Fprintln(w, render(helpStyle, fmt.Sprintf("(%d rows)", len(res.rows))))
	for _, warn := range res.warnings {
		fmt.Fprintln(w, render(errorStyle, warn))
	}
}
