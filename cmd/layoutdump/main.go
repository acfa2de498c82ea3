package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/native-layout/abi"
	"github.com/wippyai/native-layout/layout"
	"github.com/wippyai/native-layout/memory"
	"github.com/wippyai/native-layout/wgpu"
)

func main() {
	var (
		builtin     = flag.String("builtin", "", "Built-in struct family to load (wgpu)")
		witFile     = flag.String("wit", "", "Path to a WIT resolve JSON file; its records become structs")
		platName    = flag.String("platform", "host", "Target platform (host, lp64, llp64, ilp32, wasm32)")
		structName  = flag.String("struct", "", "Show only this struct")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		plain       = flag.Bool("plain", false, "Plain text output")
		verbose     = flag.Bool("v", false, "Log each registered struct")
	)
	flag.Parse()

	if *builtin == "" && *witFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: layoutdump -builtin wgpu [-platform wasm32] [-struct name]")
		fmt.Fprintln(os.Stderr, "       layoutdump -wit <resolve.json> [-platform lp64]")
		fmt.Fprintln(os.Stderr, "       layoutdump -builtin wgpu -i  (interactive mode)")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			log = l
			memory.SetLogger(l)
		}
	}
	defer func() { _ = log.Sync() }()

	p, ok := abi.PlatformByName(*platName)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown platform %q\n", *platName)
		os.Exit(1)
	}

	reg, err := load(p, *builtin, *witFile, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(reg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := dump(reg, *structName, *plain); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(p abi.Platform, builtin, witFile string, log *zap.Logger) (*layout.Registry, error) {
	reg := layout.NewRegistry(p)

	switch builtin {
	case "":
	case "wgpu":
		if _, err := wgpu.Register(reg); err != nil {
			return nil, fmt.Errorf("register wgpu: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown builtin %q", builtin)
	}

	if witFile != "" {
		f, err := os.Open(witFile)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		defer f.Close()
		if _, err := layout.DecodeWITJSON(reg, f); err != nil {
			return nil, fmt.Errorf("import %s: %w", witFile, err)
		}
	}

	for _, name := range reg.Names() {
		s, _ := reg.Lookup(name)
		log.Debug("registered struct",
			zap.String("name", name),
			zap.String("platform", p.Name),
			zap.Uint64("size", s.Size),
			zap.Uint64("align", s.Align),
			zap.Int("fields", len(s.Fields)))
	}
	return reg, nil
}

func dump(reg *layout.Registry, only string, plain bool) error {
	names := reg.Names()
	if only != "" {
		if _, ok := reg.Lookup(only); !ok {
			return fmt.Errorf("struct %q not registered", only)
		}
		names = []string{only}
	}

	fd := int(os.Stdout.Fd())
	styled := !plain && term.IsTerminal(fd)
	width := 0
	if styled {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}

	for i, name := range names {
		s, _ := reg.Lookup(name)
		if i > 0 {
			fmt.Println()
		}
		if styled {
			fmt.Println(renderStyled(s, width))
		} else {
			renderPlain(os.Stdout, s)
		}
	}
	return nil
}
