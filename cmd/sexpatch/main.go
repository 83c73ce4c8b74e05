// Command sexpatch defines and resolves patch templates against
// s-expression source definitions.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"nickandperla.net/sexpatch/internal/patch"
	"nickandperla.net/sexpatch/internal/reader"
	"nickandperla.net/sexpatch/pkg/sexpatch"
)

func main() {
	var (
		templates = flag.String("templates", "", "Template file: a name expression followed by template forms")
		kind      = flag.String("kind", "defun", "Definition kind the templates apply to")
		src       = flag.String("src", "", "Comma-separated s-expression source files to locate definitions in")
		dbPath    = flag.String("db", "", "SQLite template store path (in-memory when empty)")
		mode      = flag.String("mode", "build", "Resolution mode: build or load")
		version   = flag.Int("version", 0, "Resolve a specific stored template version (0 = latest)")
		check     = flag.Bool("check", false, "Validate the template file and exit")
	)

	flag.Parse()

	if *templates == "" {
		fmt.Fprintln(os.Stderr, "No template file given (use -templates)")
		os.Exit(1)
	}

	if *check {
		if err := checkTemplates(*templates); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *templates, err)
			os.Exit(1)
		}
		fmt.Printf("%s: OK\n", *templates)
		return
	}

	resolveMode, ok := sexpatch.ParseMode(*mode)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown mode: %s (use build or load)\n", *mode)
		os.Exit(1)
	}

	opts := []sexpatch.Option{sexpatch.WithMode(resolveMode)}
	if *dbPath != "" {
		opts = append(opts, sexpatch.WithSQLiteStore(*dbPath))
	}
	if *src != "" {
		opts = append(opts, sexpatch.WithSourceFiles(strings.Split(*src, ",")...))
	}

	patcher, err := sexpatch.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer patcher.Close()

	name, err := patcher.DefineFile(*kind, *templates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error defining templates: %v\n", err)
		os.Exit(1)
	}

	var result string
	if *version > 0 {
		result, err = patcher.ResolveVersion(name, *kind, *version)
	} else {
		result, err = patcher.Resolve(name, *kind)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving (%s %s): %v\n", *kind, name, err)
		os.Exit(1)
	}
	fmt.Println(result)
}

// checkTemplates parses a template file and validates every template
// form, reporting the first problem found.
func checkTemplates(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	forms, err := reader.New(f).ReadAll()
	if err != nil {
		return err
	}
	if len(forms) < 2 {
		return fmt.Errorf("expected a name expression followed by templates, got %d forms", len(forms))
	}
	for i, t := range forms[1:] {
		if err := patch.Validate(t); err != nil {
			return fmt.Errorf("template %d: %w", i+1, err)
		}
	}
	return nil
}
