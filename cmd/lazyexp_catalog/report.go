package main

import (
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/lazyexp/pkg/experiments"
	"github.com/gomlx/lazyexp/pkg/lazyconfig"
	"github.com/gomlx/lazyexp/pkg/support/fsutil"
	"github.com/gomlx/lazyexp/pkg/support/sets"
	"github.com/gomlx/lazyexp/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// summary prints one row per registry group with its entry count.
func summary(reg *experiments.Registry) {
	fmt.Println(titleStyle.Render("Experiment Catalog"))
	table := newPlainTable()
	table.Headers("Group", "Entries")
	for _, group := range reg.Groups() {
		table.Row(group, humanize.Comma(int64(len(reg.Names(group)))))
	}
	fmt.Println(table.Render())
	fmt.Printf("%s entries in total.\n", humanize.Comma(int64(reg.Len())))
}

// list prints the entries of -group, with their field counts.
func list(reg *experiments.Registry) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Group %q", *flagGroup)))
	table := newPlainTable()
	table.Headers("Name", "Fields")
	for _, name := range filteredNames(reg) {
		tree, _ := reg.Lookup(*flagGroup, name)
		table.Row(name, humanize.Comma(int64(len(flattenRows(tree)))))
	}
	fmt.Println(table.Render())
}

// show prints one entry, either as a flattened field table or as YAML, after
// applying the -set assignments, if any.
func show(reg *experiments.Registry, name string) {
	tree := lookupEntry(reg, name)
	if *flagSet != "" {
		// Assignments patch a private copy; the registry keeps the composed tree.
		tree = tree.Clone()
		if _, err := lazyconfig.ApplyAssignments(tree, *flagSet); err != nil {
			klog.Errorf("Invalid -set %q: %+v", *flagSet, err)
			os.Exit(1)
		}
	}
	if *flagYAML {
		fmt.Print(string(must.M1(lazyconfig.ToYAML(tree))))
		return
	}
	fmt.Println(titleStyle.Render(name))
	table := newPlainTable()
	table.Headers("Path", "Type", "Value")
	for _, row := range flattenRows(tree) {
		table.Row(row...)
	}
	fmt.Println(table.Render())
}

// diff prints the unified diff of two entries' YAML documents.
func diff(reg *experiments.Registry, names string) {
	nameA, nameB, found := strings.Cut(names, ",")
	if !found || nameA == "" || nameB == "" {
		klog.Errorf("-diff takes two entry names separated by a comma, got %q.", names)
		os.Exit(1)
	}
	yamlA := must.M1(lazyconfig.ToYAML(lookupEntry(reg, nameA)))
	yamlB := must.M1(lazyconfig.ToYAML(lookupEntry(reg, nameB)))
	text := must.M1(difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(yamlA)),
		B:        difflib.SplitLines(string(yamlB)),
		FromFile: nameA,
		ToFile:   nameB,
		Context:  3,
	}))
	if text == "" {
		fmt.Printf("%s and %s are identical.\n", nameA, nameB)
		return
	}
	fmt.Print(text)
}

// export writes one "<name>.yaml" file per entry of -group into dir.
func export(reg *experiments.Registry, dir string) {
	dir = must.M1(fsutil.ReplaceTildeInDir(dir))
	must.M(os.MkdirAll(dir, 0755))
	names := filteredNames(reg)
	bar := progressbar.Default(int64(len(names)), "exporting")
	for _, name := range names {
		tree, _ := reg.Lookup(*flagGroup, name)
		data := must.M1(lazyconfig.ToYAML(tree))
		must.M(os.WriteFile(path.Join(dir, name+".yaml"), data, 0644))
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Printf("Wrote %s files to %s.\n", humanize.Comma(int64(len(names))), dir)
}

// lookupEntry fetches (group, name) or exits with an error.
func lookupEntry(reg *experiments.Registry, name string) *lazyconfig.Tree {
	tree, found := reg.Lookup(*flagGroup, name)
	if !found {
		klog.Errorf("No entry %q under group %q. Try 'lazyexp_catalog -list'.", name, *flagGroup)
		os.Exit(1)
	}
	return tree
}

// filteredNames returns the entry names of -group, restricted to -names if set.
func filteredNames(reg *experiments.Registry) []string {
	names := reg.Names(*flagGroup)
	if names == nil {
		klog.Errorf("No group %q in the catalog. Run 'lazyexp_catalog' for the group summary.", *flagGroup)
		os.Exit(1)
	}
	if *flagNames != "" {
		keep := sets.MakeWith(xslices.Map(strings.Split(*flagNames, ","), strings.TrimSpace)...)
		names = slices.DeleteFunc(names, func(name string) bool { return !keep.Has(name) })
	}
	return names
}

// flattenRows renders a tree as (path, type, value) rows, in field order.
// Deferred calls contribute their own row -- the value is the target -- followed
// by their arguments.
func flattenRows(tree *lazyconfig.Tree) [][]string {
	var rows [][]string
	var walk func(prefix string, v lazyconfig.Value)
	walk = func(prefix string, v lazyconfig.Value) {
		switch v := v.(type) {
		case *lazyconfig.Tree:
			for key, value := range v.All() {
				walk(joinPath(prefix, key), value)
			}
		case *lazyconfig.Call:
			rows = append(rows, []string{prefix, v.Kind().String(), string(v.Target())})
			for key, value := range v.Args().All() {
				walk(joinPath(prefix, key), value)
			}
		default:
			rows = append(rows, []string{prefix, v.Kind().String(), v.String()})
		}
	}
	walk("", tree)
	return rows
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + lazyconfig.PathSeparator + key
}
