// lazyexp_catalog inspects the registered catalog of multiview control-net
// training jobs: it composes the full experiment registry in memory and reports
// on it.
//
//	lazyexp_catalog                     # group summary
//	lazyexp_catalog -list               # experiments in -group
//	lazyexp_catalog -show <name>        # field table of one experiment
//	lazyexp_catalog -show <name> -yaml  # ... or its YAML document
//	lazyexp_catalog -diff <a>,<b>       # unified diff of two experiments
//	lazyexp_catalog -export <dir>       # one YAML file per experiment
package main

import (
	"flag"
	"os"

	"github.com/gomlx/lazyexp/examples/ctrlnet"
	"github.com/gomlx/lazyexp/pkg/experiments"
	"k8s.io/klog/v2"
)

var (
	flagGroup = flag.String("group", ctrlnet.ExperimentGroup, "Registry group to report on. "+
		"Override axes are groups too, so e.g. '-group=net -list' shows the registered network layers.")

	flagList  = flag.Bool("list", false, "Lists the entries registered under -group.")
	flagNames = flag.String("names", "", "Comma-separated entry names; restricts -list and -export to these entries.")

	flagShow = flag.String("show", "", "Name of one entry of -group: prints every field as a (path, type, value) table.")
	flagYAML = flag.Bool("yaml", false, "With -show, print the entry's YAML document instead of the field table.")
	flagSet  = flag.String("set", "", "Semicolon-separated \"path=value\" assignments applied to the entry before -show, "+
		"e.g. \"model.net.num_blocks=1;checkpoint.load_path=;job.group=debug\". "+
		"Values are parsed to the type of the field they replace.")

	flagDiff = flag.String("diff", "", "Two entry names separated by a comma: prints a unified diff of their YAML documents.")

	flagExport = flag.String("export", "", "Directory to write one \"<name>.yaml\" file per entry of -group.")
)

func main() {
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %q. See 'lazyexp_catalog -help'.", flag.Args())
		os.Exit(1)
	}

	reg := experiments.New()
	if err := ctrlnet.Register(reg); err != nil {
		klog.Errorf("Failed to compose the experiment catalog: %+v", err)
		os.Exit(1)
	}

	switch {
	case *flagList:
		list(reg)
	case *flagShow != "":
		show(reg, *flagShow)
	case *flagDiff != "":
		diff(reg, *flagDiff)
	case *flagExport != "":
		export(reg, *flagExport)
	default:
		summary(reg)
	}
}
