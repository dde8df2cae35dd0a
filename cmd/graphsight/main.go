package main

import (
	"os"

	"github.com/spf13/cobra"

	classifycmder "github.com/meterlab/graphsight/cmd/graphsight/classify"
	historycmder "github.com/meterlab/graphsight/cmd/graphsight/history"
	servecmder "github.com/meterlab/graphsight/cmd/graphsight/serve"
)

const rootLongDesc string = `graphsight puts a thin Go toolbelt around a local vision-capable
model server (LM Studio style, OpenAI-compatible API).

  serve     run the compatibility proxy that rewrites legacy image payloads
  classify  label every graph image in a directory Normal or Abnormal
  history   inspect past classification runs

Configuration comes from a TOML file, a .env file, and the environment;
see each subcommand's --help for the knobs it honors.`

func main() {
	root := &cobra.Command{
		Use:           "graphsight",
		Short:         "Vision proxy and batch graph classifier",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(servecmder.NewServeCmd())
	root.AddCommand(classifycmder.NewClassifyCmd())
	root.AddCommand(historycmder.NewHistoryCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
