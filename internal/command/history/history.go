package history

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"renderrush/internal/command/root"
)

var logger = log.WithFields(log.Fields{
	"app":     "renderrush",
	"command": "history",
})

func init() {
	root.Cmd.AddCommand(cmd)

	cmd.AddCommand(showCmd)
	cmd.AddCommand(fetchCmd)
	cmd.AddCommand(pruneCmd)

	fetchCmd.Flags().String("dest", ".", "Directory for the fetched output")
}

var cmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs",
	Long:  `RenderRush History: show, fetch or prune the stored report and published output of a past run`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Usage()
	},
}

var showCmd = &cobra.Command{
	Use:   "show [uid]",
	Short: "Print the stored report of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmpt := root.GetComponent(true, false, false, false)

		report, err := cmpt.History.Get(args[0])

		if err != nil {
			logger.WithError(err).Fatalf("no report for run '%s'", args[0])
		}

		data, err := yaml.Marshal(report)

		if err != nil {
			logger.WithError(err).Fatal("unable to render report")
		}

		fmt.Print(string(data))
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [uid]",
	Short: "Download the published output of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dest, _ := cmd.Flags().GetString("dest")

		cmpt := root.GetComponent(true, false, true, false)

		path, err := cmpt.FetchOutput(args[0], dest)

		if err != nil {
			logger.WithError(err).Fatalf("unable to fetch output of run '%s'", args[0])
		}

		logger.Infof("fetched output to '%s'", path)
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune [uid]",
	Short: "Delete the stored report and published artifacts of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmpt := root.GetComponent(true, false, true, false)

		if err := cmpt.PruneRun(args[0]); err != nil {
			logger.WithError(err).Fatalf("unable to prune run '%s'", args[0])
		}

		logger.Infof("pruned run '%s'", args[0])
	},
}
