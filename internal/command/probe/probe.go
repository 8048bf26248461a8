package probe

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"renderrush/internal/command/root"
	"renderrush/internal/media"
)

func init() {
	root.Cmd.AddCommand(cmd)
}

var cmd = &cobra.Command{
	Use:   "probe [video]",
	Short: "Inspect a video file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := media.Probe(context.Background(), args[0])

		if err != nil {
			log.WithError(err).Fatalf("unable to analyze '%s'", args[0])
		}

		log.WithFields(log.Fields{
			"fps":      info.FPS,
			"frames":   info.FrameCount,
			"width":    info.Width,
			"height":   info.Height,
			"duration": info.Duration,
			"size":     info.Size,
		}).Infof("analyzed '%s'", info.Path)
	},
}
