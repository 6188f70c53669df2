package main

import (
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the whole site as static files",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := loadConfig()
		if err != nil {
			return err
		}
		logger := log.New("build")
		logger.SetLevel(log.INFO)
		logger.SetHeader("${time_rfc3339} ${level} ${prefix}")

		app := spacetraveling.New(siteConfig(v),
			spacetraveling.WithStaticDir(v.GetString("staticDir")),
			spacetraveling.WithLogger(logger),
		)
		report, err := app.Build(cmd.Context())
		if err != nil {
			return err
		}
		logger.Infof("wrote %s (%d posts, %d failed)", v.GetString("build.outputDir"), report.Posts, report.Failed)
		return nil
	},
}
