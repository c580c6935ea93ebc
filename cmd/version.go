package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/olilarkin/windowjs/lib/consts"
)

func getVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show application version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("windowjs v%s (%s, %s/%s)\n",
				consts.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
