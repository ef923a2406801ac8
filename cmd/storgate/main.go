package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "storgate",
	Short:   "Object-storage access gateway issuing policy-checked signed URLs",
	Long: `Storgate sits in front of S3-compatible storage backends. It authorizes
each request against an external policy engine and answers with a
time-limited presigned URL instead of proxying object bytes.`,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable (default: ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
