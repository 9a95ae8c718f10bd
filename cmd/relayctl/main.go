package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURLFlag string
	timeoutFlag time.Duration
	rootCmd     = &cobra.Command{
		Use:          "relayctl",
		Short:        "CLI client for the grievance service REST API",
		SilenceUsage: true,
	}
)

func client() *apiClient { return newAPIClient(baseURLFlag, timeoutFlag) }

func main() {
	rootCmd.PersistentFlags().StringVarP(&baseURLFlag, "base-url", "a", "http://localhost:4000", "Grievance service base URL")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Show service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().health(cmd.OutOrStdout())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
