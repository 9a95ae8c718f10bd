package main

import (
	"github.com/spf13/cobra"
)

func init() {
	grievancesCmd := &cobra.Command{Use: "grievances", Short: "Grievance operations"}
	grievancesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List grievances, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().listGrievances(cmd.OutOrStdout())
		},
	})
	grievancesCmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Show one grievance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().getGrievance(args[0], cmd.OutOrStdout())
		},
	})
	grievancesCmd.AddCommand(&cobra.Command{
		Use:   "reply ID TEXT",
		Short: "Attach a reply to a grievance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().replyGrievance(args[0], args[1], cmd.OutOrStdout())
		},
	})
	rootCmd.AddCommand(grievancesCmd)

	diaryCmd := &cobra.Command{Use: "diary", Short: "Diary operations"}
	var limit int
	listDiary := &cobra.Command{
		Use:   "list",
		Short: "List diary notes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().listDiary(limit, cmd.OutOrStdout())
		},
	}
	listDiary.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum notes to return (server default when unset)")
	diaryCmd.AddCommand(listDiary)
	diaryCmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a diary note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().deleteDiary(args[0], cmd.OutOrStdout())
		},
	})
	rootCmd.AddCommand(diaryCmd)

	moodCmd := &cobra.Command{Use: "mood", Short: "Mood operations"}
	var username string
	latest := &cobra.Command{
		Use:   "latest",
		Short: "Show the latest mood",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().latestMood(username, cmd.OutOrStdout())
		},
	}
	latest.Flags().StringVarP(&username, "username", "u", "", "Restrict to one user")
	moodCmd.AddCommand(latest)
	rootCmd.AddCommand(moodCmd)
}
