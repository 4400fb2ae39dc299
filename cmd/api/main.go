package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/unihub/core/cmd/api/commands"
	_ "github.com/unihub/core/docs"
)

// @title UniHub API
// @version 1.0
// @description University student organizer backend: courses, assessments, planning boards, contacts and groups

// @contact.name UniHub Support
// @contact.url https://github.com/unihub/core

// @license.name MIT
// @license.url https://github.com/unihub/core/blob/main/LICENSE

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "unihub",
		Short: "UniHub API Server",
		Long:  `UniHub is a university student organizer backend: course and schedule tracking, assessments, kanban planning boards, contacts, groups and sharing invitations.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewAccountCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
