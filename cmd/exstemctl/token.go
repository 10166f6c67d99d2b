package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-engine/internal/service"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a JWT for a student or grader (development only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig(cmd)
			f := cmd.Flags()

			kind, _ := f.GetString("type")
			userID, _ := f.GetInt("user-id")
			classID, _ := f.GetInt("class-id")
			name, _ := f.GetString("name")

			tokenType := service.TokenType(kind)
			if tokenType != service.TokenTypeStudent && tokenType != service.TokenTypeGrader {
				return fmt.Errorf("--type must be %q or %q", service.TokenTypeStudent, service.TokenTypeGrader)
			}
			if userID < 1 {
				return fmt.Errorf("--user-id must be positive")
			}

			tok, err := service.NewAuthService(cfg).IssueToken(tokenType, userID, classID, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("type", "t", string(service.TokenTypeStudent), "Token type (student, grader)")
	f.IntP("user-id", "u", 0, "Student or grader id")
	f.Int("class-id", 0, "Class of the student")
	f.String("name", "", "Display name")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
