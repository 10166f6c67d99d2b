package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stemsi/exstem-engine/internal/model"
)

func TestRenderLeaderboard(t *testing.T) {
	color.NoColor = true

	results := []model.RankedResult{
		{ExamResult: model.ExamResult{StudentID: 4, TotalScore: 90, ScorePercent: 90, IsPassed: true}, Rank: 1, StudentName: "Ani"},
		{ExamResult: model.ExamResult{StudentID: 9, TotalScore: 90, ScorePercent: 90, IsPassed: true}, Rank: 1, StudentName: "Budi"},
		{ExamResult: model.ExamResult{StudentID: 2, TotalScore: 42.5, ScorePercent: 42.5}, Rank: 3, StudentName: "Citra"},
	}

	var buf bytes.Buffer
	renderLeaderboard(&buf, results)
	out := buf.String()

	for _, want := range []string{"RANK", "Ani", "Budi", "Citra", "42.5", "42.50%", "TIDAK LULUS"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Ani") > strings.Index(out, "Citra") {
		t.Errorf("rows out of order:\n%s", out)
	}
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"student", []string{"token", "--user-id", "7", "--class-id", "3"}, false},
		{"grader", []string{"token", "-t", "grader", "-u", "1"}, false},
		{"bad type", []string{"token", "-t", "admin", "-u", "1"}, true},
		{"missing user", []string{"token"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := rootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args)

			err := root.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && strings.Count(strings.TrimSpace(out.String()), ".") != 2 {
				t.Errorf("output is not a JWT: %q", out.String())
			}
		})
	}
}
