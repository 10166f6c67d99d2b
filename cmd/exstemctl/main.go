// Command exstemctl is the operator CLI of the exam engine: dev tokens,
// leaderboards, manual finalize and expiry sweeps.
package main

import (
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
