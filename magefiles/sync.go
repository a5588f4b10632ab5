package main

import (
	"os"
	"os/exec"
	"path/filepath"
)

// Sync builds the binary and runs a full sync against the configured source.
func Sync() error {
	return runBinary("sync")
}

// Fetch builds the binary and materializes the article snapshot without syncing.
func Fetch() error {
	return runBinary("fetch")
}

// Runs builds the binary and prints the recent run ledger.
func Runs() error {
	return runBinary("runs")
}

func runBinary(args ...string) error {
	if err := Build(); err != nil {
		return err
	}
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
