// Command pak lists and extracts the contents of legacy game archives.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal; settings then come from flags and PAK_* variables.
	_ = godotenv.Load() //nolint:errcheck // optional file

	if err := execute(newRootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, "pak:", err)
		os.Exit(1)
	}
}
