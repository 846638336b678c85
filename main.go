package main

import (
	"os"

	"ocr-translator/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
