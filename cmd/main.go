package main

import (
	"os"

	"github.com/christian-hnz/functime/cmd/functime"
)

func main() {
	if err := functime.Execute(); err != nil {
		os.Exit(1)
	}
}
