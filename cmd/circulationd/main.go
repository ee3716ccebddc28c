package main

import (
	"log"
	"os"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "circulationd ", log.LstdFlags)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Fatal(err)
	}
}
