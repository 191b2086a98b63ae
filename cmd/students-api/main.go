// main is the entry point of the Students API application.
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api serve --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api serve
package main

import (
	"os"

	"github.com/aanand-mishra/student-records-api/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
