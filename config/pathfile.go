package config

import (
	"os"

	"github.com/fieldctl/core/routine"
)

func readAndParsePathFile(path string) (*routine.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return routine.Parse(data)
}
