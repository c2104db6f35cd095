package main

import (
	"testing"

	"docbridge/cmd"
)

func TestVersion(t *testing.T) {
	if version != "dev" {
		t.Errorf("Expected default version to be 'dev', got %s", version)
	}

	cmd.SetVersion(version)
	if cmd.GetVersion() != "dev" {
		t.Errorf("Expected cmd version to be 'dev', got %s", cmd.GetVersion())
	}
}
