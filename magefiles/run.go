//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed in a window.
func (Run) Engine() error {
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", configFile()), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs a fixed number of frames through the headless backend.
func (Run) Headless() error {
	fmt.Println("Run engine headless...")
	_, err := executeCmd("go", withArgs("run", ".", "-config", configFile(), "-headless", "-frames", "600"), withStream())
	return err
}

// Writes the default configuration so it can be edited.
func (Run) Config() error {
	_, err := executeCmd("go", withArgs("run", ".", "-config", configFile(), "-write-config"), withStream())
	return err
}
