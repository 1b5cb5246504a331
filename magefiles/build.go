//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Downloads the modules and builds the testbed binary into bin/.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("mod", "download"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/flux", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Vets every package.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

type Test mg.Namespace

// Runs the whole test suite with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Runs the tests that do not need a GPU or a display.
func (Test) Headless() error {
	_, err := executeCmd("go", withArgs("test", "-race",
		"./engine/assets/...", "./engine/containers/...", "./engine/core/...",
		"./engine/renderer/...", "./engine/world/...", "./engine/platform/filesystem/..."), withStream())
	return err
}
