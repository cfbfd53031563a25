//go:build mage

package main

import "os"

// targetArgs holds command-line arguments that follow the mage target name.
// Mage only supports positional parameters, not named flags. The init()
// function below intercepts os.Args before mage's parser runs, extracting
// everything after the target name into targetArgs so that test targets can
// hand them to go test.
//
// Example: "mage test:unit -run TestParse -count 1" sets targetArgs to
// ["-run", "TestParse", "-count", "1"] and leaves os.Args as
// ["mage", "test:unit"].
var targetArgs []string

func init() {
	// Mage's os.Args layout: [binary] [mage-flags...] [target] [target-args...]
	// Mage flags start with "-" (e.g., -v, -d, -h). The target is the first
	// non-dash argument after the binary name.

	if len(os.Args) < 2 {
		return
	}

	targetIdx := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--" {
			break
		}
		if len(os.Args[i]) > 0 && os.Args[i][0] != '-' {
			targetIdx = i
			break
		}
	}

	if targetIdx < 0 || targetIdx+1 >= len(os.Args) {
		return
	}

	targetArgs = os.Args[targetIdx+1:]
	os.Args = os.Args[:targetIdx+1]
}
