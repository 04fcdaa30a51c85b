package core

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FilterUpdateFields checks the keys of a raw patch payload against an
// entity's allowed fields and returns an InvalidUpdateError naming the
// offending fields if any key falls outside the allow-list.
// Callers must run this before fetching or mutating the record.
func FilterUpdateFields(payload map[string]interface{}, allowed ...string) error {
	var invalid []string
	for fld := range payload {
		var ok bool
		for _, a := range allowed {
			if fld == a {
				ok = true
				break
			}
		}
		if !ok {
			invalid = append(invalid, fld)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return &InvalidUpdateError{Fields: invalid}
	}
	return nil
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests... this breaks our code...
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
// this is a temporary fix for now :(
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			log.Fatal("project root not found")
		}
		currDir = newDir
	}
}
