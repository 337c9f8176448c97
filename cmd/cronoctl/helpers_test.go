package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/cronokit/internal/config"
	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/internal/testutil"
	"github.com/joshuapare/cronokit/pkg/types"
)

const testSerial = 4242

var testPersons = testutil.BaseSpec{
	Version:  0x0108,
	Index:    3,
	Name:     "Persons",
	Mnemonic: "PRS",
	Fields: []testutil.FieldSpec{
		{Type: uint16(types.FieldString), Index: 1, Name: "Surname"},
		{Type: uint16(types.FieldNumber), Index: 2, Name: "Born"},
	},
}

// resetGlobals restores the state a fresh process would have after setup.
func resetGlobals(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut, noColor = false, false, false, false
	configPath, logLevel, codePage, budget = "", "", "", 0
	dumpLimit, dumpBase = 0, ""
	scanFailFast, scanJobs = false, 0
	cfg = config.Default()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testBank writes a bank directory holding the Persons base and the given
// data records, and returns the directory and the data bank.
func testBank(t *testing.T, opts testutil.BankOptions, records ...[]byte) (string, *testutil.Bank) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteStructure(t, dir, testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true}, testutil.SchemaSpec{
		ID:     7,
		Name:   []byte("Staff"),
		Serial: testSerial,
		Bases:  []testutil.BaseSpec{testPersons},
	})
	opts.Serial = testSerial
	data := testutil.NewBank(t, opts)
	for _, r := range records {
		data.Add(r)
	}
	data.Write(filepath.Join(dir, format.BankStem))
	return dir, data
}

func person(surname, born string) []byte {
	return testutil.DataRecord(3, []byte(surname), []byte(born))
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs do not block on the pipe buffer.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
