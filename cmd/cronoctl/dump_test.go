package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/cronokit/internal/format"
	"github.com/joshuapare/cronokit/internal/testutil"
)

func TestDumpCommand(t *testing.T) {
	dir, _ := testBank(t, testutil.BankOptions{Version: testutil.V4Pro, Encrypted: true, Compressed: true},
		person("Ivanov", "1970"), person("Petrov", "1981"), person("Sidorov", "1990"))

	tests := []struct {
		name           string
		json           bool
		limit          int
		base           string
		wantLines      int // JSON lines only
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "all records",
			wantContain: []string{"#1 Persons", "Surname", "Ivanov", "1970", "#3 Persons", "Sidorov"},
		},
		{
			name:           "limit",
			json:           true,
			limit:          2,
			wantLines:      2,
			wantContain:    []string{`"value":"Ivanov"`, `"value":"Petrov"`},
			wantNotContain: []string{"Sidorov"},
		},
		{
			name:        "base by mnemonic",
			json:        true,
			base:        "PRS",
			wantLines:   3,
			wantContain: []string{`"base":"Persons"`},
		},
		{
			name:           "unknown base filters everything",
			base:           "Nope",
			wantNotContain: []string{"Persons"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			jsonOut = tt.json
			dumpLimit = tt.limit
			dumpBase = tt.base

			output, err := captureOutput(t, func() error { return runDump(context.Background(), []string{dir}) })
			if err != nil {
				t.Fatalf("runDump() error = %v", err)
			}
			if tt.json {
				lines := strings.Split(strings.TrimSpace(output), "\n")
				if len(lines) != tt.wantLines {
					t.Fatalf("got %d lines, want %d\n%s", len(lines), tt.wantLines, output)
				}
				for _, l := range lines {
					assertJSON(t, l)
				}
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestDumpCommand_SkipsCorruptRecord(t *testing.T) {
	resetGlobals(t)
	jsonOut = true
	dir, data := testBank(t, testutil.BankOptions{Version: testutil.V3Pro, BlockLength: 32},
		person("Ivanov", "1970"))
	bad := data.Add(person(strings.Repeat("long", 30), "1981"))
	data.Add(person("Sidorov", "1990"))
	data.SetNext(bad, 1, data.DataSize()+1<<20)
	data.Write(filepath.Join(dir, format.BankStem))

	output, err := captureOutput(t, func() error { return runDump(context.Background(), []string{dir}) })
	if err != nil {
		t.Fatalf("runDump() error = %v", err)
	}
	assertContains(t, output, []string{"Ivanov", "Sidorov"})
	assertNotContains(t, output, []string{"longlong"})
}
